package auth

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// AdminCredentials the single configured administrator
type AdminCredentials struct {
	Email        string
	PasswordHash string // bcrypt
}

// Verify reports whether email and password match. An unconfigured admin
// never matches.
func (a AdminCredentials) Verify(email, password string) bool {
	if a.Email == "" || a.PasswordHash == "" {
		return false
	}
	emailOK := subtle.ConstantTimeCompare(
		[]byte(strings.ToLower(strings.TrimSpace(email))),
		[]byte(strings.ToLower(a.Email)),
	) == 1
	passOK := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) == nil
	return emailOK && passOK
}
