package model

import (
	"fmt"
	"time"
)

// NGOApplicationModel NGO registration application
type NGOApplicationModel struct {
	Id        string    `json:"id" gorm:"primaryKey;size:64"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	OrganizationName   string `json:"organizationName" gorm:"not null"`
	Email              string `json:"email" gorm:"not null;index"`
	ContactPerson      string `json:"contactPerson"`
	Phone              string `json:"phone"`
	Website            string `json:"website"`
	Country            string `json:"country"`
	RegistrationNumber string `json:"registrationNumber"`
	WalletAddress      string `json:"walletAddress"`
	Description        string `json:"description" gorm:"type:text"`

	Status      ApplicationStatus `json:"status" gorm:"index;default:'pending'"`
	ReviewNotes string            `json:"reviewNotes,omitempty" gorm:"type:text"`
	ReviewedAt  *time.Time        `json:"reviewedAt,omitempty"`

	// non-nil iff Status is approved
	Credentials *NGOCredentials `json:"credentials,omitempty" gorm:"type:text;serializer:json"`

	// transient; cleared on approval and by Sanitize
	RegistrationPassword string `json:"registrationPassword,omitempty"`
}

// NGOCredentials login credentials issued on approval
type NGOCredentials struct {
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash,omitempty"`
	IssuedAt     time.Time `json:"issuedAt"`
}

// ApplicationStatus application review state
type ApplicationStatus string

const (
	ApplicationStatusPending     ApplicationStatus = "pending"
	ApplicationStatusUnderReview ApplicationStatus = "under_review"
	ApplicationStatusApproved    ApplicationStatus = "approved"
	ApplicationStatusRejected    ApplicationStatus = "rejected"
)

var applicationTransitions = map[ApplicationStatus][]ApplicationStatus{
	ApplicationStatusPending:     {ApplicationStatusUnderReview, ApplicationStatusRejected},
	ApplicationStatusUnderReview: {ApplicationStatusApproved, ApplicationStatusRejected},
}

// ParseApplicationStatus validates a status string
func ParseApplicationStatus(s string) (ApplicationStatus, error) {
	switch st := ApplicationStatus(s); st {
	case ApplicationStatusPending, ApplicationStatusUnderReview, ApplicationStatusApproved, ApplicationStatusRejected:
		return st, nil
	}
	return "", fmt.Errorf("invalid application status %q", s)
}

// CanTransitionTo reports whether the review state machine allows s -> next
func (s ApplicationStatus) CanTransitionTo(next ApplicationStatus) bool {
	for _, allowed := range applicationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal approved and rejected accept no further transitions
func (s ApplicationStatus) IsTerminal() bool {
	return s == ApplicationStatusApproved || s == ApplicationStatusRejected
}

// Sanitize returns a copy safe to hand to callers
func (a NGOApplicationModel) Sanitize() NGOApplicationModel {
	a.RegistrationPassword = ""
	if a.Credentials != nil {
		creds := *a.Credentials
		creds.PasswordHash = ""
		a.Credentials = &creds
	}
	return a
}

// TableName custom table name
func (NGOApplicationModel) TableName() string {
	return "ngo_application"
}
