package handler

import (
	"net/http"
	"time"

	"github.com/dev0xiinko/don-8-sub001/internal/auth"
	"github.com/dev0xiinko/don-8-sub001/internal/logger"
	"github.com/dev0xiinko/don-8-sub001/internal/logic"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	applicationLogic *logic.ApplicationLogic
	issuer           *auth.Issuer
	admin            auth.AdminCredentials
	timeout          storeTimeout
}

func NewAuthHandler(applicationLogic *logic.ApplicationLogic, issuer *auth.Issuer, admin auth.AdminCredentials, timeout time.Duration) *AuthHandler {
	return &AuthHandler{
		applicationLogic: applicationLogic,
		issuer:           issuer,
		admin:            admin,
		timeout:          storeTimeout(timeout),
	}
}

// NGOLogin issues a token for an approved NGO
func (h *AuthHandler) NGOLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := h.timeout.context(c)
	defer cancel()
	app, err := h.applicationLogic.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		HandleError(c, err)
		return
	}

	token, expires, err := h.issuer.Issue(auth.RoleNGO, app.Id, app.Email, app.WalletAddress)
	if err != nil {
		HandleError(c, err)
		return
	}
	logger.Info("NGO %s signed in", app.Id)
	SuccessResponse(c, http.StatusOK, "signed in", LoginResponse{
		Token:     token,
		ExpiresAt: expires.UTC().Format(time.RFC3339),
		Role:      string(auth.RoleNGO),
		Profile:   app,
	})
}

// AdminLogin issues a token for the configured administrator
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if !h.admin.Verify(req.Email, req.Password) {
		HandleError(c, logic.ErrInvalidLogin)
		return
	}

	token, expires, err := h.issuer.Issue(auth.RoleAdmin, h.admin.Email, h.admin.Email, "")
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "signed in", LoginResponse{
		Token:     token,
		ExpiresAt: expires.UTC().Format(time.RFC3339),
		Role:      string(auth.RoleAdmin),
	})
}
