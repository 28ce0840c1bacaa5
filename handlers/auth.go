package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/inkfeed/inkfeed/internal/config"
	"github.com/inkfeed/inkfeed/internal/identity"
	"github.com/inkfeed/inkfeed/internal/profiles"
	"github.com/inkfeed/inkfeed/internal/sessions"
	"github.com/inkfeed/inkfeed/internal/tokens"
	"github.com/inkfeed/inkfeed/pkg/logger"
)

// RegisterRequest is the sign-up payload. Password rules are checked here,
// before any provider call.
type RegisterRequest struct {
	Name            string `json:"name" binding:"required"`
	Email           string `json:"email" binding:"required"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// AuthHandler holds dependencies
type AuthHandler struct {
	cfg         *config.Config
	provider    identity.Provider
	profilesSvc *profiles.Service
	sessionsSvc *sessions.Service
}

func NewAuthHandler(cfg *config.Config, p identity.Provider, prof *profiles.Service, s *sessions.Service) *AuthHandler {
	return &AuthHandler{cfg: cfg, provider: p, profilesSvc: prof, sessionsSvc: s}
}

// Register routes under /auth
func (h *AuthHandler) Register(rg *gin.RouterGroup) {
	a := rg.Group("/auth")
	a.POST("/register", h.SignUp)
	a.POST("/login", h.Login)
	a.POST("/refresh", h.Refresh)
	a.POST("/logout", h.Logout)
	a.POST("/resend-verification", h.ResendVerification)
}

// SignUp creates the provider account, seeds the profile and sends the
// verification email. The returned session is usable but unverified.
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Password) < 6 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password must be at least 6 characters"})
		return
	}
	if req.Password != req.ConfirmPassword {
		c.JSON(http.StatusBadRequest, gin.H{"error": "passwords do not match"})
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name must not be empty"})
		return
	}

	id, err := h.provider.SignUp(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	id.DisplayName = name

	profile, err := h.profilesSvc.CreateInitial(c.Request.Context(), id.UID, name, id.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.provider.SendVerificationEmail(c.Request.Context(), id); err != nil {
		// account exists; the client can re-request the email
		logger.Errorf("verification email for %s failed: %v", id.UID, err)
	}

	h.issueTokens(c, http.StatusCreated, id, profile)
}

// Login authenticates against the provider. Unverified accounts are rejected
// with a fresh verification email on the way out.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id, err := h.provider.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	if !id.EmailVerified {
		if err := h.provider.SendVerificationEmail(c.Request.Context(), id); err != nil {
			logger.Errorf("verification email for %s failed: %v", id.UID, err)
		}
		c.JSON(http.StatusForbidden, gin.H{"error": "email not verified", "verificationSent": true})
		return
	}
	profile, err := h.profilesSvc.Get(c.Request.Context(), id.UID, id.Email, id.DisplayName)
	if err != nil {
		respondError(c, err)
		return
	}
	h.issueTokens(c, http.StatusOK, id, profile)
}

// Refresh exchanges our refresh token for a new access token, renewing the
// provider session so a verification that landed since sign-in is picked up.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess, err := h.sessionsSvc.ValidateRefresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "validation failed"})
		return
	}
	if sess == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}
	id, err := h.provider.Refresh(c.Request.Context(), sess.ProviderRefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}
	if id.DisplayName == "" {
		id.DisplayName = sess.Name
	}
	access, err := tokens.GenerateAccessToken(h.cfg.JWT.Secret, id, h.cfg.JWT.AccessTokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create access token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"accessToken": access,
		"expiresIn":   int(h.cfg.JWT.AccessTokenTTL.Seconds()),
	})
}

// Logout invalidates the refresh session
func (h *AuthHandler) Logout(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.sessionsSvc.DeleteRefresh(c.Request.Context(), req.RefreshToken); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// ResendVerification re-sends the verification email for a pending account.
// Takes the refresh token since an unverified account cannot hold a verified
// access token.
func (h *AuthHandler) ResendVerification(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess, err := h.sessionsSvc.ValidateRefresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "validation failed"})
		return
	}
	if sess == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}
	id, err := h.provider.Refresh(c.Request.Context(), sess.ProviderRefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}
	if id.EmailVerified {
		c.JSON(http.StatusOK, gin.H{"message": "email already verified"})
		return
	}
	if err := h.provider.SendVerificationEmail(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "verification email sent"})
}

func (h *AuthHandler) issueTokens(c *gin.Context, status int, id *identity.Session, profile interface{}) {
	refresh, err := h.sessionsSvc.CreateSession(c.Request.Context(), id, h.cfg.JWT.RefreshTokenTTL)
	if err != nil {
		logger.Errorf("failed to create session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}
	access, err := tokens.GenerateAccessToken(h.cfg.JWT.Secret, id, h.cfg.JWT.AccessTokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create access token"})
		return
	}
	c.JSON(status, gin.H{
		"accessToken":  access,
		"refreshToken": refresh,
		"user":         profile,
		"expiresIn":    int(h.cfg.JWT.AccessTokenTTL.Seconds()),
	})
}
