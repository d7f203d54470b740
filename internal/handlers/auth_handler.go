package handlers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	apperrors "taskhub/internal/domain/errors"
	"taskhub/internal/models"
	"taskhub/internal/services"
)

type AuthHandler struct {
	users    services.UserService
	auth     services.AuthService
	resets   services.PasswordResetService
	validate *validator.Validate
}

func NewAuthHandler(users services.UserService, auth services.AuthService, resets services.PasswordResetService) *AuthHandler {
	return &AuthHandler{users: users, auth: auth, resets: resets, validate: validator.New()}
}

// POST /login
func (h *AuthHandler) Login(c *gin.Context) {
	start := time.Now()

	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[auth][login] bad request: bind json failed: err=%v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		log.Printf("[auth][login][validate][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	email := strings.TrimSpace(req.Email)
	log.Printf("[auth][login] attempt email=%q", email)

	user, err := h.users.GetByEmail(c.Request.Context(), email)
	if err != nil || user == nil {
		log.Printf("[auth][login] user not found by email=%q: err=%v", email, err)
		respondError(c, apperrors.ErrInvalidLogin)
		return
	}
	if !h.auth.CheckPassword(user.PasswordHash, strings.TrimSpace(req.Password)) {
		log.Printf("[auth][login] password mismatch for userID=%s", user.ID)
		respondError(c, apperrors.ErrInvalidLogin)
		return
	}

	token, err := h.auth.IssueAccessToken(user)
	if err != nil {
		log.Printf("[auth][login] sign access token failed for userID=%s: err=%v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate access token"})
		return
	}

	log.Printf("[auth][login] success userID=%s role=%s took=%s", user.ID, user.Role, time.Since(start).Truncate(time.Millisecond))
	c.JSON(http.StatusOK, gin.H{
		"user":         user, // PasswordHash carries json:"-", never serialized
		"access_token": token,
	})
}

// POST /password-reset/request
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req models.RequestPasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.resets.RequestReset(c.Request.Context(), req.Email); err != nil {
		log.Printf("[auth][password-reset][err] %v", err)
		respondError(c, err)
		return
	}
	// same answer whether or not the account exists
	c.JSON(http.StatusOK, gin.H{"message": "If the account exists, a reset link has been sent"})
}

// POST /password-reset/confirm
func (h *AuthHandler) ConfirmPasswordReset(c *gin.Context) {
	var req models.ConfirmPasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.resets.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		log.Printf("[auth][password-reset][confirm][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}
