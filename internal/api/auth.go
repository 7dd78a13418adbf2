package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tejari49/timeroster/internal/auth"
	"github.com/tejari49/timeroster/internal/models"
	"github.com/tejari49/timeroster/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler handles signup and login, the only public endpoints besides
// the health check. Accounts live in the auth_users collection keyed by
// email; signup also seeds the users/{uid} profile document.
type AuthHandler struct {
	store     repository.DocumentStore
	jwtSecret string
	logger    *zap.Logger
}

func NewAuthHandler(store repository.DocumentStore, jwtSecret string, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		store:     store,
		jwtSecret: jwtSecret,
		logger:    logger,
	}
}

type signupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type authResponse struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}

// Signup handles POST /v1/auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var existing models.AuthUser
	err := h.store.Get(c.Request.Context(), repository.AuthUsers, email, &existing)
	if err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
		return
	}
	if !errors.Is(err, repository.ErrNotFound) {
		h.logger.Error("failed to check existing account", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "signup failed"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("failed to hash password", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "signup failed"})
		return
	}

	uid := uuid.NewString()
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = models.NameFallback(uid)
	}
	now := time.Now().UTC()

	// Account and profile are created together; a reader that can resolve
	// the account always finds the profile document.
	err = h.store.RunTransaction(c.Request.Context(), func(tx repository.Tx) error {
		if err := tx.Set(c.Request.Context(), repository.AuthUsers, email, models.AuthUser{
			UserID:       uid,
			PasswordHash: string(hash),
			CreatedAt:    now,
		}); err != nil {
			return err
		}
		return tx.Set(c.Request.Context(), repository.Users, uid, models.Profile{
			Name:      name,
			UpdatedAt: now,
		})
	})
	if err != nil {
		h.logger.Error("failed to create account", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "signup failed"})
		return
	}

	token, err := auth.GenerateToken(uid, name, h.jwtSecret, 24*time.Hour)
	if err != nil {
		h.logger.Error("failed to generate token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "signup failed"})
		return
	}

	c.JSON(http.StatusCreated, authResponse{Token: token, UserID: uid})
}

// Login handles POST /v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var account models.AuthUser
	err := h.store.Get(c.Request.Context(), repository.AuthUsers, email, &account)
	if errors.Is(err, repository.ErrNotFound) {
		// Same response for unknown email and wrong password, so the
		// endpoint does not leak which emails are registered.
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}
	if err != nil {
		h.logger.Error("failed to load account", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}

	var profile models.Profile
	if err := h.store.Get(c.Request.Context(), repository.Users, account.UserID, &profile); err != nil && !errors.Is(err, repository.ErrNotFound) {
		h.logger.Error("failed to load profile", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	name := profile.Name
	if name == "" {
		name = models.NameFallback(account.UserID)
	}

	token, err := auth.GenerateToken(account.UserID, name, h.jwtSecret, 24*time.Hour)
	if err != nil {
		h.logger.Error("failed to generate token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	c.JSON(http.StatusOK, authResponse{Token: token, UserID: account.UserID})
}
