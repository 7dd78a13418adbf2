package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tejari49/timeroster/internal/apperror"
	"github.com/tejari49/timeroster/internal/middleware"
	"github.com/tejari49/timeroster/internal/models"
	"github.com/tejari49/timeroster/internal/repository"
	"go.uber.org/zap"
)

// TokensHandler registers and removes the caller's push tokens. The token
// string doubles as the document id, so re-registering the same device is a
// natural no-op.
type TokensHandler struct {
	store  repository.DocumentStore
	logger *zap.Logger
}

func NewTokensHandler(store repository.DocumentStore, logger *zap.Logger) *TokensHandler {
	return &TokensHandler{store: store, logger: logger}
}

type registerTokenRequest struct {
	Token string `json:"token"`
}

// Register handles PUT /v1/push/tokens
func (h *TokensHandler) Register(c *gin.Context) {
	uid := middleware.GetUserID(c)
	if uid == "" {
		fail(c, apperror.Unauthenticated("user not authenticated"))
		return
	}

	var req registerTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" {
		fail(c, apperror.InvalidArgument("invalid token"))
		return
	}

	record := models.PushToken{
		Token:     req.Token,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.store.Set(c.Request.Context(), repository.TokensPath(uid), req.Token, record); err != nil {
		h.logger.Error("failed to register token", zap.Error(err))
		fail(c, apperror.Internal("error registering token"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Unregister handles DELETE /v1/push/tokens/:token
func (h *TokensHandler) Unregister(c *gin.Context) {
	uid := middleware.GetUserID(c)
	if uid == "" {
		fail(c, apperror.Unauthenticated("user not authenticated"))
		return
	}

	token := c.Param("token")
	if token == "" {
		fail(c, apperror.InvalidArgument("invalid token"))
		return
	}

	if err := h.store.Delete(c.Request.Context(), repository.TokensPath(uid), token); err != nil {
		h.logger.Error("failed to unregister token", zap.Error(err))
		fail(c, apperror.Internal("error unregistering token"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
