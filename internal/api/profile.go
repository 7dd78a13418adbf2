package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tejari49/timeroster/internal/apperror"
	"github.com/tejari49/timeroster/internal/middleware"
	"github.com/tejari49/timeroster/internal/models"
	"github.com/tejari49/timeroster/internal/repository"
	"go.uber.org/zap"
)

// ProfileHandler maintains the caller's profile and the public share-code
// directory other users resolve friend codes against.
type ProfileHandler struct {
	store  repository.DocumentStore
	logger *zap.Logger
}

func NewProfileHandler(store repository.DocumentStore, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{store: store, logger: logger}
}

type updateProfileRequest struct {
	Name      string `json:"name"`
	ShareCode string `json:"shareCode"`
}

// Update handles POST /v1/profile
//
// An empty shareCode means "no change": the stored code and its public
// mapping stay untouched, so a name-only edit never severs the directory
// entry. When a non-empty code replaces a different one, the profile merge,
// the new public_profiles mapping and the retraction of the previous code
// share one transaction: the current profile is read inside it, so two
// concurrent updates cannot both retract against the same stale code, and a
// user never has two live mappings.
func (h *ProfileHandler) Update(c *gin.Context) {
	uid := middleware.GetUserID(c)
	if uid == "" {
		fail(c, apperror.Unauthenticated("user not authenticated"))
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperror.InvalidArgument("invalid profile payload"))
		return
	}

	name := req.Name
	if name == "" {
		name = models.NameFallback(uid)
	}

	ctx := c.Request.Context()
	now := time.Now().UTC()
	err := h.store.RunTransaction(ctx, func(tx repository.Tx) error {
		var current models.Profile
		if err := tx.Get(ctx, repository.Users, uid, &current); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		if err := tx.Set(ctx, repository.Users, uid, models.Profile{
			Name:      name,
			ShareCode: req.ShareCode,
			UpdatedAt: now,
		}); err != nil {
			return err
		}
		if req.ShareCode == "" {
			return nil
		}
		if err := tx.Set(ctx, repository.PublicProfiles, req.ShareCode, models.PublicProfile{
			UserID:    uid,
			Name:      name,
			UpdatedAt: now,
		}); err != nil {
			return err
		}
		if current.ShareCode != "" && current.ShareCode != req.ShareCode {
			return tx.Delete(ctx, repository.PublicProfiles, current.ShareCode)
		}
		return nil
	})
	if err != nil {
		h.logger.Error("failed to update profile", zap.Error(err))
		fail(c, apperror.Internal("error updating profile"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
