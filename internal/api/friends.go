package api

import (
	"encoding/json"
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

// FriendsHandler creates and accepts friend requests. A friendship is two
// per-owner edge documents with complementary statuses; both requestFriend
// and acceptFriend write the pair inside one store transaction so readers
// never observe one side without the other.
type FriendsHandler struct {
	store  repository.DocumentStore
	logger *zap.Logger
}

func NewFriendsHandler(store repository.DocumentStore, logger *zap.Logger) *FriendsHandler {
	return &FriendsHandler{store: store, logger: logger}
}

type requestFriendRequest struct {
	FriendCode string `json:"friendCode"`
}

type acceptFriendRequest struct {
	FriendUID string `json:"friendUid"`
}

// Request handles POST /v1/friends/request
func (h *FriendsHandler) Request(c *gin.Context) {
	uid := middleware.GetUserID(c)
	if uid == "" {
		fail(c, apperror.Unauthenticated("user not authenticated"))
		return
	}

	var req requestFriendRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.FriendCode == "" {
		fail(c, apperror.InvalidArgument("invalid friend code"))
		return
	}

	ctx := c.Request.Context()

	var target models.PublicProfile
	err := h.store.Get(ctx, repository.PublicProfiles, req.FriendCode, &target)
	if errors.Is(err, repository.ErrNotFound) {
		fail(c, apperror.NotFound("friend code not found"))
		return
	}
	if err != nil {
		h.logger.Error("failed to resolve friend code", zap.Error(err))
		fail(c, apperror.Internal("error adding friend"))
		return
	}

	friendUID := target.UserID
	friendName := target.Name
	if friendName == "" {
		friendName = "Friend"
	}

	if friendUID == uid {
		fail(c, apperror.InvalidArgument("cannot add yourself"))
		return
	}

	// The recipient's edge carries the caller's code and name so the
	// client can render the incoming request without extra lookups.
	var callerProfile models.Profile
	if err := h.store.Get(ctx, repository.Users, uid, &callerProfile); err != nil && !errors.Is(err, repository.ErrNotFound) {
		h.logger.Error("failed to load caller profile", zap.Error(err))
		fail(c, apperror.Internal("error adding friend"))
		return
	}
	callerName := callerProfile.Name
	if callerName == "" {
		callerName = models.NameFallback(uid)
	}

	now := time.Now().UTC()
	err = h.store.RunTransaction(ctx, func(tx repository.Tx) error {
		if err := tx.Set(ctx, repository.FriendsPath(uid), friendUID, models.FriendEdge{
			Status:    models.EdgePendingSent,
			ShareCode: req.FriendCode,
			Name:      friendName,
			CreatedAt: now,
		}); err != nil {
			return err
		}
		return tx.Set(ctx, repository.FriendsPath(friendUID), uid, models.FriendEdge{
			Status:    models.EdgePendingReceived,
			ShareCode: callerProfile.ShareCode,
			Name:      callerName,
			CreatedAt: now,
		})
	})
	if err != nil {
		h.logger.Error("failed to write friend edges", zap.Error(err))
		fail(c, apperror.Internal("error adding friend"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "friendName": friendName})
}

// Accept handles POST /v1/friends/accept
//
// Both edges must already exist: Update fails with ErrNotFound inside the
// transaction, which rolls back the whole pair and leaves both edges as
// they were.
func (h *FriendsHandler) Accept(c *gin.Context) {
	uid := middleware.GetUserID(c)
	if uid == "" {
		fail(c, apperror.Unauthenticated("user not authenticated"))
		return
	}

	var req acceptFriendRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.FriendUID == "" {
		fail(c, apperror.InvalidArgument("invalid friend UID"))
		return
	}

	ctx := c.Request.Context()
	now := time.Now().UTC()
	err := h.store.RunTransaction(ctx, func(tx repository.Tx) error {
		fields := map[string]any{
			"status":     models.EdgeAccepted,
			"acceptedAt": now,
		}
		if err := tx.Update(ctx, repository.FriendsPath(uid), req.FriendUID, fields); err != nil {
			return err
		}
		return tx.Update(ctx, repository.FriendsPath(req.FriendUID), uid, fields)
	})
	if err != nil {
		h.logger.Error("failed to accept friend request",
			zap.String("uid", uid),
			zap.String("friend_uid", req.FriendUID),
			zap.Error(err),
		)
		fail(c, apperror.Internal("error accepting request"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

type friendEntry struct {
	FriendID string `json:"friendId"`
	models.FriendEdge
}

// List handles GET /v1/friends
func (h *FriendsHandler) List(c *gin.Context) {
	uid := middleware.GetUserID(c)
	if uid == "" {
		fail(c, apperror.Unauthenticated("user not authenticated"))
		return
	}

	docs, err := h.store.List(c.Request.Context(), repository.FriendsPath(uid))
	if err != nil {
		h.logger.Error("failed to list friends", zap.Error(err))
		fail(c, apperror.Internal("error listing friends"))
		return
	}

	friends := make([]friendEntry, 0, len(docs))
	for _, doc := range docs {
		entry := friendEntry{FriendID: doc.ID}
		if err := json.Unmarshal(doc.Data, &entry.FriendEdge); err != nil {
			h.logger.Error("failed to decode friend edge", zap.String("id", doc.ID), zap.Error(err))
			fail(c, apperror.Internal("error listing friends"))
			return
		}
		friends = append(friends, entry)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "friends": friends})
}
