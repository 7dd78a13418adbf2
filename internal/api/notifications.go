package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tejari49/timeroster/internal/apperror"
	"github.com/tejari49/timeroster/internal/events"
	"github.com/tejari49/timeroster/internal/middleware"
	"github.com/tejari49/timeroster/internal/models"
	"github.com/tejari49/timeroster/internal/repository"
	"go.uber.org/zap"
)

// NotificationsHandler enqueues notification records. It deliberately does
// not validate the recipient: the dispatcher owns classification, and a bad
// record gets a terminal "invalid" status instead of a rejected enqueue.
type NotificationsHandler struct {
	store  repository.DocumentStore
	bus    events.Publisher
	logger *zap.Logger
}

func NewNotificationsHandler(store repository.DocumentStore, bus events.Publisher, logger *zap.Logger) *NotificationsHandler {
	return &NotificationsHandler{store: store, bus: bus, logger: logger}
}

type enqueueNotificationRequest struct {
	RecipientUserID string            `json:"recipientUserId"`
	Data            map[string]string `json:"data"`
}

// Enqueue handles POST /v1/notifications
func (h *NotificationsHandler) Enqueue(c *gin.Context) {
	uid := middleware.GetUserID(c)
	if uid == "" {
		fail(c, apperror.Unauthenticated("user not authenticated"))
		return
	}

	var req enqueueNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperror.InvalidArgument("invalid notification payload"))
		return
	}

	ctx := c.Request.Context()
	id := uuid.NewString()
	record := models.QueuedNotification{
		RecipientUserID: req.RecipientUserID,
		Data:            req.Data,
		CreatedAt:       time.Now().UTC(),
	}
	if err := h.store.Set(ctx, repository.NotificationQueue, id, record); err != nil {
		h.logger.Error("failed to enqueue notification", zap.Error(err))
		fail(c, apperror.Internal("error enqueueing notification"))
		return
	}

	if err := h.bus.Publish(ctx, events.Event{Kind: events.KindNotificationCreated, DocID: id}); err != nil {
		h.logger.Error("failed to publish notification event", zap.String("id", id), zap.Error(err))
		fail(c, apperror.Internal("error enqueueing notification"))
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "notificationId": id})
}
