package api

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tejari49/timeroster/internal/events"
	"github.com/tejari49/timeroster/internal/models"
	"github.com/tejari49/timeroster/internal/repository"
	"github.com/tejari49/timeroster/internal/repository/memory"
	"go.uber.org/zap"
)

func notificationsRouter(store repository.DocumentStore, bus events.Publisher, uid string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewNotificationsHandler(store, bus, zap.NewNop())
	r := gin.New()
	r.Use(asUser(uid, ""))
	r.POST("/notifications", h.Enqueue)
	return r
}

func TestEnqueueNotification(t *testing.T) {
	store := memory.New()
	bus := &fakeBus{}

	rec := doJSON(t, notificationsRouter(store, bus, "u1"), http.MethodPost, "/notifications", gin.H{
		"recipientUserId": "u2",
		"data":            gin.H{"type": "shift", "shiftId": "s-9"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	id, _ := body["notificationId"].(string)
	require.NotEmpty(t, id)

	var record models.QueuedNotification
	require.NoError(t, store.Get(context.Background(), repository.NotificationQueue, id, &record))
	assert.Equal(t, "u2", record.RecipientUserID)
	assert.Equal(t, "shift", record.Data["type"])
	assert.Empty(t, record.Status, "status is owned by the dispatcher")

	require.Len(t, bus.published, 1)
	assert.Equal(t, events.KindNotificationCreated, bus.published[0].Kind)
	assert.Equal(t, id, bus.published[0].DocID)
}

func TestEnqueueNotificationMissingRecipientStillAccepted(t *testing.T) {
	store := memory.New()
	bus := &fakeBus{}

	// Classification is the dispatcher's job; the enqueue surface takes the
	// record as-is.
	rec := doJSON(t, notificationsRouter(store, bus, "u1"), http.MethodPost, "/notifications", gin.H{
		"data": gin.H{"type": "update"},
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, bus.published, 1)
}

func TestEnqueueNotificationPublishFailure(t *testing.T) {
	bus := &fakeBus{err: errors.New("stream unavailable")}

	rec := doJSON(t, notificationsRouter(memory.New(), bus, "u1"), http.MethodPost, "/notifications", gin.H{
		"recipientUserId": "u2",
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestEnqueueNotificationUnauthenticated(t *testing.T) {
	rec := doJSON(t, notificationsRouter(memory.New(), &fakeBus{}, ""), http.MethodPost, "/notifications", gin.H{
		"recipientUserId": "u2",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
