package api

import (
	"encoding/json"
	"errors"
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

// SecretHandler manages secret-chat contact requests. It only writes the
// request records and publishes their write events; the mirroring onto both
// participants' trees is the dispatch worker's job.
type SecretHandler struct {
	store  repository.DocumentStore
	bus    events.Publisher
	logger *zap.Logger
}

func NewSecretHandler(store repository.DocumentStore, bus events.Publisher, logger *zap.Logger) *SecretHandler {
	return &SecretHandler{store: store, bus: bus, logger: logger}
}

type createSecretRequest struct {
	To string `json:"to"`
}

type respondSecretRequest struct {
	Accept bool `json:"accept"`
}

// Create handles POST /v1/secret/requests
func (h *SecretHandler) Create(c *gin.Context) {
	uid := middleware.GetUserID(c)
	if uid == "" {
		fail(c, apperror.Unauthenticated("user not authenticated"))
		return
	}

	var req createSecretRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.To == "" {
		fail(c, apperror.InvalidArgument("invalid recipient"))
		return
	}
	if req.To == uid {
		fail(c, apperror.InvalidArgument("cannot request yourself"))
		return
	}

	ctx := c.Request.Context()

	fromName := middleware.GetUserName(c)
	if fromName == "" {
		fromName = models.NameFallback(uid)
	}
	var targetProfile models.Profile
	if err := h.store.Get(ctx, repository.Users, req.To, &targetProfile); err != nil && !errors.Is(err, repository.ErrNotFound) {
		h.logger.Error("failed to load recipient profile", zap.Error(err))
		fail(c, apperror.Internal("error creating request"))
		return
	}
	toName := targetProfile.Name
	if toName == "" {
		toName = models.NameFallback(req.To)
	}

	id := uuid.NewString()
	record := models.SecretContactRequest{
		From:      uid,
		To:        req.To,
		FromName:  fromName,
		ToName:    toName,
		Status:    models.SecretRequestPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.store.Set(ctx, repository.SecretRequests, id, record); err != nil {
		h.logger.Error("failed to create secret request", zap.Error(err))
		fail(c, apperror.Internal("error creating request"))
		return
	}

	// A pending request is a no-op for the mirror, but the event is
	// published for every write so the trigger contract stays uniform.
	if err := h.bus.Publish(ctx, events.Event{Kind: events.KindSecretRequestWritten, DocID: id}); err != nil {
		h.logger.Warn("failed to publish secret request event", zap.String("id", id), zap.Error(err))
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "requestId": id})
}

// Respond handles POST /v1/secret/requests/:id/respond
//
// Acceptance is what the mirror consumes, so a failed publish here is
// surfaced as an error: the client retries, and the merge-set makes the
// retry idempotent.
func (h *SecretHandler) Respond(c *gin.Context) {
	uid := middleware.GetUserID(c)
	if uid == "" {
		fail(c, apperror.Unauthenticated("user not authenticated"))
		return
	}

	id := c.Param("id")
	var req respondSecretRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperror.InvalidArgument("invalid response payload"))
		return
	}

	ctx := c.Request.Context()

	var record models.SecretContactRequest
	err := h.store.Get(ctx, repository.SecretRequests, id, &record)
	if errors.Is(err, repository.ErrNotFound) {
		fail(c, apperror.NotFound("request not found"))
		return
	}
	if err != nil {
		h.logger.Error("failed to load secret request", zap.Error(err))
		fail(c, apperror.Internal("error responding to request"))
		return
	}
	if record.To != uid {
		fail(c, apperror.InvalidArgument("request is not addressed to caller"))
		return
	}

	status := models.SecretRequestDeclined
	if req.Accept {
		status = models.SecretRequestAccepted
	}
	if err := h.store.Update(ctx, repository.SecretRequests, id, map[string]any{"status": status}); err != nil {
		h.logger.Error("failed to update secret request", zap.Error(err))
		fail(c, apperror.Internal("error responding to request"))
		return
	}

	if err := h.bus.Publish(ctx, events.Event{Kind: events.KindSecretRequestWritten, DocID: id}); err != nil {
		h.logger.Error("failed to publish secret request event", zap.String("id", id), zap.Error(err))
		fail(c, apperror.Internal("error responding to request"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

type secretContactEntry struct {
	ContactID string `json:"contactId"`
	models.SecretContact
}

// Contacts handles GET /v1/secret/contacts
func (h *SecretHandler) Contacts(c *gin.Context) {
	uid := middleware.GetUserID(c)
	if uid == "" {
		fail(c, apperror.Unauthenticated("user not authenticated"))
		return
	}

	docs, err := h.store.List(c.Request.Context(), repository.SecretContactsPath(uid))
	if err != nil {
		h.logger.Error("failed to list secret contacts", zap.Error(err))
		fail(c, apperror.Internal("error listing contacts"))
		return
	}

	contacts := make([]secretContactEntry, 0, len(docs))
	for _, doc := range docs {
		entry := secretContactEntry{ContactID: doc.ID}
		if err := json.Unmarshal(doc.Data, &entry.SecretContact); err != nil {
			h.logger.Error("failed to decode secret contact", zap.String("id", doc.ID), zap.Error(err))
			fail(c, apperror.Internal("error listing contacts"))
			return
		}
		contacts = append(contacts, entry)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "contacts": contacts})
}
