// Package dispatch holds the trigger handlers: the notification dispatcher
// and the secret-contact mirror. Both are invoked by the event worker with
// at-least-once semantics, so every write path here guards against
// redelivery before acting.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tejari49/timeroster/internal/models"
	"github.com/tejari49/timeroster/internal/push"
	"github.com/tejari49/timeroster/internal/repository"
	"go.uber.org/zap"
)

// The visible notification is always this fixed neutral pair. Event
// specifics travel only in the data payload, never in the text the OS shows
// on a locked screen.
func neutralNotification() push.Notification {
	return push.Notification{
		Title: "Kalender aktualisiert",
		Body:  "Es gibt neue Updates.",
	}
}

// Dispatcher consumes queued notification records: resolves the recipient's
// tokens, performs one multicast send, prunes permanently-invalid tokens
// and writes a terminal status back onto the record.
type Dispatcher struct {
	store  repository.DocumentStore
	tokens *repository.TokenRegistry
	sender push.Sender
	appURL string
	logger *zap.Logger
}

func NewDispatcher(store repository.DocumentStore, tokens *repository.TokenRegistry, sender push.Sender, appURL string, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		store:  store,
		tokens: tokens,
		sender: sender,
		appURL: appURL,
		logger: logger,
	}
}

// HandleNotificationCreated processes one notification_queue record.
//
// "sent" means dispatch was attempted, not that any device received it: the
// status is written even when every token failed, with the counts carrying
// the per-token truth. A transport or store error is returned instead, so
// the event stays unacked and gets redelivered; the terminal status check
// at the top makes reprocessing a no-op once a status landed.
func (d *Dispatcher) HandleNotificationCreated(ctx context.Context, docID string) error {
	var record models.QueuedNotification
	err := d.store.Get(ctx, repository.NotificationQueue, docID, &record)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load notification %s: %w", docID, err)
	}

	if record.Status != "" {
		d.logger.Debug("notification already terminal",
			zap.String("id", docID),
			zap.String("status", string(record.Status)),
		)
		return nil
	}

	now := time.Now().UTC()

	if record.RecipientUserID == "" {
		return d.writeStatus(ctx, docID, map[string]any{
			"status":      models.NotificationInvalid,
			"error":       "missing recipientUserId",
			"processedAt": now,
		})
	}

	tokens, err := d.tokens.List(ctx, record.RecipientUserID)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		return d.writeStatus(ctx, docID, map[string]any{
			"status":      models.NotificationNoTokens,
			"processedAt": now,
		})
	}

	data := make(map[string]string, len(record.Data)+2)
	for k, v := range record.Data {
		data[k] = v
	}
	data["url"] = d.appURL
	if data["type"] == "" {
		data["type"] = "update"
	}

	result, err := d.sender.SendMulticast(ctx, &push.Message{
		Tokens:       tokens,
		Notification: neutralNotification(),
		Data:         data,
		Link:         d.appURL,
	})
	if err != nil {
		return fmt.Errorf("send notification %s: %w", docID, err)
	}

	var bad []string
	for i, resp := range result.Responses {
		if i >= len(tokens) {
			break
		}
		if !resp.Success && push.PermanentFailure(resp.ErrorCode) {
			bad = append(bad, tokens[i])
		}
	}
	if len(bad) > 0 {
		if err := d.tokens.DeleteBatch(ctx, record.RecipientUserID, bad); err != nil {
			return err
		}
		d.logger.Info("pruned invalid tokens",
			zap.String("recipient", record.RecipientUserID),
			zap.Int("count", len(bad)),
		)
	}

	return d.writeStatus(ctx, docID, map[string]any{
		"status":       models.NotificationSent,
		"processedAt":  now,
		"successCount": result.SuccessCount,
		"failureCount": result.FailureCount,
	})
}

func (d *Dispatcher) writeStatus(ctx context.Context, docID string, fields map[string]any) error {
	if err := d.store.Set(ctx, repository.NotificationQueue, docID, fields); err != nil {
		return fmt.Errorf("write notification status %s: %w", docID, err)
	}
	return nil
}
