package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tejari49/timeroster/internal/models"
	"github.com/tejari49/timeroster/internal/repository"
	"go.uber.org/zap"
)

// Mirror reacts to secret-request writes. When a request reaches "accepted"
// it creates one secret contact on each participant's tree in a single
// transaction, so neither side ever sees the pair half-written, and then
// retires the source record.
type Mirror struct {
	store  repository.DocumentStore
	logger *zap.Logger
}

func NewMirror(store repository.DocumentStore, logger *zap.Logger) *Mirror {
	return &Mirror{store: store, logger: logger}
}

// HandleSecretRequestWritten processes one secret_requests write event.
//
// Redelivery is a no-op: the first successful mirror deletes the source
// record, so a later delivery finds nothing and exits. Even if the deletion
// failed, re-running the two merge-sets writes identical values.
func (m *Mirror) HandleSecretRequestWritten(ctx context.Context, docID string) error {
	var request models.SecretContactRequest
	err := m.store.Get(ctx, repository.SecretRequests, docID, &request)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load secret request %s: %w", docID, err)
	}

	if request.Status != models.SecretRequestAccepted {
		return nil
	}
	if request.From == "" || request.To == "" {
		return nil
	}

	fromName := request.FromName
	if fromName == "" {
		fromName = models.NameFallback(request.From) + "…"
	}
	toName := request.ToName
	if toName == "" {
		toName = models.NameFallback(request.To) + "…"
	}

	now := time.Now().UTC()
	err = m.store.RunTransaction(ctx, func(tx repository.Tx) error {
		// Each side's contact is keyed by the other participant's id and
		// carries the other participant's name.
		if err := tx.Set(ctx, repository.SecretContactsPath(request.From), request.To, models.SecretContact{
			FriendID:   request.To,
			Name:       toName,
			AcceptedAt: now,
			Mirrored:   true,
		}); err != nil {
			return err
		}
		return tx.Set(ctx, repository.SecretContactsPath(request.To), request.From, models.SecretContact{
			FriendID:   request.From,
			Name:       fromName,
			AcceptedAt: now,
			Mirrored:   true,
		})
	})
	if err != nil {
		return fmt.Errorf("mirror secret request %s: %w", docID, err)
	}

	// Cleanup is best-effort: a leftover accepted record is harmless (the
	// next delivery mirrors the same values again), so deletion failure
	// must not fail the mirror.
	if err := m.store.Delete(ctx, repository.SecretRequests, docID); err != nil {
		m.logger.Warn("delete consumed secret request",
			zap.String("id", docID),
			zap.Error(err),
		)
	}
	return nil
}
