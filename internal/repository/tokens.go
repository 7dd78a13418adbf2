package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tejari49/timeroster/internal/models"
)

// TokenRegistry is the per-user push-token collection. It is a thin view
// over the document store: tokens live at users/{uid}/fcm_tokens/{token}.
type TokenRegistry struct {
	store DocumentStore
}

func NewTokenRegistry(store DocumentStore) *TokenRegistry {
	return &TokenRegistry{store: store}
}

// List returns the recipient's registered tokens. A document's token field
// wins over its id; documents with neither are skipped.
func (r *TokenRegistry) List(ctx context.Context, uid string) ([]string, error) {
	docs, err := r.store.List(ctx, TokensPath(uid))
	if err != nil {
		return nil, fmt.Errorf("list tokens for %s: %w", uid, err)
	}

	tokens := make([]string, 0, len(docs))
	for _, doc := range docs {
		var record models.PushToken
		if err := json.Unmarshal(doc.Data, &record); err != nil {
			return nil, fmt.Errorf("decode token %s: %w", doc.ID, err)
		}
		token := record.Token
		if token == "" {
			token = doc.ID
		}
		if token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens, nil
}

// DeleteBatch removes permanently-invalid tokens in one batched write.
func (r *TokenRegistry) DeleteBatch(ctx context.Context, uid string, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	if err := r.store.BatchDelete(ctx, TokensPath(uid), tokens); err != nil {
		return fmt.Errorf("delete tokens for %s: %w", uid, err)
	}
	return nil
}
