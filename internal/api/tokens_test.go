package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tejari49/timeroster/internal/models"
	"github.com/tejari49/timeroster/internal/repository"
	"github.com/tejari49/timeroster/internal/repository/memory"
	"go.uber.org/zap"
)

func tokensRouter(store repository.DocumentStore, uid string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewTokensHandler(store, zap.NewNop())
	r := gin.New()
	r.Use(asUser(uid, ""))
	r.PUT("/push/tokens", h.Register)
	r.DELETE("/push/tokens/:token", h.Unregister)
	return r
}

func TestRegisterToken(t *testing.T) {
	store := memory.New()

	rec := doJSON(t, tokensRouter(store, "u1"), http.MethodPut, "/push/tokens", gin.H{"token": "tok-a"})
	require.Equal(t, http.StatusOK, rec.Code)

	var record models.PushToken
	require.NoError(t, store.Get(context.Background(), repository.TokensPath("u1"), "tok-a", &record))
	assert.Equal(t, "tok-a", record.Token)
	assert.False(t, record.CreatedAt.IsZero())
}

func TestRegisterTokenIsIdempotent(t *testing.T) {
	store := memory.New()
	router := tokensRouter(store, "u1")

	require.Equal(t, http.StatusOK, doJSON(t, router, http.MethodPut, "/push/tokens", gin.H{"token": "tok-a"}).Code)
	require.Equal(t, http.StatusOK, doJSON(t, router, http.MethodPut, "/push/tokens", gin.H{"token": "tok-a"}).Code)

	registry := repository.NewTokenRegistry(store)
	tokens, err := registry.List(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"tok-a"}, tokens)
}

func TestRegisterTokenEmpty(t *testing.T) {
	rec := doJSON(t, tokensRouter(memory.New(), "u1"), http.MethodPut, "/push/tokens", gin.H{"token": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnregisterToken(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, repository.TokensPath("u1"), "tok-a", models.PushToken{Token: "tok-a"}))

	rec := doJSON(t, tokensRouter(store, "u1"), http.MethodDelete, "/push/tokens/tok-a", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var record models.PushToken
	err := store.Get(ctx, repository.TokensPath("u1"), "tok-a", &record)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestTokensUnauthenticated(t *testing.T) {
	rec := doJSON(t, tokensRouter(memory.New(), ""), http.MethodPut, "/push/tokens", gin.H{"token": "tok-a"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
