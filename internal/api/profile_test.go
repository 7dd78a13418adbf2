package api

import (
	"context"
	"errors"
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

func profileRouter(store repository.DocumentStore, uid string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewProfileHandler(store, zap.NewNop())
	r := gin.New()
	r.Use(asUser(uid, ""))
	r.POST("/profile", h.Update)
	return r
}

func TestUpdateProfileWritesPublicMapping(t *testing.T) {
	store := memory.New()

	rec := doJSON(t, profileRouter(store, "u1"), http.MethodPost, "/profile", gin.H{
		"name":      "Ana",
		"shareCode": "ABC123",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var profile models.Profile
	require.NoError(t, store.Get(context.Background(), repository.Users, "u1", &profile))
	assert.Equal(t, "Ana", profile.Name)
	assert.Equal(t, "ABC123", profile.ShareCode)

	var public models.PublicProfile
	require.NoError(t, store.Get(context.Background(), repository.PublicProfiles, "ABC123", &public))
	assert.Equal(t, "u1", public.UserID)
	assert.Equal(t, "Ana", public.Name)
}

func TestUpdateProfileNameDefault(t *testing.T) {
	store := memory.New()

	rec := doJSON(t, profileRouter(store, "user-with-long-id"), http.MethodPost, "/profile", gin.H{
		"shareCode": "ZZZ999",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var public models.PublicProfile
	require.NoError(t, store.Get(context.Background(), repository.PublicProfiles, "ZZZ999", &public))
	assert.Equal(t, "user-w", public.Name)
}

func TestUpdateProfileRetractsPreviousShareCode(t *testing.T) {
	store := memory.New()
	router := profileRouter(store, "u1")

	rec := doJSON(t, router, http.MethodPost, "/profile", gin.H{"name": "Ana", "shareCode": "OLD111"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, router, http.MethodPost, "/profile", gin.H{"name": "Ana", "shareCode": "NEW222"})
	require.Equal(t, http.StatusOK, rec.Code)

	// The old code no longer resolves; exactly one mapping is live.
	var public models.PublicProfile
	err := store.Get(context.Background(), repository.PublicProfiles, "OLD111", &public)
	assert.True(t, errors.Is(err, repository.ErrNotFound))

	require.NoError(t, store.Get(context.Background(), repository.PublicProfiles, "NEW222", &public))
	assert.Equal(t, "u1", public.UserID)
}

func TestUpdateProfileNameOnlyKeepsShareCode(t *testing.T) {
	store := memory.New()
	router := profileRouter(store, "u1")

	rec := doJSON(t, router, http.MethodPost, "/profile", gin.H{"name": "Ana", "shareCode": "ABC123"})
	require.Equal(t, http.StatusOK, rec.Code)

	// A name-only edit must not retract the live mapping or the stored code.
	rec = doJSON(t, router, http.MethodPost, "/profile", gin.H{"name": "Anna"})
	require.Equal(t, http.StatusOK, rec.Code)

	var profile models.Profile
	require.NoError(t, store.Get(context.Background(), repository.Users, "u1", &profile))
	assert.Equal(t, "Anna", profile.Name)
	assert.Equal(t, "ABC123", profile.ShareCode)

	var public models.PublicProfile
	require.NoError(t, store.Get(context.Background(), repository.PublicProfiles, "ABC123", &public))
	assert.Equal(t, "u1", public.UserID)
}

func TestUpdateProfileWithoutShareCode(t *testing.T) {
	store := memory.New()

	rec := doJSON(t, profileRouter(store, "u1"), http.MethodPost, "/profile", gin.H{"name": "Ana"})
	require.Equal(t, http.StatusOK, rec.Code)

	// No public mapping is created for an empty share code.
	docs, err := store.List(context.Background(), repository.PublicProfiles)
	require.NoError(t, err)
	assert.Empty(t, docs)
}
