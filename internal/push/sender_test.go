package push

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendMulticast(t *testing.T) {
	var gotAuth string
	var gotMsg Message
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotMsg))

		json.NewEncoder(w).Encode(MulticastResult{
			SuccessCount: 1,
			FailureCount: 1,
			Responses: []SendResult{
				{Success: true},
				{Success: false, ErrorCode: "messaging/registration-token-not-registered"},
			},
		})
	}))
	defer server.Close()

	sender := NewHTTPSender(server.URL, "secret-key")
	result, err := sender.SendMulticast(context.Background(), &Message{
		Tokens:       []string{"tok-a", "tok-b"},
		Notification: Notification{Title: "Kalender aktualisiert", Body: "Es gibt neue Updates."},
		Data:         map[string]string{"type": "update"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret-key", gotAuth)
	assert.Equal(t, []string{"tok-a", "tok-b"}, gotMsg.Tokens)
	assert.Equal(t, "Kalender aktualisiert", gotMsg.Notification.Title)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 1, result.FailureCount)
	require.Len(t, result.Responses, 2)
	assert.True(t, result.Responses[0].Success)
	assert.Equal(t, "messaging/registration-token-not-registered", result.Responses[1].ErrorCode)
}

func TestSendMulticastNoAPIKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(MulticastResult{Responses: []SendResult{{Success: true}}})
	}))
	defer server.Close()

	sender := NewHTTPSender(server.URL, "")
	_, err := sender.SendMulticast(context.Background(), &Message{Tokens: []string{"tok-a"}})
	require.NoError(t, err)
}

func TestSendMulticastNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	sender := NewHTTPSender(server.URL, "")
	_, err := sender.SendMulticast(context.Background(), &Message{Tokens: []string{"tok-a"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
	assert.Contains(t, err.Error(), "upstream unavailable")
}

func TestSendMulticastCountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(MulticastResult{Responses: []SendResult{{Success: true}}})
	}))
	defer server.Close()

	sender := NewHTTPSender(server.URL, "")
	_, err := sender.SendMulticast(context.Background(), &Message{Tokens: []string{"tok-a", "tok-b"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 entries for 2 tokens")
}

func TestPermanentFailure(t *testing.T) {
	assert.True(t, PermanentFailure("messaging/registration-token-not-registered"))
	assert.True(t, PermanentFailure("messaging/invalid-argument"))
	assert.True(t, PermanentFailure("unregistered"))
	assert.False(t, PermanentFailure("messaging/internal-error"))
	assert.False(t, PermanentFailure(""))
}
