// Package push abstracts the external multicast push-delivery transport.
// The dispatcher only depends on Sender; the HTTP implementation lives in
// sender.go and a recording fake lives in the tests that need one.
package push

import (
	"context"
	"strings"
)

// Notification is the visible part of a push message.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Message is one multicast send: the same payload to many device tokens.
type Message struct {
	Tokens       []string          `json:"tokens"`
	Notification Notification      `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
	Link         string            `json:"link,omitempty"`
}

// SendResult is the outcome for one token, in the same order as
// Message.Tokens.
type SendResult struct {
	Success   bool   `json:"success"`
	ErrorCode string `json:"error,omitempty"`
}

// MulticastResult aggregates a send. Responses has one entry per token.
type MulticastResult struct {
	SuccessCount int          `json:"success_count"`
	FailureCount int          `json:"failure_count"`
	Responses    []SendResult `json:"results"`
}

// Sender is the external multicast send capability. A returned error means
// the send itself failed and nothing was attempted; per-token failures are
// reported inside the result instead.
type Sender interface {
	SendMulticast(ctx context.Context, msg *Message) (*MulticastResult, error)
}

// PermanentFailure reports whether a per-token error code means the
// registration is gone for good (unregistered device, malformed token) and
// the token should be pruned. Transient codes return false and the token
// stays registered for future dispatch attempts.
func PermanentFailure(code string) bool {
	return strings.Contains(code, "unregistered") ||
		strings.Contains(code, "not-registered") ||
		strings.Contains(code, "invalid-argument")
}
