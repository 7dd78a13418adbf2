package models

import "time"

// Field names follow the document layout the PWA client already reads
// (camelCase keys), so the JSON tags are the contract here, not the Go names.

// NotificationStatus is the terminal tag written onto a queued notification.
// Absence of a status means the record is still pending; once a status is
// written the record is never reprocessed.
type NotificationStatus string

const (
	NotificationInvalid  NotificationStatus = "invalid"
	NotificationNoTokens NotificationStatus = "no_tokens"
	NotificationSent     NotificationStatus = "sent"
)

// EdgeStatus is one side's view of a friendship. The two edges of a pair
// always carry complementary values: pending_sent on the initiator implies
// pending_received on the recipient, and both flip to accepted together.
type EdgeStatus string

const (
	EdgePendingSent     EdgeStatus = "pending_sent"
	EdgePendingReceived EdgeStatus = "pending_received"
	EdgeAccepted        EdgeStatus = "accepted"
)

// SecretRequestStatus tags a secret-chat request. Only "accepted" triggers
// mirroring; the record is deleted after a successful mirror.
type SecretRequestStatus string

const (
	SecretRequestPending  SecretRequestStatus = "pending"
	SecretRequestAccepted SecretRequestStatus = "accepted"
	SecretRequestDeclined SecretRequestStatus = "declined"
)

// Profile is the private document at users/{uid}.
type Profile struct {
	Name      string    `json:"name,omitempty"`
	ShareCode string    `json:"shareCode,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// PublicProfile maps a share code back to a user, at public_profiles/{code}.
type PublicProfile struct {
	UserID    string    `json:"userId"`
	Name      string    `json:"name,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// PushToken lives at users/{uid}/fcm_tokens/{token}. The document id is the
// token itself; the field is optional and wins over the id when present.
type PushToken struct {
	Token     string    `json:"token,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// QueuedNotification is a write-once dispatch intent at notification_queue/{id}.
type QueuedNotification struct {
	RecipientUserID string             `json:"recipientUserId,omitempty"`
	Data            map[string]string  `json:"data,omitempty"`
	Status          NotificationStatus `json:"status,omitempty"`
	Error           string             `json:"error,omitempty"`
	ProcessedAt     *time.Time         `json:"processedAt,omitempty"`
	SuccessCount    int                `json:"successCount,omitempty"`
	FailureCount    int                `json:"failureCount,omitempty"`
	CreatedAt       time.Time          `json:"createdAt,omitempty"`
}

// FriendEdge is one user's record of a friendship, at users/{uid}/friends/{other}.
type FriendEdge struct {
	Status     EdgeStatus `json:"status"`
	ShareCode  string     `json:"shareCode,omitempty"`
	Name       string     `json:"name,omitempty"`
	CreatedAt  time.Time  `json:"createdAt,omitempty"`
	AcceptedAt *time.Time `json:"acceptedAt,omitempty"`
}

// SecretContactRequest is the transient record at secret_requests/{id}.
type SecretContactRequest struct {
	From      string              `json:"from"`
	To        string              `json:"to"`
	FromName  string              `json:"fromName,omitempty"`
	ToName    string              `json:"toName,omitempty"`
	Status    SecretRequestStatus `json:"status"`
	CreatedAt time.Time           `json:"createdAt,omitempty"`
}

// SecretContact is one mirrored side of an accepted secret request, at
// users/{uid}/secret_contacts/{other}. Only the mirror writes these.
type SecretContact struct {
	FriendID   string    `json:"friendId"`
	Name       string    `json:"name,omitempty"`
	AcceptedAt time.Time `json:"acceptedAt"`
	Mirrored   bool      `json:"mirrored"`
}

// AuthUser backs signup/login, at auth_users/{email}. Profiles never carry
// credentials; this collection is read only by the auth handlers.
type AuthUser struct {
	UserID       string    `json:"userId"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt,omitempty"`
}

// NameFallback derives a display name from an id when none was supplied:
// the first six characters of the id.
func NameFallback(uid string) string {
	if len(uid) > 6 {
		return uid[:6]
	}
	return uid
}
