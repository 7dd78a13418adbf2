package repository

import "fmt"

// Collection paths, mirroring the layout the PWA client reads:
//
//	users/{uid}
//	users/{uid}/fcm_tokens/{token}
//	users/{uid}/friends/{otherUid}
//	users/{uid}/secret_contacts/{otherUid}
//	public_profiles/{shareCode}
//	notification_queue/{id}
//	secret_requests/{id}
//	auth_users/{email}
const (
	Users             = "users"
	PublicProfiles    = "public_profiles"
	NotificationQueue = "notification_queue"
	SecretRequests    = "secret_requests"
	AuthUsers         = "auth_users"
)

func TokensPath(uid string) string {
	return fmt.Sprintf("users/%s/fcm_tokens", uid)
}

func FriendsPath(uid string) string {
	return fmt.Sprintf("users/%s/friends", uid)
}

func SecretContactsPath(uid string) string {
	return fmt.Sprintf("users/%s/secret_contacts", uid)
}
