package entity

import "time"

// User is a read-only projection from the user directory. This service never
// writes user documents.
type User struct {
	ID          string    `json:"id" firestore:"id"`
	DisplayName string    `json:"display_name" firestore:"displayName"`
	AvatarRef   string    `json:"avatar_ref,omitempty" firestore:"avatarRef,omitempty"`
	CreatedAt   time.Time `json:"created_at" firestore:"createdAt"`
}
