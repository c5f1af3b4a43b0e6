package entity

import (
	"sort"
	"time"
)

type Message struct {
	ID       string    `json:"id" firestore:"id"`
	ThreadID string    `json:"thread_id" firestore:"threadId"`
	SenderID string    `json:"sender_id" firestore:"senderId"`
	Body     string    `json:"body" firestore:"body"`
	SentAt   time.Time `json:"sent_at" firestore:"sentAt,serverTimestamp"`

	// Derived per viewer, never persisted.
	IsFromCurrentUser bool `json:"is_from_current_user,omitempty" firestore:"-"`
}

// MarkOwnership sets the viewer-local flag on each message.
func MarkOwnership(messages []*Message, viewerID string) {
	for _, m := range messages {
		m.IsFromCurrentUser = m.SenderID == viewerID
	}
}

// SortMessages orders messages by server timestamp, oldest first. Ties are
// broken by message id so iteration order stays stable when two messages
// share a timestamp.
func SortMessages(messages []*Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		if messages[i].SentAt.Equal(messages[j].SentAt) {
			return messages[i].ID < messages[j].ID
		}
		return messages[i].SentAt.Before(messages[j].SentAt)
	})
}
