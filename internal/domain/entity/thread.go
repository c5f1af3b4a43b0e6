package entity

import (
	"sort"
	"strings"
	"time"
)

// ThreadIDSeparator joins the two participant ids inside a thread id.
// Firebase uids never contain underscores.
const ThreadIDSeparator = "_"

type ConversationThread struct {
	ID             string    `json:"id" firestore:"id"`
	ParticipantIDs []string  `json:"participant_ids" firestore:"participantIds"`
	LastMessage    string    `json:"last_message,omitempty" firestore:"lastMessage,omitempty"`
	LastMessageAt  time.Time `json:"last_message_at" firestore:"lastMessageAt"`
	CreatedAt      time.Time `json:"created_at" firestore:"createdAt"`

	// Hydrated from the user directory, never persisted on the thread doc.
	Participants []*User `json:"participants,omitempty" firestore:"-"`

	// Loaded separately; a live view sees a suffix, a preview only the
	// latest message.
	Messages []*Message `json:"messages,omitempty" firestore:"-"`
}

// ThreadIDFor derives the conversation id for a pair of participants. The id
// is a pure function of the two uids and does not depend on their order, so
// both sides of a conversation resolve the same document. A self pair is
// still a defined id.
func ThreadIDFor(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return strings.Join(ids, ThreadIDSeparator)
}

// CounterpartID returns the participant that is not the viewer. Falls back to
// the viewer's own id for a self conversation.
func (t *ConversationThread) CounterpartID(viewerID string) string {
	for _, id := range t.ParticipantIDs {
		if id != viewerID {
			return id
		}
	}
	return viewerID
}

// HasParticipant reports whether uid is part of this thread.
func (t *ConversationThread) HasParticipant(uid string) bool {
	for _, id := range t.ParticipantIDs {
		if id == uid {
			return true
		}
	}
	return false
}
