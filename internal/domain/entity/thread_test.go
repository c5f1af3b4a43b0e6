package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestThreadIDForIsOrderIndependent(t *testing.T) {
	pairs := [][2]string{
		{"alice", "bob"},
		{"u_1000", "u_0999"},
		{"zz", "aa"},
		{"same", "same"},
	}

	for _, pair := range pairs {
		assert.Equal(t, ThreadIDFor(pair[0], pair[1]), ThreadIDFor(pair[1], pair[0]))
	}
}

func TestThreadIDForIsDeterministic(t *testing.T) {
	assert.Equal(t, "alice_bob", ThreadIDFor("bob", "alice"))
	assert.Equal(t, "alice_bob", ThreadIDFor("alice", "bob"))
}

func TestThreadIDForSelfPair(t *testing.T) {
	// A self conversation is a defined id, not an error.
	assert.Equal(t, "me_me", ThreadIDFor("me", "me"))
}

func TestCounterpartID(t *testing.T) {
	thread := &ConversationThread{ParticipantIDs: []string{"alice", "bob"}}

	assert.Equal(t, "bob", thread.CounterpartID("alice"))
	assert.Equal(t, "alice", thread.CounterpartID("bob"))

	self := &ConversationThread{ParticipantIDs: []string{"me", "me"}}
	assert.Equal(t, "me", self.CounterpartID("me"))
}

func TestHasParticipant(t *testing.T) {
	thread := &ConversationThread{ParticipantIDs: []string{"alice", "bob"}}

	assert.True(t, thread.HasParticipant("alice"))
	assert.False(t, thread.HasParticipant("carol"))
}

func TestSortMessagesOrdersBySentAt(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	messages := []*Message{
		{ID: "c", SentAt: base.Add(2 * time.Second)},
		{ID: "a", SentAt: base},
		{ID: "b", SentAt: base.Add(time.Second)},
	}

	SortMessages(messages)

	assert.Equal(t, "a", messages[0].ID)
	assert.Equal(t, "b", messages[1].ID)
	assert.Equal(t, "c", messages[2].ID)
}

func TestSortMessagesBreaksTiesByID(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	messages := []*Message{
		{ID: "m2", SentAt: at},
		{ID: "m1", SentAt: at},
	}

	SortMessages(messages)

	assert.Equal(t, "m1", messages[0].ID)
	assert.Equal(t, "m2", messages[1].ID)
}

func TestMarkOwnership(t *testing.T) {
	messages := []*Message{
		{ID: "1", SenderID: "alice"},
		{ID: "2", SenderID: "bob"},
	}

	MarkOwnership(messages, "alice")

	assert.True(t, messages[0].IsFromCurrentUser)
	assert.False(t, messages[1].IsFromCurrentUser)
}
