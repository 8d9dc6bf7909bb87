package model

import "time"

// Thread is the conversation between the signed-in user and one
// counterpart. Threads are derived from messages and never persisted.
type Thread struct {
	CounterpartID string   `json:"counterpart_id"`
	Counterpart   Employee `json:"counterpart"`

	// Messages are ordered oldest first.
	Messages []Message `json:"messages"`

	// LastMessageTime is zero for an empty thread.
	LastMessageTime time.Time `json:"last_message_time"`
}

// Unread counts messages addressed to selfID that the server has not
// marked read.
func (t Thread) Unread(selfID string) int {
	n := 0
	for _, m := range t.Messages {
		if m.RecipientID == selfID && m.SenderID != selfID && !m.Read {
			n++
		}
	}
	return n
}

// LastMessage returns the newest message, if any.
func (t Thread) LastMessage() (Message, bool) {
	if len(t.Messages) == 0 {
		return Message{}, false
	}
	return t.Messages[len(t.Messages)-1], true
}
