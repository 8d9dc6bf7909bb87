package model

import "time"

// Message is a direct message between two portal users, as cached from
// the backend.
type Message struct {
	ID string `json:"id"`

	SenderID string `json:"sender_id"`

	// SenderName and SenderRole are set only when the backend embedded the
	// sender object in the payload.
	SenderName string `json:"sender_name,omitempty"`
	SenderRole string `json:"sender_role,omitempty"`

	RecipientID string `json:"recipient_id"`
	Content     string `json:"content"`

	// Timestamp is zero when the backend omitted it or sent an
	// unparseable value.
	Timestamp time.Time `json:"timestamp"`

	// Read is the server-side read flag.
	Read bool `json:"read"`
}

// Involves reports whether userID is the sender or the recipient.
func (m Message) Involves(userID string) bool {
	return m.SenderID == userID || m.RecipientID == userID
}

// OtherParty returns the participant that is not userID. For a message
// addressed to oneself it returns userID.
func (m Message) OtherParty(userID string) string {
	if m.SenderID == userID {
		return m.RecipientID
	}
	return m.SenderID
}
