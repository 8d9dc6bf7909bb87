package store

import (
	"context"

	"github.com/workforge/forgedesk/internal/model"
)

// MessageFilter narrows message queries.
type MessageFilter struct {
	// UserID keeps only messages sent or received by this user.
	UserID string

	// UnreadOnly keeps only messages the server has not marked read.
	UnreadOnly bool
}

// Store defines the local cache of Work Forge data plus a small key/value
// table for client-side state such as read-status maps.
type Store interface {
	// === Roster ===

	ReplaceEmployees(ctx context.Context, employees []model.Employee) error
	GetEmployees(ctx context.Context) ([]model.Employee, error)

	// === Messages ===

	ReplaceMessages(ctx context.Context, messages []model.Message) error
	UpsertMessages(ctx context.Context, messages []model.Message) error
	GetMessages(ctx context.Context, filter MessageFilter) ([]model.Message, error)
	GetMessageIDs(ctx context.Context) (map[string]bool, error)
	MarkMessageRead(ctx context.Context, id string) error
	MarkMessagesRead(ctx context.Context, recipientID string) (int64, error)

	// === Announcements ===

	ReplaceAnnouncements(ctx context.Context, items []model.Announcement) error
	GetAnnouncements(ctx context.Context) ([]model.Announcement, error)

	// === Key/value ===

	GetValue(ctx context.Context, key string) ([]byte, bool, error)
	SetValue(ctx context.Context, key string, value []byte) error
}
