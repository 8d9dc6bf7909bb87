package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/workforge/forgedesk/internal/model"
)

// AuthError indicates that authentication has failed or expired.
// It is returned by backend clients when a 401 response is received.
type AuthError struct {
	Service string
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%s): %s", e.Service, e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// Snapshot is everything one refresh pass fetches.
type Snapshot struct {
	Messages      []model.Message
	Employees     []model.Employee
	Announcements []model.Announcement
	FetchedAt     time.Time
}

// Backend is the Work Forge API surface the client depends on.
type Backend interface {
	// ValidateConnection verifies credentials and connectivity.
	// Returns a human-readable status message on success.
	ValidateConnection(ctx context.Context) (string, error)

	// CurrentUser returns the profile of the token's owner.
	CurrentUser(ctx context.Context) (*model.Principal, error)

	// Fetch retrieves messages, roster and announcements in one pass.
	Fetch(ctx context.Context) (*Snapshot, error)

	ListMessages(ctx context.Context) ([]model.Message, error)
	ListEmployees(ctx context.Context) ([]model.Employee, error)
	ListAnnouncements(ctx context.Context) ([]model.Announcement, error)

	// SendMessage posts a direct message and returns it as stored.
	SendMessage(ctx context.Context, recipientID, content string) (model.Message, error)

	MarkMessageRead(ctx context.Context, messageID string) error
	MarkAllMessagesRead(ctx context.Context) error
}
