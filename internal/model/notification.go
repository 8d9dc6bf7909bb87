package model

import (
	"strings"
	"time"
)

// NotificationType classifies a feed entry by the portal area it came from.
type NotificationType string

const (
	NotificationTask    NotificationType = "task"
	NotificationIssue   NotificationType = "issue"
	NotificationProject NotificationType = "project"
	NotificationMessage NotificationType = "message"
	NotificationSystem  NotificationType = "system"
)

// Prefixes used to build source-qualified notification IDs.
const (
	MessageNotificationPrefix = "msg-"
	ReplyNotificationPrefix   = "reply-"
)

// Notification is a single entry in the aggregated feed. It is rebuilt on
// every aggregation pass; only its read bit is persisted, keyed by ID.
type Notification struct {
	// ID is source-qualified: "msg-<message id>", "reply-<uuid>", or a
	// fixed system id.
	ID string `json:"id"`

	// Message is the human-readable notification text.
	Message string `json:"message"`

	// Time is the display form of Timestamp.
	Time string `json:"time"`

	Type NotificationType `json:"type"`

	// Read is the effective read state after merging server and local flags.
	Read bool `json:"read"`

	// Timestamp orders the feed. The zero value sorts as the oldest entry.
	Timestamp time.Time `json:"timestamp"`

	// SourceRef is the backing message ID for message notifications.
	SourceRef string `json:"source_ref,omitempty"`
}

// MessageNotificationID returns the feed ID for a backend message.
func MessageNotificationID(messageID string) string {
	return MessageNotificationPrefix + messageID
}

// IsMessageNotification reports whether id was derived from a backend message.
func IsMessageNotification(id string) bool {
	return strings.HasPrefix(id, MessageNotificationPrefix)
}

// MessageIDFromNotification strips the message prefix from a feed ID.
// The second return value is false when id is not message-derived.
func MessageIDFromNotification(id string) (string, bool) {
	if !IsMessageNotification(id) {
		return "", false
	}
	return strings.TrimPrefix(id, MessageNotificationPrefix), true
}

// FormatDisplayTime renders a feed timestamp for list display.
func FormatDisplayTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("Jan 02 15:04")
}
