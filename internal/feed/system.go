package feed

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/workforge/forgedesk/internal/model"
)

// SystemNotifications returns the three built-in portal events, stamped
// relative to base. Callers capture base once so the set stays constant
// for the life of the process.
func SystemNotifications(base time.Time) []model.Notification {
	return []model.Notification{
		{
			ID:        "1",
			Message:   "New task assigned: Review onboarding checklist",
			Type:      model.NotificationTask,
			Timestamp: base.Add(-5 * time.Minute),
		},
		{
			ID:        "2",
			Message:   "Issue reported: Timesheet export fails for March",
			Type:      model.NotificationIssue,
			Timestamp: base.Add(-1 * time.Hour),
		},
		{
			ID:        "3",
			Message:   "Project deadline approaching: Q3 Payroll Migration",
			Type:      model.NotificationProject,
			Timestamp: base.Add(-24 * time.Hour),
		},
	}
}

// NewReply records a reply the user just sent as a feed entry. Reply
// entries exist only in memory.
func NewReply(recipientName, content string, at time.Time) model.Notification {
	return model.Notification{
		ID:        model.ReplyNotificationPrefix + uuid.New().String(),
		Message:   fmt.Sprintf("You replied to %s: %s", recipientName, content),
		Type:      model.NotificationMessage,
		Timestamp: at,
	}
}
