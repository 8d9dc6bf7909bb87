// Package feed merges system events, direct messages and locally sent
// replies into one notification list with an unread count, and applies
// read-state mutations on top of it.
package feed

import (
	"fmt"
	"sort"
	"time"

	"github.com/workforge/forgedesk/internal/model"
)

// Input is everything one aggregation pass looks at.
type Input struct {
	System     []model.Notification
	Replies    []model.Notification
	Messages   []model.Message
	Roster     []model.Employee
	Self       model.Principal
	ReadStatus model.ReadStatusMap
}

// Result is the aggregated feed.
type Result struct {
	Notifications []model.Notification
	UnreadCount   int
}

var epoch = time.Unix(0, 0).UTC()

// Aggregate builds the notification feed. It has no side effects and
// returns the same result for the same input.
//
// A message notification is read when either the server flag or the local
// read-status entry says so. Messages sent by the current user are skipped.
// Entries are ordered newest first; missing timestamps sort as the epoch.
func Aggregate(in Input) Result {
	roster := model.NewRoster(in.Roster)
	out := make([]model.Notification, 0, len(in.System)+len(in.Replies)+len(in.Messages))

	for _, n := range in.System {
		n.Read = in.ReadStatus.IsRead(n.ID)
		n.Time = model.FormatDisplayTime(n.Timestamp)
		out = append(out, n)
	}

	for _, n := range in.Replies {
		n.Read = in.ReadStatus.IsRead(n.ID)
		n.Time = model.FormatDisplayTime(n.Timestamp)
		out = append(out, n)
	}

	for _, m := range in.Messages {
		if in.Self.ID != "" && m.SenderID == in.Self.ID {
			continue
		}

		id := model.MessageNotificationID(m.ID)
		out = append(out, model.Notification{
			ID:        id,
			Message:   fmt.Sprintf("%s: %s", SenderName(m, roster), m.Content),
			Time:      model.FormatDisplayTime(m.Timestamp),
			Type:      model.NotificationMessage,
			Read:      m.Read || in.ReadStatus.IsRead(id),
			Timestamp: m.Timestamp,
			SourceRef: m.ID,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return sortKey(out[i].Timestamp).After(sortKey(out[j].Timestamp))
	})

	return Result{Notifications: out, UnreadCount: CountUnread(out)}
}

// CountUnread returns the number of entries whose Read flag is false.
func CountUnread(items []model.Notification) int {
	n := 0
	for _, item := range items {
		if !item.Read {
			n++
		}
	}
	return n
}

// SenderName resolves a display name for the sender of m: the embedded
// sender object first, then the roster, then the HR pseudo-user, then a
// generic label.
func SenderName(m model.Message, roster model.Roster) string {
	if m.SenderName != "" {
		return m.SenderName
	}
	if e, ok := roster[m.SenderID]; ok && e.Name != "" {
		return e.Name
	}
	if m.SenderID == model.HRUserID {
		return model.HRUserName
	}
	return model.UnknownSenderName
}

func sortKey(t time.Time) time.Time {
	if t.IsZero() {
		return epoch
	}
	return t
}
