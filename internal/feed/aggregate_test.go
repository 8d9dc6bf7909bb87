package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workforge/forgedesk/internal/model"
)

var base = time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

func TestAggregate_NewEmployeeSeesSystemEventsOnly(t *testing.T) {
	res := Aggregate(Input{
		System:     SystemNotifications(base),
		Self:       model.Principal{ID: "alice", Role: "employee"},
		ReadStatus: model.ReadStatusMap{},
	})

	require.Len(t, res.Notifications, 3)
	assert.Equal(t, 3, res.UnreadCount)
	assert.Equal(t, []string{"1", "2", "3"}, ids(res.Notifications))
	assert.Equal(t, model.NotificationTask, res.Notifications[0].Type)
	assert.Equal(t, model.NotificationIssue, res.Notifications[1].Type)
	assert.Equal(t, model.NotificationProject, res.Notifications[2].Type)
}

func TestAggregate_UnreadCountMatchesEntries(t *testing.T) {
	res := Aggregate(Input{
		System: SystemNotifications(base),
		Messages: []model.Message{
			{ID: "a", SenderID: "bob", RecipientID: "alice", Timestamp: base, Read: true},
			{ID: "b", SenderID: "bob", RecipientID: "alice", Timestamp: base.Add(time.Minute)},
			{ID: "c", SenderID: "carol", RecipientID: "alice"},
		},
		Self:       model.Principal{ID: "alice"},
		ReadStatus: model.ReadStatusMap{"2": {Read: true}, "msg-c": {Read: true}},
	})

	require.Len(t, res.Notifications, 6)
	unread := 0
	for _, n := range res.Notifications {
		if !n.Read {
			unread++
		}
	}
	assert.Equal(t, unread, res.UnreadCount)
	assert.Equal(t, 3, res.UnreadCount)
}

func TestAggregate_ExcludesOwnMessages(t *testing.T) {
	res := Aggregate(Input{
		Messages: []model.Message{
			{ID: "mine", SenderID: "alice", RecipientID: model.HRUserID, Timestamp: base},
			{ID: "theirs", SenderID: model.HRUserID, RecipientID: "alice", Timestamp: base},
		},
		Self: model.Principal{ID: "alice"},
	})

	require.Len(t, res.Notifications, 1)
	assert.Equal(t, "msg-theirs", res.Notifications[0].ID)
	assert.Equal(t, "theirs", res.Notifications[0].SourceRef)
	assert.Equal(t, "HR Department: ", res.Notifications[0].Message)
}

func TestAggregate_SortsNewestFirstWithMissingTimestampsLast(t *testing.T) {
	res := Aggregate(Input{
		System: SystemNotifications(base),
		Replies: []model.Notification{
			{ID: "reply-x", Type: model.NotificationMessage, Timestamp: base.Add(time.Hour)},
		},
		Messages: []model.Message{
			{ID: "old", SenderID: "bob", RecipientID: "alice", Timestamp: base.Add(-48 * time.Hour)},
			{ID: "none", SenderID: "bob", RecipientID: "alice"},
			{ID: "new", SenderID: "bob", RecipientID: "alice", Timestamp: base.Add(time.Minute)},
		},
		Self: model.Principal{ID: "alice"},
	})

	assert.Equal(t,
		[]string{"reply-x", "msg-new", "1", "2", "3", "msg-old", "msg-none"},
		ids(res.Notifications),
	)
	for i := 1; i < len(res.Notifications); i++ {
		prev := sortKey(res.Notifications[i-1].Timestamp)
		cur := sortKey(res.Notifications[i].Timestamp)
		assert.False(t, cur.After(prev), "entry %d is newer than entry %d", i, i-1)
	}
	assert.Equal(t, "-", res.Notifications[len(res.Notifications)-1].Time)
}

func TestAggregate_IsIdempotent(t *testing.T) {
	in := Input{
		System: SystemNotifications(base),
		Messages: []model.Message{
			{ID: "1", SenderID: "bob", RecipientID: "alice", Timestamp: base},
			{ID: "2", SenderID: "bob", RecipientID: "alice", Timestamp: base},
		},
		Roster:     []model.Employee{{ID: "bob", Name: "Bob"}},
		Self:       model.Principal{ID: "alice"},
		ReadStatus: model.ReadStatusMap{"msg-1": {Read: true}},
	}

	assert.Equal(t, Aggregate(in), Aggregate(in))
}

func TestAggregate_ReadIsServerOrLocal(t *testing.T) {
	res := Aggregate(Input{
		Messages: []model.Message{
			{ID: "server", SenderID: "bob", RecipientID: "alice", Read: true},
			{ID: "local", SenderID: "bob", RecipientID: "alice"},
			{ID: "neither", SenderID: "bob", RecipientID: "alice"},
		},
		Self:       model.Principal{ID: "alice"},
		ReadStatus: model.ReadStatusMap{"msg-local": {Read: true}, "msg-neither": {Read: false}},
	})

	got := map[string]bool{}
	for _, n := range res.Notifications {
		got[n.ID] = n.Read
	}
	assert.Equal(t, map[string]bool{"msg-server": true, "msg-local": true, "msg-neither": false}, got)
	assert.Equal(t, 1, res.UnreadCount)
}

func TestSenderName_Resolution(t *testing.T) {
	roster := model.NewRoster([]model.Employee{{ID: "bob", Name: "Bob Stone"}})

	tests := []struct {
		name string
		msg  model.Message
		want string
	}{
		{"embedded sender wins", model.Message{SenderID: "bob", SenderName: "Robert"}, "Robert"},
		{"roster lookup", model.Message{SenderID: "bob"}, "Bob Stone"},
		{"hr pseudo-user", model.Message{SenderID: model.HRUserID}, "HR Department"},
		{"unknown", model.Message{SenderID: "ghost"}, "Unknown Sender"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SenderName(tt.msg, roster))
		})
	}
}

func TestNewReply(t *testing.T) {
	r := NewReply("HR Department", "thanks!", base)
	assert.Regexp(t, `^reply-[0-9a-f-]{36}$`, r.ID)
	assert.Equal(t, "You replied to HR Department: thanks!", r.Message)
	assert.False(t, r.Read)

	other := NewReply("HR Department", "thanks!", base)
	assert.NotEqual(t, r.ID, other.ID)
}

func ids(items []model.Notification) []string {
	out := make([]string, len(items))
	for i, n := range items {
		out[i] = n.ID
	}
	return out
}
