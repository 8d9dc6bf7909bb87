package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMessageNotificationID(t *testing.T) {
	id := MessageNotificationID("abc123")
	assert.Equal(t, "msg-abc123", id)
	assert.True(t, IsMessageNotification(id))

	raw, ok := MessageIDFromNotification(id)
	assert.True(t, ok)
	assert.Equal(t, "abc123", raw)

	_, ok = MessageIDFromNotification("reply-1")
	assert.False(t, ok)
	assert.False(t, IsMessageNotification("2"))
}

func TestIsHRRole(t *testing.T) {
	tests := []struct {
		role string
		want bool
	}{
		{"hr", true},
		{"HR", true},
		{"HR Manager", true},
		{"hr_admin", true},
		{"employee", false},
		{"Chrome Team", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			assert.Equal(t, tt.want, IsHRRole(tt.role))
		})
	}
}

func TestMessageOtherParty(t *testing.T) {
	m := Message{SenderID: "a", RecipientID: "b"}
	assert.Equal(t, "b", m.OtherParty("a"))
	assert.Equal(t, "a", m.OtherParty("b"))
	assert.True(t, m.Involves("a"))
	assert.False(t, m.Involves("c"))

	self := Message{SenderID: "a", RecipientID: "a"}
	assert.Equal(t, "a", self.OtherParty("a"))
}

func TestThreadUnread(t *testing.T) {
	th := Thread{Messages: []Message{
		{SenderID: "hr", RecipientID: "me", Read: false},
		{SenderID: "hr", RecipientID: "me", Read: true},
		{SenderID: "me", RecipientID: "hr", Read: false},
	}}
	assert.Equal(t, 1, th.Unread("me"))

	last, ok := th.LastMessage()
	assert.True(t, ok)
	assert.Equal(t, "me", last.SenderID)

	_, ok = Thread{}.LastMessage()
	assert.False(t, ok)
}

func TestReadStatusMapClone(t *testing.T) {
	orig := ReadStatusMap{"1": {Read: true, ReadAt: time.Unix(10, 0)}}
	c := orig.Clone()
	c["2"] = ReadStatus{Read: true}

	assert.Len(t, orig, 1)
	assert.True(t, c.IsRead("1"))
	assert.False(t, orig.IsRead("2"))
}

func TestFormatDisplayTime(t *testing.T) {
	assert.Equal(t, "-", FormatDisplayTime(time.Time{}))
	assert.NotEqual(t, "-", FormatDisplayTime(time.Now()))
}
