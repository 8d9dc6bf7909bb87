package thread

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workforge/forgedesk/internal/model"
)

var t0 = time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

var roster = []model.Employee{
	{ID: "hr1", Name: "Helen", Role: "HR"},
	{ID: "alice", Name: "Alice", Role: "employee"},
	{ID: "bob", Name: "Bob", Role: "developer"},
}

func at(min int) time.Time { return t0.Add(time.Duration(min) * time.Minute) }

func TestBuild_NewEmployeeGetsSingleEmptyHRThread(t *testing.T) {
	threads := Build(model.Principal{ID: "alice", Role: "employee"}, nil, roster)

	require.Len(t, threads, 1)
	assert.Equal(t, model.HRUserID, threads[0].CounterpartID)
	assert.Equal(t, "HR Department", threads[0].Counterpart.Name)
	assert.Empty(t, threads[0].Messages)
	assert.True(t, threads[0].LastMessageTime.IsZero())
}

func TestBuild_HRSeesEveryNonHREmployee(t *testing.T) {
	threads := Build(model.Principal{ID: "hr1", Role: "HR"}, []model.Message{
		{ID: "1", SenderID: "bob", RecipientID: "hr1", Timestamp: at(5)},
	}, roster)

	require.Len(t, threads, 2)
	assert.Equal(t, "bob", threads[0].CounterpartID, "active thread first")
	assert.Equal(t, "alice", threads[1].CounterpartID)
	assert.Equal(t, "Alice", threads[1].Counterpart.Name)
	for _, th := range threads {
		assert.NotEqual(t, "hr1", th.CounterpartID)
	}
}

func TestBuild_HRWithNoEmployeesGetsNoThreads(t *testing.T) {
	threads := Build(model.Principal{ID: "hr1", Role: "HR"}, nil,
		[]model.Employee{{ID: "hr1", Role: "HR"}})
	assert.Empty(t, threads)
}

func TestBuild_PartitionIsExactAndOrdered(t *testing.T) {
	self := model.Principal{ID: "alice", Role: "employee"}
	messages := []model.Message{
		{ID: "1", SenderID: "alice", RecipientID: model.HRUserID, Timestamp: at(3)},
		{ID: "2", SenderID: model.HRUserID, RecipientID: "alice", Timestamp: at(1)},
		{ID: "3", SenderID: "bob", RecipientID: "alice", Timestamp: at(10)},
		{ID: "4", SenderID: "alice", RecipientID: "hr1", Timestamp: at(7)},
		{ID: "5", SenderID: "ghost", RecipientID: "alice"},
		{ID: "6", SenderID: "bob", RecipientID: "hr1", Timestamp: at(2)},
		{ID: "7", SenderID: "alice", RecipientID: "bob", Timestamp: at(4)},
	}

	threads := Build(self, messages, roster)

	count := map[string]int{}
	for _, th := range threads {
		for i, m := range th.Messages {
			count[m.ID]++
			if i > 0 {
				assert.False(t, m.Timestamp.Before(th.Messages[i-1].Timestamp))
			}
			assert.True(t, between(m, self.ID, th.CounterpartID))
		}
	}
	for _, m := range messages {
		if m.Involves(self.ID) {
			assert.Equal(t, 1, count[m.ID], "message %s", m.ID)
		} else {
			assert.Zero(t, count[m.ID], "message %s", m.ID)
		}
	}

	assert.Equal(t, []string{"bob", "hr1", model.HRUserID, "ghost"}, counterparts(threads))
	assert.Equal(t, []string{"2", "1"}, messageIDs(threads[2]))
	assert.Equal(t, at(10), threads[0].LastMessageTime)
	assert.Equal(t, "Unknown User", threads[3].Counterpart.Name)
	assert.Equal(t, "Unknown", threads[3].Counterpart.Role)
}

func TestBuild_MessageToSelf(t *testing.T) {
	self := model.Principal{ID: "alice", Role: "employee"}
	threads := Build(self, []model.Message{
		{ID: "1", SenderID: "alice", RecipientID: "alice", Timestamp: at(1)},
	}, roster)

	i := Find(threads, "alice")
	require.GreaterOrEqual(t, i, 0)
	assert.Equal(t, "You", threads[i].Counterpart.Name)
	assert.Len(t, threads[i].Messages, 1)
	assert.Equal(t, -1, Find(threads, "nobody"))
}

func TestUnreadTotal(t *testing.T) {
	self := model.Principal{ID: "alice", Role: "employee"}
	threads := Build(self, []model.Message{
		{ID: "1", SenderID: "bob", RecipientID: "alice"},
		{ID: "2", SenderID: model.HRUserID, RecipientID: "alice", Read: true},
		{ID: "3", SenderID: model.HRUserID, RecipientID: "alice"},
	}, roster)
	assert.Equal(t, 2, UnreadTotal(threads, "alice"))
}

func counterparts(threads []model.Thread) []string {
	out := make([]string, len(threads))
	for i, th := range threads {
		out[i] = th.CounterpartID
	}
	return out
}

func messageIDs(th model.Thread) []string {
	out := make([]string, len(th.Messages))
	for i, m := range th.Messages {
		out[i] = m.ID
	}
	return out
}
