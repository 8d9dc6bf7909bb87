// Package thread partitions a user's direct messages into one
// conversation per counterpart.
package thread

import (
	"sort"

	"github.com/workforge/forgedesk/internal/model"
)

// Build returns the conversations of self, most recently active first.
//
// Non-HR users always get a conversation with the HR pseudo-user; HR users
// get one with every non-HR employee on the roster. Any other party self
// has exchanged messages with is added after those. Every message that
// involves self lands in exactly one thread, oldest first.
func Build(self model.Principal, messages []model.Message, roster []model.Employee) []model.Thread {
	index := model.NewRoster(roster)
	counterparts := candidates(self, messages, roster)

	threads := make([]model.Thread, 0, len(counterparts))
	for _, cp := range counterparts {
		var conv []model.Message
		for _, m := range messages {
			if between(m, self.ID, cp) {
				conv = append(conv, m)
			}
		}
		sort.SliceStable(conv, func(i, j int) bool {
			return conv[i].Timestamp.Before(conv[j].Timestamp)
		})

		t := model.Thread{
			CounterpartID: cp,
			Counterpart:   Resolve(self, cp, index),
			Messages:      conv,
		}
		if last, ok := t.LastMessage(); ok {
			t.LastMessageTime = last.Timestamp
		}
		threads = append(threads, t)
	}

	sort.SliceStable(threads, func(i, j int) bool {
		return threads[i].LastMessageTime.After(threads[j].LastMessageTime)
	})

	if len(threads) == 0 && !self.IsHR() {
		threads = append(threads, model.Thread{
			CounterpartID: model.HRUserID,
			Counterpart:   model.HREmployee(),
		})
	}

	return threads
}

// candidates lists counterpart IDs in first-seen order without duplicates.
func candidates(self model.Principal, messages []model.Message, roster []model.Employee) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(id string) {
		if id == "" || seen[id] {
			return
		}
		seen[id] = true
		out = append(out, id)
	}

	if self.IsHR() {
		for _, e := range roster {
			if e.ID != self.ID && !e.IsHR() {
				add(e.ID)
			}
		}
	} else {
		add(model.HRUserID)
	}

	for _, m := range messages {
		if m.Involves(self.ID) {
			add(m.OtherParty(self.ID))
		}
	}

	return out
}

func between(m model.Message, self, counterpart string) bool {
	return (m.SenderID == self && m.RecipientID == counterpart) ||
		(m.SenderID == counterpart && m.RecipientID == self)
}

// Resolve returns the display identity for a counterpart ID.
func Resolve(self model.Principal, id string, roster model.Roster) model.Employee {
	switch {
	case id == self.ID:
		return model.Employee{ID: id, Name: model.SelfDisplayName, Role: self.Role}
	case id == model.HRUserID:
		return model.HREmployee()
	}
	if e, ok := roster[id]; ok {
		if e.Name == "" {
			e.Name = model.UnknownUserName
		}
		return e
	}
	return model.Employee{ID: id, Name: model.UnknownUserName, Role: model.UnknownUserRole}
}

// Find returns the index of the thread with counterpartID, or -1.
func Find(threads []model.Thread, counterpartID string) int {
	for i, t := range threads {
		if t.CounterpartID == counterpartID {
			return i
		}
	}
	return -1
}

// UnreadTotal sums unread inbound messages across threads.
func UnreadTotal(threads []model.Thread, selfID string) int {
	n := 0
	for _, t := range threads {
		n += t.Unread(selfID)
	}
	return n
}
