package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workforge/forgedesk/internal/model"
	"github.com/workforge/forgedesk/internal/store"
	"github.com/workforge/forgedesk/tests/testutil"
)

func TestMigrationsApplyAndReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forgedesk.db")

	s, err := store.NewSQLiteStore(path)
	require.NoError(t, err)
	v, err := s.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, 3, v)
	require.NoError(t, s.SetValue(context.Background(), "k", []byte("v")))
	require.NoError(t, s.Close())

	s, err = store.NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()

	got, ok, err := s.GetValue(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", string(got))
}

func TestMessages_ReplaceFilterAndMarkRead(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	t0 := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, s.ReplaceMessages(ctx, []model.Message{
		{ID: "m2", SenderID: "hr1", RecipientID: "alice", Content: "later", Timestamp: t0.Add(time.Hour)},
		{ID: "m1", SenderID: "alice", RecipientID: "hr1", Content: "first", Timestamp: t0, Read: true},
		{ID: "m3", SenderID: "bob", RecipientID: "hr1", Content: "no time"},
	}))

	all, err := s.GetMessages(ctx, store.MessageFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "m3", all[0].ID, "zero timestamps sort first")
	assert.True(t, all[0].Timestamp.IsZero())
	assert.Equal(t, "m1", all[1].ID)
	assert.True(t, all[1].Read)
	assert.True(t, all[2].Timestamp.Equal(t0.Add(time.Hour)))

	alice, err := s.GetMessages(ctx, store.MessageFilter{UserID: "alice"})
	require.NoError(t, err)
	assert.Len(t, alice, 2)

	unread, err := s.GetMessages(ctx, store.MessageFilter{UserID: "alice", UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, "m2", unread[0].ID)

	require.NoError(t, s.MarkMessageRead(ctx, "m2"))
	assert.Error(t, s.MarkMessageRead(ctx, "missing"))

	n, err := s.MarkMessagesRead(ctx, "hr1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	unread, err = s.GetMessages(ctx, store.MessageFilter{UnreadOnly: true})
	require.NoError(t, err)
	assert.Empty(t, unread)

	// A new snapshot drops messages the server no longer returns.
	require.NoError(t, s.ReplaceMessages(ctx, []model.Message{{ID: "m9", SenderID: "a", RecipientID: "b"}}))
	ids, err := s.GetMessageIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"m9": true}, ids)
}

func TestMessages_ReplaceKeepsCachedReadFlag(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	unread := []model.Message{
		{ID: "m1", SenderID: "hr1", RecipientID: "alice", Content: "hi"},
		{ID: "m2", SenderID: "hr1", RecipientID: "alice", Content: "again"},
	}
	require.NoError(t, s.ReplaceMessages(ctx, unread))
	require.NoError(t, s.MarkMessageRead(ctx, "m1"))

	// A snapshot taken before the mark landed still says unread.
	require.NoError(t, s.ReplaceMessages(ctx, unread))

	msgs, err := s.GetMessages(ctx, store.MessageFilter{UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "m2", msgs[0].ID)
}

func TestMessages_Upsert(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	require.NoError(t, s.UpsertMessages(ctx, []model.Message{{ID: "m1", SenderID: "a", RecipientID: "b", Content: "v1"}}))
	require.NoError(t, s.UpsertMessages(ctx, []model.Message{{ID: "m1", SenderID: "a", RecipientID: "b", Content: "v2"}}))

	msgs, err := s.GetMessages(ctx, store.MessageFilter{})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "v2", msgs[0].Content)
}

func TestEmployees_Replace(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	require.NoError(t, s.ReplaceEmployees(ctx, []model.Employee{
		{ID: "e2", Name: "Zed", Role: "employee"},
		{ID: "e1", Name: "Ann", Role: "HR"},
		{ID: "", Name: "dropped"},
	}))

	got, err := s.GetEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Ann", got[0].Name)
	assert.True(t, got[0].IsHR())
}

func TestAnnouncements_Replace(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	t0 := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, s.ReplaceAnnouncements(ctx, []model.Announcement{
		{ID: "a1", Title: "Old", CreatedAt: t0},
		{ID: "a2", Title: "New", CreatedAt: t0.Add(24 * time.Hour)},
	}))

	got, err := s.GetAnnouncements(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "New", got[0].Title)
	assert.True(t, got[1].CreatedAt.Equal(t0))
}

func TestKV_MissingAndOverwrite(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	_, ok, err := s.GetValue(ctx, "absent")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetValue(ctx, "k", []byte(`{"a":1}`)))
	require.NoError(t, s.SetValue(ctx, "k", []byte(`{"b":2}`)))

	got, ok, err := s.GetValue(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"b":2}`, string(got))
}
