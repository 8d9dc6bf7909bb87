package readstate_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workforge/forgedesk/internal/model"
	"github.com/workforge/forgedesk/internal/readstate"
	"github.com/workforge/forgedesk/tests/testutil"
)

func TestKVStore_EmptyThenRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := readstate.NewKVStore(testutil.NewTestStore(t), model.NotificationReadStatusKey)

	m, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, m)
	assert.False(t, m.IsRead("1"), "absent key means unread")

	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Set(ctx, model.ReadStatusMap{
		"1":        {Read: true, ReadAt: at},
		"msg-abc":  {Read: true, ReadAt: at},
		"reply-xy": {Read: false},
	}))

	m, err = s.Get(ctx)
	require.NoError(t, err)
	assert.Len(t, m, 3)
	assert.True(t, m.IsRead("msg-abc"))
	assert.True(t, m["1"].ReadAt.Equal(at))
	assert.False(t, m.IsRead("reply-xy"))
}

func TestKVStore_SetReplacesWholeMap(t *testing.T) {
	ctx := context.Background()
	s := readstate.NewKVStore(testutil.NewTestStore(t), "k")

	require.NoError(t, s.Set(ctx, model.ReadStatusMap{"a": {Read: true}, "b": {Read: true}}))
	require.NoError(t, s.Set(ctx, model.ReadStatusMap{"c": {Read: true}}))

	m, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, keys(m))
}

func TestKVPair_KeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	pair := readstate.NewKVPair(testutil.NewTestStore(t))

	require.NoError(t, pair.Notifications.Set(ctx, model.ReadStatusMap{"1": {Read: true}}))

	ann, err := pair.Announcements.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, ann)
}

func TestKVStore_LastWriterWins(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestStore(t)
	a := readstate.NewKVStore(db, model.NotificationReadStatusKey)
	b := readstate.NewKVStore(db, model.NotificationReadStatusKey)

	snapA, err := a.Get(ctx)
	require.NoError(t, err)
	snapB, err := b.Get(ctx)
	require.NoError(t, err)

	snapA["x"] = model.ReadStatus{Read: true}
	snapB["y"] = model.ReadStatus{Read: true}
	require.NoError(t, a.Set(ctx, snapA))
	require.NoError(t, b.Set(ctx, snapB))

	m, err := a.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"y"}, keys(m))
}

func TestMemoryStore_CopiesOnReadAndWrite(t *testing.T) {
	ctx := context.Background()
	s := readstate.NewMemory()

	in := model.ReadStatusMap{"a": {Read: true}}
	require.NoError(t, s.Set(ctx, in))
	in["b"] = model.ReadStatus{Read: true}

	got, err := s.Get(ctx)
	require.NoError(t, err)
	got["c"] = model.ReadStatus{Read: true}

	again, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, keys(again))
}

func keys(m model.ReadStatusMap) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
