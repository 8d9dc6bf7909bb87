package feed_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workforge/forgedesk/internal/feed"
	"github.com/workforge/forgedesk/internal/model"
	"github.com/workforge/forgedesk/internal/readstate"
	"github.com/workforge/forgedesk/internal/store"
	"github.com/workforge/forgedesk/tests/testutil"
)

type fakeBackend struct {
	marked    []string
	markedAll int
	err       error
}

func (f *fakeBackend) MarkMessageRead(_ context.Context, id string) error {
	f.marked = append(f.marked, id)
	return f.err
}

func (f *fakeBackend) MarkAllMessagesRead(context.Context) error {
	f.markedAll++
	return f.err
}

var (
	base = time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	hr   = model.Principal{ID: "hr1", Name: "Helen", Role: "HR"}
)

type fixture struct {
	svc     *feed.Service
	backend *fakeBackend
	cache   *store.SQLiteStore
	reads   readstate.Pair
	system  []model.Notification
}

func newFixture(t *testing.T, self model.Principal, messages []model.Message) *fixture {
	t.Helper()
	ctx := context.Background()

	cache := testutil.NewTestStore(t)
	require.NoError(t, cache.ReplaceMessages(ctx, messages))

	backend := &fakeBackend{}
	reads := readstate.NewKVPair(cache)
	svc := feed.NewService(reads, backend, cache, self)
	svc.SetClock(func() time.Time { return base })

	return &fixture{
		svc:     svc,
		backend: backend,
		cache:   cache,
		reads:   reads,
		system:  feed.SystemNotifications(base),
	}
}

func (f *fixture) snapshot(t *testing.T) feed.Result {
	t.Helper()
	ctx := context.Background()

	msgs, err := f.cache.GetMessages(ctx, store.MessageFilter{UserID: f.svc.Self().ID})
	require.NoError(t, err)

	res, err := f.svc.Snapshot(ctx, feed.Input{System: f.system, Messages: msgs})
	require.NoError(t, err)
	return res
}

func find(t *testing.T, res feed.Result, id string) model.Notification {
	t.Helper()
	for _, n := range res.Notifications {
		if n.ID == id {
			return n
		}
	}
	t.Fatalf("notification %s not in feed", id)
	return model.Notification{}
}

func inbound(n int) []model.Message {
	msgs := make([]model.Message, n)
	for i := range msgs {
		msgs[i] = model.Message{
			ID:          fmt.Sprintf("m%d", i+1),
			SenderID:    fmt.Sprintf("emp%d", i+1),
			RecipientID: hr.ID,
			Content:     "leave request",
			Timestamp:   base.Add(time.Duration(i) * time.Minute),
		}
	}
	return msgs
}

func TestMarkAllAsRead_HRClearsEverythingWithOneBulkCall(t *testing.T) {
	f := newFixture(t, hr, inbound(5))

	before := f.snapshot(t)
	require.Equal(t, 8, before.UnreadCount)

	require.NoError(t, f.svc.MarkAllAsRead(context.Background(), before.Notifications))

	assert.Equal(t, 1, f.backend.markedAll)
	assert.Empty(t, f.backend.marked)
	assert.Equal(t, 0, f.snapshot(t).UnreadCount)

	// Server truth took over for messages; only system entries stay local.
	local, err := f.reads.Notifications.Get(context.Background())
	require.NoError(t, err)
	assert.Len(t, local, 3)
	assert.Contains(t, local, "1")
	assert.NotContains(t, local, "msg-m1")
}

func TestMarkAllAsRead_NoUnreadMessagesSkipsServer(t *testing.T) {
	f := newFixture(t, hr, nil)

	require.NoError(t, f.svc.MarkAllAsRead(context.Background(), f.snapshot(t).Notifications))
	assert.Zero(t, f.backend.markedAll)
	assert.Zero(t, f.snapshot(t).UnreadCount)
}

func TestMarkAsRead_SystemNotificationIsLocalOnly(t *testing.T) {
	f := newFixture(t, hr, nil)

	require.NoError(t, f.svc.MarkAsRead(context.Background(), "2"))

	assert.Empty(t, f.backend.marked)
	res := f.snapshot(t)
	assert.True(t, find(t, res, "2").Read)
	assert.Equal(t, 2, res.UnreadCount)

	local, err := f.reads.Notifications.Get(context.Background())
	require.NoError(t, err)
	assert.True(t, local["2"].ReadAt.Equal(base))
}

func TestMarkAsRead_MessageSyncsServerAndEvictsLocalKey(t *testing.T) {
	f := newFixture(t, hr, inbound(2))

	require.NoError(t, f.svc.MarkAsRead(context.Background(), "msg-m1"))

	assert.Equal(t, []string{"m1"}, f.backend.marked)
	assert.True(t, find(t, f.snapshot(t), "msg-m1").Read)

	local, err := f.reads.Notifications.Get(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, local, "msg-m1")
}

func TestMarkAsRead_SurvivesStaleSnapshotWrite(t *testing.T) {
	f := newFixture(t, hr, inbound(2))
	ctx := context.Background()

	require.NoError(t, f.svc.MarkAsRead(ctx, "msg-m1"))
	require.NoError(t, f.svc.MarkAllAsRead(ctx, []model.Notification{{ID: "msg-m2"}}))

	// A sync pass that fetched before the marks writes its old flags back.
	require.NoError(t, f.cache.ReplaceMessages(ctx, inbound(2)))

	res := f.snapshot(t)
	assert.True(t, find(t, res, "msg-m1").Read)
	assert.True(t, find(t, res, "msg-m2").Read)
	assert.Equal(t, 3, res.UnreadCount)
}

func TestMarkAsRead_ServerFailureIsReturnedAndLocalReadKept(t *testing.T) {
	f := newFixture(t, hr, inbound(1))
	f.backend.err = errors.New("connection refused")

	err := f.svc.MarkAsRead(context.Background(), "msg-m1")
	require.Error(t, err)
	assert.ErrorIs(t, err, f.backend.err)

	assert.True(t, find(t, f.snapshot(t), "msg-m1").Read)
}

func TestMarkAllAsRead_ServerFailureIsReturned(t *testing.T) {
	f := newFixture(t, hr, inbound(2))
	f.backend.err = errors.New("503")

	err := f.svc.MarkAllAsRead(context.Background(), f.snapshot(t).Notifications)
	require.Error(t, err)
	assert.Equal(t, 0, f.snapshot(t).UnreadCount, "optimistic local state stays")
}

func TestReadStaysReadAcrossPasses(t *testing.T) {
	f := newFixture(t, hr, inbound(1))
	require.NoError(t, f.svc.MarkAsRead(context.Background(), "3"))

	for i := 0; i < 3; i++ {
		assert.True(t, find(t, f.snapshot(t), "3").Read)
	}
}

func TestClearRead_ResetsLocalOnlyEntries(t *testing.T) {
	msgs := inbound(2)
	msgs[1].Read = true
	f := newFixture(t, hr, msgs)
	f.backend.err = errors.New("offline")
	ctx := context.Background()

	require.NoError(t, f.svc.MarkAsRead(ctx, "1"))
	require.Error(t, f.svc.MarkAsRead(ctx, "msg-m1"))
	require.True(t, find(t, f.snapshot(t), "msg-m1").Read)

	require.NoError(t, f.svc.ClearRead(ctx))

	res := f.snapshot(t)
	assert.False(t, find(t, res, "1").Read)
	assert.False(t, find(t, res, "msg-m1").Read, "server still reports it unread")
	assert.True(t, find(t, res, "msg-m2").Read, "server flag survives clearing")

	local, err := f.reads.Notifications.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, local)
}

func TestClearRead_KeepsExplicitUnreadEntries(t *testing.T) {
	f := newFixture(t, hr, nil)
	ctx := context.Background()
	require.NoError(t, f.reads.Notifications.Set(ctx, model.ReadStatusMap{
		"1": {Read: true},
		"2": {Read: false},
	}))

	require.NoError(t, f.svc.ClearRead(ctx))

	local, err := f.reads.Notifications.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.ReadStatusMap{"2": {Read: false}}, local)
}

func TestService_WithoutCacheKeepsLocalKey(t *testing.T) {
	backend := &fakeBackend{}
	reads := readstate.NewMemoryPair()
	svc := feed.NewService(reads, backend, nil, hr)

	require.NoError(t, svc.MarkAsRead(context.Background(), "msg-x"))

	local, err := reads.Notifications.Get(context.Background())
	require.NoError(t, err)
	assert.True(t, local.IsRead("msg-x"))
}
