package app

import (
	"context"
	"net/http"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workforge/forgedesk/internal/model"
	"github.com/workforge/forgedesk/internal/session"
	"github.com/workforge/forgedesk/internal/source/workforge"
	"github.com/workforge/forgedesk/internal/ui/command"
	configview "github.com/workforge/forgedesk/internal/ui/config"
	"github.com/workforge/forgedesk/internal/ui/notifications"
	"github.com/workforge/forgedesk/tests/testutil"
)

var t0 = time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

func newTestApp(t *testing.T) (Model, *testutil.FakeBackend) {
	t.Helper()

	fb := testutil.NewFakeBackend(t, "tok", testutil.User("emp1", "Eve", "employee"))
	fb.SetEmployees(testutil.User("hr1", "Helen", "HR"))
	fb.SetMessages(
		testutil.Msg("m1", "hr1", "emp1", "welcome aboard", t0, false),
		testutil.Msg("m2", "hr1", "emp1", "forms attached", t0.Add(time.Minute), false),
	)

	cfg := &model.AppConfig{
		Server:   model.ServerConfig{BaseURL: fb.URL(), PollIntervalSec: 3600, RequestTimeoutSec: 5},
		Database: model.DatabaseConfig{Path: ":memory:"},
	}
	opts := session.Options{ClientOptions: []workforge.Option{workforge.WithBackoff(nil)}}
	sess, err := session.Open(context.Background(), cfg, "tok", opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sess.Close() })

	require.NoError(t, sess.Poller.SyncOnce(context.Background()).Error)

	m := New(cfg, "", sess, opts)
	m = step(t, m, tea.WindowSizeMsg{Width: 120, Height: 30})
	m = step(t, m, m.reload()())
	return m, fb
}

// step feeds msg to m and returns the updated model.
func step(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

// run feeds msg to m and executes the single command it returns.
func run(t *testing.T, m Model, msg tea.Msg) (Model, tea.Msg) {
	t.Helper()
	next, cmd := m.Update(msg)
	out := next.(Model)
	if cmd == nil {
		return out, nil
	}
	return out, cmd()
}

func keyPress(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestHeaderShowsUnreadBadge(t *testing.T) {
	m, _ := newTestApp(t)

	require.NotNil(t, m.data)
	assert.Equal(t, 5, m.data.Feed.UnreadCount)
	assert.Contains(t, m.View(), "Work Forge [5 new]")
}

func TestMarkAllFromFeed(t *testing.T) {
	m, fb := newTestApp(t)

	m, msg := run(t, m, keyPress("M"))
	markAll, ok := msg.(notifications.MarkAllMsg)
	require.True(t, ok)
	assert.Len(t, markAll.Items, 5)

	m, msg = run(t, m, markAll)
	res, ok := msg.(mutationResultMsg)
	require.True(t, ok)
	require.NoError(t, res.err)
	assert.Equal(t, 1, fb.MarkAllCalls())

	m, msg = run(t, m, res)
	m = step(t, m, msg)

	assert.Equal(t, 0, m.data.Feed.UnreadCount)
	assert.NotContains(t, m.View(), "new]")
}

func TestMutationErrorIsShown(t *testing.T) {
	m, fb := newTestApp(t)
	fb.FailNext(1, http.StatusBadRequest)

	m, msg := run(t, m, notifications.MarkReadMsg{ID: "msg-m1"})
	res := msg.(mutationResultMsg)
	require.Error(t, res.err)

	m = step(t, m, res)
	line, isErr := m.statusLine()
	assert.True(t, isErr)
	assert.Contains(t, line, "mark read failed")
}

func TestReplyOpensConversation(t *testing.T) {
	m, _ := newTestApp(t)

	m = step(t, m, notifications.ReplyMsg{MessageID: "m2"})
	assert.Equal(t, ViewMessages, m.currentView)
	assert.True(t, m.messages.Composing())
	assert.Equal(t, "hr1", m.messages.SelectedCounterpart())

	// Global shortcuts are suspended while typing.
	m = step(t, m, keyPress("q"))
	assert.Equal(t, ViewMessages, m.currentView)
}

func TestCommandPalette(t *testing.T) {
	m, _ := newTestApp(t)

	m = step(t, m, keyPress(":"))
	assert.Equal(t, ViewCommand, m.currentView)

	m = step(t, m, command.CommandMsg("announcements"))
	assert.Equal(t, ViewAnnouncements, m.currentView)

	m = step(t, m, command.CommandMsg("frobnicate"))
	line, isErr := m.statusLine()
	assert.True(t, isErr)
	assert.Contains(t, line, `unknown command "frobnicate"`)

	_, cmd := m.Update(command.CommandMsg("quit"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestSignedOutStartsAtLogin(t *testing.T) {
	cfg := &model.AppConfig{Server: model.ServerConfig{BaseURL: "http://localhost:5000"}}
	m := New(cfg, "", nil, session.Options{})

	assert.Equal(t, ViewConfig, m.currentView)
	assert.Equal(t, configview.ModeForm, m.configView.Mode())

	_, cmd := m.Update(configview.ConfigDoneMsg{})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestLogoutCommand(t *testing.T) {
	m, _ := newTestApp(t)
	calls := 0
	logout = func() error { calls++; return nil }
	t.Cleanup(func() { logout = session.Logout })

	m, msg := run(t, m, command.CommandMsg("logout"))
	require.IsType(t, loggedOutMsg{}, msg)
	assert.Equal(t, 1, calls)

	m = step(t, m, msg)
	assert.Nil(t, m.Session())
	assert.Nil(t, m.data)
	assert.Equal(t, ViewConfig, m.currentView)
	assert.Contains(t, m.View(), "signed out")
}
