package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/workforge/forgedesk/internal/credential"
	"github.com/workforge/forgedesk/internal/logging"
	"github.com/workforge/forgedesk/internal/session"
)

// openTimeout bounds identifying the user when a session is opened.
const openTimeout = 30 * time.Second

// tokenSource and logout are replaced in tests.
var (
	tokenSource = credential.Token
	logout      = session.Logout
)

// sessionOpenedMsg is sent when a session has been opened after sign-in.
type sessionOpenedMsg struct {
	sess *session.Session
	err  error
}

// openSession reads the stored token and opens a session with it.
func (m Model) openSession() tea.Cmd {
	cfg := m.cfg
	opts := m.opts

	return func() tea.Msg {
		token, err := tokenSource()
		if err != nil {
			logging.WithComponent("app").WithError(err).Warn("no stored token")
			return sessionOpenedMsg{err: session.ErrNotSignedIn}
		}

		ctx, cancel := context.WithTimeout(context.Background(), openTimeout)
		defer cancel()

		sess, err := session.Open(ctx, cfg, token, opts)
		return sessionOpenedMsg{sess: sess, err: err}
	}
}

// loggedOutMsg is sent once the stored token has been removed.
type loggedOutMsg struct {
	err error
}

func (m Model) logout() tea.Cmd {
	return func() tea.Msg {
		return loggedOutMsg{err: logout()}
	}
}
