package main

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/workforge/forgedesk/internal/app"
	"github.com/workforge/forgedesk/internal/logging"
	"github.com/workforge/forgedesk/internal/session"
	"github.com/workforge/forgedesk/internal/source"
)

// runTUI starts the interactive interface. Without a usable token the
// interface opens on the sign-in form.
func (c *cli) runTUI(cmd *cobra.Command, _ []string) error {
	opts := session.Options{Ephemeral: c.ephemeral}
	log := logging.WithComponent("cli")

	var sess *session.Session
	if token, err := tokenSource(); err == nil && token != "" {
		ctx, cancel := context.WithTimeout(cmd.Context(), defaultTimeout)
		sess, err = session.Open(ctx, c.cfg, token, opts)
		cancel()
		switch {
		case err == nil:
		case source.IsAuthError(err), errors.Is(err, session.ErrNotSignedIn):
			log.WithError(err).Info("stored token unusable, showing sign-in")
			sess = nil
		default:
			return err
		}
	}

	final, err := tea.NewProgram(
		app.New(c.cfg, c.configPath, sess, opts),
		tea.WithAltScreen(),
		tea.WithContext(cmd.Context()),
	).Run()

	if m, ok := final.(app.Model); ok && m.Session() != nil {
		if cerr := m.Session().Close(); cerr != nil {
			log.WithError(cerr).Warn("closing session")
		}
	} else if sess != nil {
		_ = sess.Close()
	}

	if err != nil {
		return fmt.Errorf("running interface: %w", err)
	}
	return nil
}
