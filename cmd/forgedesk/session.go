package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/workforge/forgedesk/internal/session"
	"github.com/workforge/forgedesk/internal/source/workforge"
)

const defaultTimeout = 30 * time.Second

// clientOptions are appended to every Work Forge client the CLI builds.
var clientOptions []workforge.Option

// openSession signs in with the stored token and refreshes the cache
// once. A failed refresh is reported on errOut and the cached data is
// used instead.
func (c *cli) openSession(ctx context.Context, errOut io.Writer, refresh bool) (*session.Session, error) {
	token, err := tokenSource()
	if err != nil || token == "" {
		return nil, session.ErrNotSignedIn
	}

	sess, err := session.Open(ctx, c.cfg, token, session.Options{
		Ephemeral:     c.ephemeral,
		ClientOptions: clientOptions,
	})
	if err != nil {
		return nil, err
	}

	if refresh {
		if res := sess.Poller.SyncOnce(ctx); res.Error != nil {
			fmt.Fprintf(errOut, "warning: refresh failed, showing cached data: %v\n", res.Error)
		}
	}
	return sess, nil
}

// withSession runs fn against an open session and closes it afterwards.
func (c *cli) withSession(cmd *cobra.Command, refresh bool, fn func(ctx context.Context, sess *session.Session) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), defaultTimeout)
	defer cancel()

	sess, err := c.openSession(ctx, cmd.ErrOrStderr(), refresh)
	if err != nil {
		return err
	}
	defer sess.Close()

	return fn(ctx, sess)
}
