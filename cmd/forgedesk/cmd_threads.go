package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/workforge/forgedesk/internal/model"
	"github.com/workforge/forgedesk/internal/session"
)

func (c *cli) threadsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "threads",
		Short: "List conversations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd, true, func(ctx context.Context, sess *session.Session) error {
				view, err := sess.Load(ctx, nil)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), view.Threads)
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				for _, t := range view.Threads {
					last := "no messages yet"
					if m, ok := t.LastMessage(); ok {
						last = m.Content
					}
					fmt.Fprintf(tw, "%s\t%s\t%d unread\t%s\t%s\n",
						t.Counterpart.Name,
						t.Counterpart.Role,
						t.Unread(sess.Self.ID),
						model.FormatDisplayTime(t.LastMessageTime),
						last,
					)
				}
				return tw.Flush()
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
