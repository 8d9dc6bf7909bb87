package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/workforge/forgedesk/internal/model"
	"github.com/workforge/forgedesk/internal/session"
)

func (c *cli) feedCmd() *cobra.Command {
	var asJSON, unreadOnly bool

	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Print the notification feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd, true, func(ctx context.Context, sess *session.Session) error {
				view, err := sess.Load(ctx, nil)
				if err != nil {
					return err
				}

				items := view.Feed.Notifications
				if unreadOnly {
					items = unread(items)
				}

				if asJSON {
					return writeJSON(cmd.OutOrStdout(), struct {
						Notifications []model.Notification `json:"notifications"`
						UnreadCount   int                  `json:"unread_count"`
					}{items, view.Feed.UnreadCount})
				}
				return printFeed(cmd.OutOrStdout(), items, view.Feed.UnreadCount)
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	cmd.Flags().BoolVar(&unreadOnly, "unread", false, "only unread entries")
	return cmd
}

func unread(items []model.Notification) []model.Notification {
	out := make([]model.Notification, 0, len(items))
	for _, n := range items {
		if !n.Read {
			out = append(out, n)
		}
	}
	return out
}

func printFeed(w io.Writer, items []model.Notification, unreadCount int) error {
	fmt.Fprintf(w, "%d unread\n", unreadCount)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, n := range items {
		mark := " "
		if !n.Read {
			mark = "●"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", mark, n.ID, n.Type, n.Time, n.Message)
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
