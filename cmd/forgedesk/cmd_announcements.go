package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/workforge/forgedesk/internal/model"
	"github.com/workforge/forgedesk/internal/session"
)

func (c *cli) announcementsCmd() *cobra.Command {
	var asJSON, markAll bool

	cmd := &cobra.Command{
		Use:     "announcements",
		Aliases: []string{"board"},
		Short:   "Print the announcement board",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd, true, func(ctx context.Context, sess *session.Session) error {
				view, err := sess.Load(ctx, nil)
				if err != nil {
					return err
				}

				if markAll {
					ids := make([]string, len(view.Announcements))
					for i, a := range view.Announcements {
						ids[i] = a.ID
					}
					if err := sess.Feed.MarkAllAnnouncementsRead(ctx, ids); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "marked %d announcements read\n", len(ids))
					return nil
				}

				if asJSON {
					return writeJSON(cmd.OutOrStdout(), view.Announcements)
				}

				fmt.Fprintf(cmd.OutOrStdout(), "%d unread\n", view.UnreadAnnouncements())
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				for _, a := range view.Announcements {
					mark := " "
					if !a.Read {
						mark = "●"
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
						mark, model.FormatDisplayTime(a.CreatedAt), a.Priority, a.Title, a.Author)
				}
				return tw.Flush()
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	cmd.Flags().BoolVar(&markAll, "mark-all", false, "mark every announcement read")
	return cmd
}
