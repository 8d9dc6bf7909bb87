package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/workforge/forgedesk/internal/session"
)

func (c *cli) markReadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mark-read <notification-id>",
		Short: "Mark one notification as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd, true, func(ctx context.Context, sess *session.Session) error {
				if err := sess.Feed.MarkAsRead(ctx, args[0]); err != nil {
					return fmt.Errorf("marking %s read: %w", args[0], err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "marked %s read\n", args[0])
				return nil
			})
		},
	}
}

func (c *cli) markAllReadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mark-all-read",
		Short: "Mark every notification as read",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd, true, func(ctx context.Context, sess *session.Session) error {
				view, err := sess.Load(ctx, nil)
				if err != nil {
					return err
				}
				if err := sess.Feed.MarkAllAsRead(ctx, view.Feed.Notifications); err != nil {
					return fmt.Errorf("marking all read: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "marked %d notifications read\n", len(view.Feed.Notifications))
				return nil
			})
		},
	}
}

func (c *cli) clearReadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear-read",
		Short: "Forget local read flags",
		Long: `Removes every locally stored read flag. Messages the server still
reports as unread show up as unread again.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSession(cmd, false, func(ctx context.Context, sess *session.Session) error {
				if err := sess.Feed.ClearRead(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "local read state cleared")
				return nil
			})
		},
	}
}
