package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/workforge/forgedesk/internal/credential"
	"github.com/workforge/forgedesk/internal/session"
)

// logout is replaced in tests.
var logout = session.Logout

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			if os.Getenv(credential.TokenEnv) != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "note: %s is still set and will be used\n", credential.TokenEnv)
			}
			return nil
		},
	}
}
