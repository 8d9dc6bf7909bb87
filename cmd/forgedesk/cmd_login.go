package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/workforge/forgedesk/internal/credential"
	"github.com/workforge/forgedesk/internal/session"
)

func (c *cli) loginCmd() *cobra.Command {
	var baseURL, token string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Validate a bearer token and store it",
		Long: `Validates the token against the Work Forge server, stores it in the
system keyring and writes the server URL to the config file.

The token may also be given through FORGEDESK_TOKEN.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				token = os.Getenv(credential.TokenEnv)
			}
			if baseURL == "" {
				baseURL = c.cfg.Server.BaseURL
			}
			baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
			if baseURL == "" {
				return fmt.Errorf("--url is required")
			}
			if token == "" {
				return fmt.Errorf("--token is required")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), defaultTimeout)
			defer cancel()

			greeting, err := session.Login(ctx, c.configPath, c.cfg, baseURL, strings.TrimSpace(token))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), greeting)
			return nil
		},
	}

	cmd.Flags().StringVar(&baseURL, "url", "", "Work Forge server URL")
	cmd.Flags().StringVar(&token, "token", "", "bearer token")
	return cmd
}
