// Command forgedesk is a terminal client for the Work Forge employee
// portal: notification feed, direct messages with HR, and the
// announcement board.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/workforge/forgedesk/internal/credential"
	"github.com/workforge/forgedesk/internal/logging"
	"github.com/workforge/forgedesk/internal/model"
	"github.com/workforge/forgedesk/internal/theme"
)

// tokenSource is replaced in tests.
var tokenSource = credential.Token

// cli holds the state shared by all subcommands.
type cli struct {
	configPath string
	envFile    string
	verbose    bool
	ephemeral  bool

	cfg       *model.AppConfig
	logCloser io.Closer
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "forgedesk",
		Short: "Work Forge notifications and messages in the terminal",
		Long: `forgedesk shows your Work Forge notification feed, HR conversations
and the announcement board.

Run without arguments to start the interactive interface. Sign in first
with 'forgedesk login --url <server> --token <token>'.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logCloser != nil {
				_ = c.logCloser.Close()
			}
		},
		RunE: c.runTUI,
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", model.DefaultConfigPath(), "path to config file")
	root.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "optional dotenv file loaded before the config")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log at debug level")
	root.PersistentFlags().BoolVar(&c.ephemeral, "ephemeral", false, "keep read state in memory only")

	root.AddCommand(
		c.loginCmd(),
		c.logoutCmd(),
		c.feedCmd(),
		c.threadsCmd(),
		c.markReadCmd(),
		c.markAllReadCmd(),
		c.clearReadCmd(),
		c.announcementsCmd(),
	)
	return root
}

// setup loads the environment file, the configuration and the log file.
func (c *cli) setup() error {
	if err := model.LoadEnvFile(c.envFile); err != nil {
		return err
	}

	cfg, err := model.LoadConfig(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg

	if err := theme.Apply(cfg.Display.Theme); err != nil {
		return err
	}

	closer, err := logging.Init(logging.Options{
		Path:       cfg.Log.Path,
		Level:      cfg.Log.Level,
		SystemName: "forgedesk",
		Verbose:    c.verbose,
	})
	if err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	c.logCloser = closer

	logging.WithComponent("cli").WithField("config", c.configPath).Debug("configuration loaded")
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
