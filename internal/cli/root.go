// Package cli provides the command-line interface for the scalping panel.
package cli

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"openalgo-scalper/internal/config"
	"openalgo-scalper/internal/logging"
	"openalgo-scalper/internal/notify"
	"openalgo-scalper/internal/openalgo"
	"openalgo-scalper/internal/store"
)

// Version information
const Version = "0.1.0"

// App holds the application dependencies.
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	API      *openalgo.Client
	Store    *store.SQLiteStore
	Notifier notify.Notifier
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config:   cfg,
		Logger:   logger,
		Notifier: notify.NewTerminalNotifier(),
	}

	app.API = openalgo.NewClient(openalgo.ClientConfig{
		HostURL: cfg.Server.HostURL,
		APIKey:  cfg.Server.APIKey,
		Logger:  logger,
	})

	dbPath := config.DefaultConfigDir() + "/scalper.db"
	db, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize store, settings will not persist")
	} else {
		app.Store = db
	}

	rootCmd := &cobra.Command{
		Use:   "scalper",
		Short: "OpenAlgo options scalping panel",
		Long: `Scalper is a strike-chain trading panel for Indian index options.

It talks to a locally running OpenAlgo API server, derives the full strike
ladder from two symbol resolutions, and keeps prices, funds, margin and
stop-loss coverage in sync while you trade.

Use 'scalper help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/openalgo-scalper)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	addPanelCommands(rootCmd, app)
	addMarketCommands(rootCmd, app)
	addVersionCommand(rootCmd)

	return rootCmd
}

func addVersionCommand(rootCmd *cobra.Command) {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("scalper %s\n", Version)
		},
	})
}

// requireConfigured aborts commands that need a reachable API server.
func (a *App) requireConfigured() error {
	if !a.Config.IsConfigured() {
		return fmt.Errorf("host URL or API key not configured: set server.host_url and server.api_key in %s/config.toml", config.DefaultConfigDir())
	}
	return nil
}
