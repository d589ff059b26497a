// Package cli provides the command-line interface for the price watcher.
package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"gecko-watch/internal/cache"
	"gecko-watch/internal/coingecko"
	"gecko-watch/internal/config"
	"gecko-watch/internal/errors"
	"gecko-watch/internal/logging"
	"gecko-watch/internal/notify"
	"gecko-watch/internal/store"
)

// Version information
const (
	Version = "0.1.0"
)

// App holds the application dependencies.
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Store    store.Store
	Cache    *cache.Client
	Notifier notify.Notifier
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	dataStore, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize store, most commands will be unavailable")
	} else {
		app.Store = dataStore
		logger.Debug().Str("path", cfg.Store.Path).Msg("SQLite store initialized")
	}

	apiClient := coingecko.NewHTTPClient(coingecko.HTTPConfig{
		BaseURL:     cfg.API.BaseURL,
		Timeout:     cfg.API.Timeout,
		MaxAttempts: cfg.API.MaxAttempts,
	}, logger)

	if app.Store != nil {
		app.Cache = cache.NewClient(apiClient, app.Store, logger)
	}
	app.Notifier = notify.NewMultiNotifier(&cfg.Notifications)

	rootCmd := &cobra.Command{
		Use:   "gecko-watch",
		Short: "gecko-watch - cached coin catalogs and price triggers",
		Long: `gecko-watch keeps a local cache of the CoinGecko coin and currency
catalogs, serves live prices, and watches user-defined price triggers in
the background, sending a notification when one fires.

Use 'gecko-watch help <command>' for more information about a command.`,
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

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/gecko-watch)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newCoinsCmd(app))
	rootCmd.AddCommand(newCurrenciesCmd(app))
	rootCmd.AddCommand(newPriceCmd(app))
	rootCmd.AddCommand(newChartCmd(app))
	rootCmd.AddCommand(newTriggerCmd(app))
	rootCmd.AddCommand(newWatchCmd(app))

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"version": Version})
			} else {
				output.Printf("gecko-watch v%s\n", Version)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and manage application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			return showConfig(output, app.Config)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": config.DefaultConfigDir()})
			} else {
				output.Println(config.DefaultConfigDir())
			}
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) error {
	output.Bold("API")
	output.Printf("  Base URL:     %s\n", cfg.API.BaseURL)
	output.Printf("  Timeout:      %s\n", cfg.API.Timeout)
	output.Printf("  Max attempts: %d\n", cfg.API.MaxAttempts)
	output.Println()

	output.Bold("Store")
	output.Printf("  Path: %s\n", cfg.Store.Path)
	output.Println()

	output.Bold("Monitor")
	output.Printf("  Interval: %s\n", cfg.Monitor.Interval)
	output.Println()

	output.Bold("Display")
	output.Printf("  Show all coins:      %v\n", cfg.Display.ShowAllCoins)
	output.Printf("  Show all currencies: %v\n", cfg.Display.ShowAllCurrencies)
	output.Println()

	output.Bold("Notifications")
	output.Printf("  Enabled:  %v\n", cfg.Notifications.Enabled)
	output.Printf("  Desktop:  %v\n", cfg.Notifications.Desktop.Enabled)
	output.Printf("  Webhook:  %v\n", cfg.Notifications.Webhook.Enabled)
	output.Printf("  Telegram: %v\n", cfg.Notifications.Telegram.Enabled)

	return nil
}

// requireCache errors out when the store failed to initialize.
func requireCache(app *App, output *Output) error {
	if app.Cache == nil {
		output.Error("Local store unavailable; check 'gecko-watch config show'")
		return errors.ErrStoreFailure
	}
	return nil
}
