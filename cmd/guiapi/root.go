package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/guiapi/internal/config"
	"github.com/aretw0/guiapi/internal/logging"
	"github.com/spf13/cobra"
)

var (
	cfg    config.Config
	logger = logging.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "guiapi",
	Short: "guiapi drives server-rendered pages over the GUI API protocol",
	Long: `guiapi submits actions to a GUI API endpoint, applies the returned HTML
updates and function calls to a persisted page, and can serve canned
endpoints for development.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Config file (yaml, toml or json)")
	flags.String("endpoint", "", "GUI API endpoint URL")
	flags.String("store", "", "Page store: memory, file or redis")
	flags.String("page", "", "Page id")
	flags.String("log-level", "", "Log level: debug, info, warn, error")
	flags.String("log-format", "", "Log format: text or json")
}

// loadConfig reads the config file and environment, then applies flags on top.
func loadConfig(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	loaded, err := config.Load(path)
	if err != nil {
		return err
	}

	override := func(name string, dst *string) {
		if cmd.Flags().Changed(name) {
			*dst, _ = cmd.Flags().GetString(name)
		}
	}
	override("endpoint", &loaded.Endpoint)
	override("store", &loaded.Store.Driver)
	override("page", &loaded.Page.ID)
	override("log-level", &loaded.Log.Level)
	override("log-format", &loaded.Log.Format)
	if err := loaded.Validate(); err != nil {
		return err
	}

	level, err := logging.ParseLevel(loaded.Log.Level)
	if err != nil {
		return err
	}
	cfg = loaded
	logger = logging.NewWith(os.Stderr, level, logging.Format(loaded.Log.Format))
	slog.SetDefault(logger)
	return nil
}
