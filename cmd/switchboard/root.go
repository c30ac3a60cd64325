package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/switchboard/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "switchboard",
	Short: "Switchboard is a voice portal for flight reservations",
	Long: `Switchboard answers calls with a keypad-driven dialog: callers hear their
reservations, search flights and cancel bookings.

Calls can be placed on the console (run), over HTTP (serve) or by AI agents (mcp).`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "YAML configuration file (SWITCHBOARD_* variables override it)")
	rootCmd.PersistentFlags().Bool("debug", false, "Log at debug level")
}

// loadConfig reads the --config file and environment overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %w", err)
	}
	return cfg, nil
}
