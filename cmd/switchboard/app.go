package main

import (
	"log/slog"

	"github.com/aretw0/switchboard"
	"github.com/aretw0/switchboard/internal/cli"
	"github.com/aretw0/switchboard/internal/config"
	"github.com/spf13/cobra"
)

// app is the switchboard wired to the configured backends.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	backends *cli.Backends
	sb       *switchboard.Switchboard
}

// openApp loads the configuration and connects the backends. Close releases them.
func openApp(cmd *cobra.Command, opts ...switchboard.Option) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	debug, _ := cmd.Flags().GetBool("debug")
	logger, err := cli.NewLogger(cfg.Log, debug)
	if err != nil {
		return nil, err
	}
	backends, err := cli.OpenBackends(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, err
	}
	sb := switchboard.New(backends.Service, append(backends.Options(cfg, logger), opts...)...)
	return &app{cfg: cfg, logger: logger, backends: backends, sb: sb}, nil
}

func (a *app) Close() error {
	return a.backends.Close()
}
