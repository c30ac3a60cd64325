package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/switchboard/internal/cli"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow reservation changes made during calls",
	Long: `Prints a line for every reservation created or cancelled by a caller.
With the redis store it follows every server sharing the channel.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return cli.WatchFlights(ctx, a.backends.Events, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
