package main

import (
	"fmt"

	"github.com/aretw0/switchboard/internal/cli"
	"github.com/aretw0/switchboard/pkg/adapters/sqlite"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed <sqlite-path>",
	Short: "Generate flights and demo callers into a SQLite database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		count, _ := cmd.Flags().GetInt("flights")
		seed, _ := cmd.Flags().GetUint64("seed")

		db, err := sqlite.Open(args[0])
		if err != nil {
			return fmt.Errorf("error opening database: %w", err)
		}
		defer db.Close()

		if err := cli.Seed(cmd.Context(), db, count, seed); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d flights and %d callers into %s\n", count, len(cli.DemoUsers), args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().Int("flights", 100, "Number of flights to generate")
	seedCmd.Flags().Uint64("seed", 1, "Random seed of the generated routes")
}
