package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check that every flow builds",
	Long: `Builds every portal flow for --caller and reports construction errors such
as dangling transitions or missing entry states.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		caller, _ := cmd.Flags().GetString("caller")

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		var errs []error
		for _, name := range a.sb.Flows() {
			g, err := a.sb.Inspect(cmd.Context(), name, caller)
			if err != nil {
				errs = append(errs, err)
				fmt.Fprintf(cmd.OutOrStdout(), "✗ %s: %v\n", name, err)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s (%d vertices)\n", name, len(g.Vertices()))
		}
		if err := errors.Join(errs...); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "All flows are valid! ✅")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().String("caller", "1001", "Caller the data-driven flows are built for")
}
