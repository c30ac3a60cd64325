package main

import (
	"fmt"

	"github.com/aretw0/switchboard/internal/presentation/graph"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph [flow]",
	Short: "Export a flow as a Mermaid diagram",
	Long: `Builds a portal flow (default "portal") and prints it as a Mermaid flowchart.
Data-driven flows are built for --caller.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := "portal"
		if len(args) > 0 {
			name = args[0]
		}
		caller, _ := cmd.Flags().GetString("caller")

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		g, err := a.sb.Inspect(cmd.Context(), name, caller)
		if err != nil {
			return fmt.Errorf("error inspecting flow: %w (flows: %v)", err, a.sb.Flows())
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(g, nil))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("caller", "1001", "Caller the data-driven flows are built for")
}
