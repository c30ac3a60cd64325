package main

import (
	"fmt"
	"os"

	"github.com/aretw0/switchboard/internal/cli"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <caller-id>",
	Short: "Place a call on the console",
	Long: `Answers one call as the given caller. Prompts are printed and keypad digits
are typed line by line; "exit" or Ctrl+C hangs up.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		debug, _ := cmd.Flags().GetBool("debug")
		jsonMode, _ := cmd.Flags().GetBool("json")
		plain, _ := cmd.Flags().GetBool("plain")
		transcriptPath, _ := cmd.Flags().GetString("transcript")

		opts := cli.RunOptions{
			CallerID: args[0],
			JSON:     jsonMode,
			Debug:    debug,
			Plain:    plain,
			Input:    cmd.InOrStdin(),
			Output:   cmd.OutOrStdout(),
		}
		if transcriptPath != "" {
			f, err := os.OpenFile(transcriptPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return fmt.Errorf("error opening transcript: %w", err)
			}
			defer f.Close()
			opts.Transcript = f
		}
		return cli.Execute(cmd.Context(), cfg, opts)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("json", false, "Run in JSON mode (NDJSON input/output)")
	runCmd.Flags().Bool("plain", false, "Print prompts without banner or markdown rendering")
	runCmd.Flags().String("transcript", "", "Append a transcript of the call to this file")
}
