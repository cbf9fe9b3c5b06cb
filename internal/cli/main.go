package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	root := &cobra.Command{
		Use:          "promtx \"<instruction>\"",
		Short:        "Edit or generate media from a free-text instruction",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0])
		},
	}

	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.SilenceErrors = true

	// Visible flags
	root.Flags().StringP("input", "i", "", "Input media file (omit for pure generation)")
	root.Flags().String("out", "out", "Output directory")
	root.Flags().StringP("output", "o", "", "Exact output file path (overrides --out)")
	root.Flags().Bool("verbose", false, "Verbose progress logging")

	// Hidden tuning flags (internal)
	root.Flags().String("text-model", "", "Gemini text model override")
	root.Flags().String("video-model", "", "Veo model override")
	root.Flags().Int("quota-cap", 0, "Daily generation cap in seconds")
	root.Flags().String("quota-file", "", "Quota ledger sqlite path")
	_ = root.Flags().MarkHidden("text-model")
	_ = root.Flags().MarkHidden("video-model")
	_ = root.Flags().MarkHidden("quota-cap")
	_ = root.Flags().MarkHidden("quota-file")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
