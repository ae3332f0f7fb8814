package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var clearYes bool

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every document from the vector store",
	RunE:  runClear,
}

func init() {
	clearCmd.Flags().BoolVar(&clearYes, "yes", false, "skip the confirmation check")
	rootCmd.AddCommand(clearCmd)
}

func runClear(cmd *cobra.Command, _ []string) error {
	if assistant == nil {
		return errors.New("assistant not configured")
	}

	if !clearYes {
		return errors.New("clearing is irreversible; re-run with --yes to confirm")
	}

	if err := assistant.Clear(cmd.Context()); err != nil {
		return fmt.Errorf("clear failed: %w", err)
	}

	cmd.Println("Vector store cleared.")
	return nil
}
