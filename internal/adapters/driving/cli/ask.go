package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about the ingested trials",
	Long: `Answers a question using the ingested clinical trial records.
Questions naming an NCT identifier are answered from that trial alone;
anything else triggers a similarity search across all trials.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if assistant == nil {
		return errors.New("assistant not configured")
	}

	answer, err := assistant.Answer(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("answer failed: %w", err)
	}

	cmd.Println(answer)
	return nil
}
