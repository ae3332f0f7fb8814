package cli

import (
	"errors"
	"sort"

	"github.com/spf13/cobra"
)

var usageReset bool

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show language model usage statistics",
	Long: `Shows per-process usage counters: answered queries, an estimated
token total and a per-model breakdown. Counters reset when the process
exits or with --reset.`,
	RunE: runUsage,
}

func init() {
	usageCmd.Flags().BoolVar(&usageReset, "reset", false, "reset the counters after printing")
	rootCmd.AddCommand(usageCmd)
}

func runUsage(cmd *cobra.Command, _ []string) error {
	if assistant == nil {
		return errors.New("assistant not configured")
	}

	usage := assistant.UsageStats()

	cmd.Println("Usage:")
	cmd.Printf("  Queries:          %d\n", usage.TotalQueries)
	cmd.Printf("  Estimated tokens: %d\n", usage.TotalTokens)
	cmd.Printf("  Since:            %s\n", usage.LastReset.Format("2006-01-02 15:04:05"))

	if len(usage.QueriesByModel) > 0 {
		models := make([]string, 0, len(usage.QueriesByModel))
		for model := range usage.QueriesByModel {
			models = append(models, model)
		}
		sort.Strings(models)

		cmd.Println("  By model:")
		for _, model := range models {
			cmd.Printf("    %s: %d\n", model, usage.QueriesByModel[model])
		}
	}

	if usageReset {
		assistant.ResetUsageStats()
		cmd.Println("Counters reset.")
	}
	return nil
}
