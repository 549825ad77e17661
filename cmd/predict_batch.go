package cmd

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"helpdesk/internal/clix"
)

var predictBatchCmd = &cobra.Command{
	Use:   "batch [description...]",
	Short: "Predict several ticket descriptions at once",
	Long: `Predicts every description given as an argument, or every non-empty line
of the file passed with --file. Blank descriptions are skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		descriptions, err := clix.ParseDescriptions(cmd.Flags(), args)
		if err != nil {
			return err
		}
		results, err := appInstance.PredictionService.BatchPredict(cmd.Context(), descriptions)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No non-blank descriptions to predict.")
			return nil
		}

		table := tablewriter.NewWriter(cmd.OutOrStdout())
		table.SetHeader([]string{"Description", "Category", "Confidence", "Level", "Resolution Time"})
		table.SetBorder(true)
		table.SetRowLine(true)
		table.SetAutoWrapText(true)
		for _, r := range results {
			table.Append([]string{
				truncate(r.Description, 60),
				r.Predictions.PredictedCategory,
				fmt.Sprintf("%.1f%%", r.Predictions.CategoryConfidence),
				r.Predictions.ConfidenceLevel,
				r.Predictions.PredictedResolutionTimeDisplay,
			})
		}
		table.Render()
		return nil
	},
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func init() {
	predictCmd.AddCommand(predictBatchCmd)
	predictBatchCmd.Flags().String("file", "", "Read one description per line from this file")
}
