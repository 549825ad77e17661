package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"helpdesk/internal/models"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show model readiness and training data size",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		status, err := appInstance.PredictionService.ModelStatus(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		loaded := color.RedString("no")
		if status.ModelsLoaded {
			loaded = color.GreenString("yes")
		}
		fmt.Fprintf(out, "Models loaded:      %s\n", loaded)
		fmt.Fprintf(out, "Total tickets:      %d\n", status.TotalTickets)
		fmt.Fprintf(out, "Resolved tickets:   %d\n", status.TrainingDataSize)
		fmt.Fprintf(out, "Training data:      %s\n", recommendationColor(status.Recommendation))
		if status.LastTraining != nil {
			printReport(cmd, status.LastTraining)
		}
		return nil
	},
}

func recommendationColor(r string) string {
	switch r {
	case models.RecommendationGood:
		return color.GreenString(r)
	case models.RecommendationLimited:
		return color.YellowString(r)
	default:
		return color.RedString(r)
	}
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
