package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"helpdesk/internal/models"
)

var trainAsync bool

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Retrain the prediction models",
	Long: `Retrains the category classifier and resolution-time regressor on the
resolved ticket history (or generated sample data when history is too small)
and saves them. With --async the retrain is queued for the worker instead.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if trainAsync {
			jobID, err := appInstance.PredictionService.EnqueueRetrain(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Retrain job %s (id %s)\n", models.JobStatusEnqueued, jobID)
			return nil
		}

		report, err := appInstance.PredictionService.Retrain(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(out, color.GreenString("Models retrained successfully"))
		printReport(cmd, report)
		return nil
	},
}

func printReport(cmd *cobra.Command, r *models.TrainingReport) {
	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"Metric", "Value"})
	table.SetBorder(true)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.AppendBulk([][]string{
		{"Data source", r.Source},
		{"Samples", fmt.Sprintf("%d (train %d / test %d)", r.Samples, r.TrainSamples, r.TestSamples)},
		{"Features", fmt.Sprintf("%d", r.Features)},
		{"Categories", strings.Join(r.Classes, ", ")},
		{"Category accuracy", fmt.Sprintf("%.1f%%", r.CategoryAccuracy*100)},
		{"Resolution MAE", fmt.Sprintf("%.1f hours", r.ResolutionMAE)},
		{"Duration", r.Duration.Round(time.Millisecond).String()},
		{"Saved", fmt.Sprintf("%t", r.Persisted)},
	})
	table.Render()
}

func init() {
	rootCmd.AddCommand(trainCmd)
	trainCmd.Flags().BoolVar(&trainAsync, "async", false, "Queue the retrain for the background worker")
}
