package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"helpdesk/internal/models"
)

var predictJSON bool

var predictCmd = &cobra.Command{
	Use:   "predict <description...>",
	Short: "Predict the category and resolution time of a ticket",
	Long: `Predicts the category and expected resolution time for a ticket description.
All arguments are joined into one description.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		insight, err := appInstance.PredictionService.Predict(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}

		if predictJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(insight)
		}
		printInsight(cmd.OutOrStdout(), insight)
		return nil
	},
}

func printInsight(w io.Writer, in *models.PredictionInsight) {
	fmt.Fprintf(w, "Category:        %s (%.1f%%, %s confidence)\n",
		color.CyanString(in.PredictedCategory), in.CategoryConfidence, levelColor(in.ConfidenceLevel))
	fmt.Fprintf(w, "Resolution time: %s\n", in.PredictedResolutionTimeDisplay)
}

func levelColor(level string) string {
	switch level {
	case models.ConfidenceHigh:
		return color.GreenString(level)
	case models.ConfidenceMedium:
		return color.YellowString(level)
	default:
		return color.RedString(level)
	}
}

func init() {
	rootCmd.AddCommand(predictCmd)
	predictCmd.Flags().BoolVar(&predictJSON, "json", false, "Print the prediction as JSON")
}
