package cmd

import (
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Show per-category ticket statistics and the most recent tickets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		stats, err := appInstance.PredictionService.CategoryInsights(cmd.Context())
		if err != nil {
			return err
		}
		if len(stats) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No tickets found.")
			return nil
		}

		table := tablewriter.NewWriter(cmd.OutOrStdout())
		table.SetHeader([]string{"Category", "Tickets", "Resolved", "Avg Resolution"})
		table.SetBorder(true)
		table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
		table.SetAlignment(tablewriter.ALIGN_LEFT)
		for _, s := range stats {
			avg := "N/A"
			if s.AvgResolutionHours != nil {
				avg = fmt.Sprintf("%.1f hours", *s.AvgResolutionHours)
			}
			table.Append([]string{s.Category, strconv.Itoa(s.TicketCount), strconv.Itoa(s.ResolvedCount), avg})
		}
		table.Render()

		recent, err := appInstance.PredictionService.RecentTickets(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "\nRecent tickets:")
		recentTable := tablewriter.NewWriter(cmd.OutOrStdout())
		recentTable.SetHeader([]string{"ID", "Title", "Status", "Category", "Created"})
		recentTable.SetBorder(true)
		for _, t := range recent {
			category := t.Category
			if category == "" {
				category = "-"
			}
			recentTable.Append([]string{
				strconv.FormatInt(t.ID, 10),
				truncate(t.Title, 40),
				t.Status,
				category,
				t.CreatedAt.Format("2006-01-02 15:04"),
			})
		}
		recentTable.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(insightsCmd)
}
