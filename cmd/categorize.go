package cmd

import (
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"helpdesk/internal/clix"
)

var categorizeCmd = &cobra.Command{
	Use:   "categorize <ticket_id...>",
	Short: "Suggest categories for stored tickets",
	Long: `Predicts a category for each ticket ID and compares it with the category
currently assigned. Suggestions are displayed, not applied.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		ticketIDs, err := clix.ParseTicketIDs(args)
		if err != nil {
			return err
		}

		log.WithField("tickets", len(ticketIDs)).Debug("requesting batch categorization")
		results, err := appInstance.CategorizationService.BatchCategorize(cmd.Context(), ticketIDs)
		if err != nil {
			return fmt.Errorf("failed to get batch categorization suggestions: %w", err)
		}

		table := tablewriter.NewWriter(cmd.OutOrStdout())
		table.SetHeader([]string{"Ticket ID", "Title", "Current Category", "Suggested Category", "Confidence"})
		table.SetBorder(true)
		table.SetRowLine(true)

		// Iterate through the requested IDs to maintain order and show missing results
		for _, id := range ticketIDs {
			idStr := strconv.FormatInt(id, 10)
			r, ok := results[id]
			if !ok {
				table.Append([]string{idStr, "N/A", "N/A", "N/A", "N/A"})
				continue
			}
			suggested := r.SuggestedCategory
			if r.Changed {
				suggested += " *"
			}
			current := r.CurrentCategory
			if current == "" {
				current = "-"
			}
			table.Append([]string{idStr, truncate(r.Title, 40), current, suggested, fmt.Sprintf("%.2f", r.Confidence)})
		}
		table.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(categorizeCmd)
}
