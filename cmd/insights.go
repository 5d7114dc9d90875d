package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/s0up4200/metasync/ads"
)

var datePreset string

var insightsCmd = &cobra.Command{
	Use:   "insights [object-id]",
	Short: "Show ads insights for the ad account or a campaign, ad set or ad",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInsights,
}

func init() {
	rootCmd.AddCommand(insightsCmd)

	insightsCmd.Flags().StringVar(&datePreset, "preset", "maximum", "date preset (today, last_7d, last_30d, maximum...)")
}

func runInsights(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	service := ads.NewService(graphClient, logger)

	objectID := ""
	if len(args) == 1 {
		objectID = args[0]
	} else {
		if err := cfg.Require("ad_account_id"); err != nil {
			return err
		}
		account, err := service.Account(ctx, cfg.Business.AdAccountID)
		if err != nil {
			return err
		}
		objectID = account.ID

		status := "inactive"
		if account.Active() {
			status = "active"
		}
		fmt.Printf("Ad account %s (%s, %s)\n", account.Name, account.ID, status)
	}

	insights, err := service.Insights(ctx, objectID, datePreset)
	if err != nil {
		return err
	}
	result := insights.Result()

	fmt.Printf("\nInsights for %s (%s):\n", objectID, datePreset)
	fmt.Printf("- %-18s %.2f\n", "Spend:", result.Spend)
	fmt.Printf("- %-18s %d\n", "Reach:", result.Reach)
	fmt.Printf("- %-18s %d\n", "Impressions:", result.Impressions)
	fmt.Printf("- %-18s %d\n", "Clicks:", result.Clicks)
	fmt.Printf("- %-18s %d\n", "Link clicks:", result.Actions.Clicks)
	fmt.Printf("- %-18s %d\n", "Content views:", result.Actions.Views)
	fmt.Printf("- %-18s %d\n", "Add to cart:", result.Actions.Cart)
	fmt.Printf("- %-18s %d\n", "Purchases:", result.Actions.Purchases)
	return nil
}
