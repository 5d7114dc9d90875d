package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/s0up4200/metasync/catalog"
)

var catalogLimit int

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the connected product catalog",
}

var catalogProductsCmd = &cobra.Command{
	Use:   "products",
	Short: "List the items in the catalog",
	RunE:  runCatalogProducts,
}

var catalogGroupCmd = &cobra.Command{
	Use:     "group <group-id>",
	Aliases: []string{"groups"},
	Short:   "List the items of a product group",
	Args:    cobra.ExactArgs(1),
	RunE:    runCatalogGroup,
}

var catalogFindCmd = &cobra.Command{
	Use:   "find <retailer-id>",
	Short: "Look up a catalog item by retailer ID",
	Args:  cobra.ExactArgs(1),
	RunE:  runCatalogFind,
}

var catalogBatchStatusCmd = &cobra.Command{
	Use:   "batch-status <handle>",
	Short: "Show the processing status of an items batch",
	Args:  cobra.ExactArgs(1),
	RunE:  runCatalogBatchStatus,
}

var catalogFeedsCmd = &cobra.Command{
	Use:   "feeds",
	Short: "List the catalog's product feeds and their latest upload",
	RunE:  runCatalogFeeds,
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogProductsCmd, catalogGroupCmd, catalogFindCmd, catalogBatchStatusCmd, catalogFeedsCmd)

	catalogProductsCmd.Flags().IntVarP(&catalogLimit, "limit", "l", 0, "maximum number of items (0 for all)")
	catalogGroupCmd.Flags().IntVarP(&catalogLimit, "limit", "l", catalog.DefaultGroupProductsLimit, "maximum number of items")
}

func catalogService() (*catalog.Service, error) {
	if err := cfg.Require("catalog_id"); err != nil {
		return nil, err
	}
	return catalog.NewService(graphClient, logger), nil
}

func runCatalogProducts(cmd *cobra.Command, args []string) error {
	service, err := catalogService()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	info, err := service.Catalog(ctx, cfg.Business.CatalogID)
	if err != nil {
		return err
	}

	var items []catalog.ProductItem
	if catalogLimit > 0 {
		page, err := service.CatalogProducts(ctx, cfg.Business.CatalogID, catalogLimit)
		if err != nil {
			return err
		}
		items = page.Data
	} else {
		items, err = service.AllCatalogProducts(ctx, cfg.Business.CatalogID, 100)
		if err != nil {
			return err
		}
	}

	fmt.Printf("Catalog %s (%s): %d items\n", info.Name, info.ID, len(items))
	printItems(items)
	return nil
}

func runCatalogGroup(cmd *cobra.Command, args []string) error {
	service, err := catalogService()
	if err != nil {
		return err
	}

	items, err := service.ProductGroupProducts(cmd.Context(), args[0], catalogLimit)
	if err != nil {
		return err
	}

	fmt.Printf("Product group %s: %d items\n", args[0], len(items.Data))
	printItems(items.Data)
	return nil
}

func runCatalogFind(cmd *cobra.Command, args []string) error {
	service, err := catalogService()
	if err != nil {
		return err
	}

	item, err := service.FindProductItem(cmd.Context(), cfg.Business.CatalogID, args[0])
	if err != nil {
		return err
	}

	printField("Item", item.ID)
	printField("Product group", item.GroupID())
	return nil
}

func runCatalogBatchStatus(cmd *cobra.Command, args []string) error {
	service, err := catalogService()
	if err != nil {
		return err
	}

	status, err := service.BatchStatus(cmd.Context(), cfg.Business.CatalogID, args[0])
	if err != nil {
		return err
	}

	printField("Handle", status.Handle)
	printField("Status", status.Status)
	fmt.Printf("- %-18s %d\n", "Errors:", status.ErrorsTotalCount)
	for _, e := range status.Errors {
		fmt.Printf("  ✗ line %d %s: %s\n", e.Line, e.ID, e.Message)
	}
	for _, w := range status.Warnings {
		fmt.Printf("  ! line %d %s: %s\n", w.Line, w.ID, w.Message)
	}
	return nil
}

func runCatalogFeeds(cmd *cobra.Command, args []string) error {
	service, err := catalogService()
	if err != nil {
		return err
	}

	feeds, err := service.Feeds(cmd.Context(), cfg.Business.CatalogID)
	if err != nil {
		return err
	}
	if len(feeds) == 0 {
		fmt.Println("No product feeds.")
		return nil
	}

	for _, f := range feeds {
		fmt.Printf("• %s (%s)\n", f.Name, f.ID)
		if u := f.LatestUpload; u != nil {
			fmt.Printf("  Last upload %s: %d items, %d errors, %d warnings\n",
				u.EndTime, u.NumPersistedItems, u.ErrorCount, u.WarningCount)
		}
	}
	return nil
}

func printItems(items []catalog.ProductItem) {
	if len(items) == 0 {
		return
	}
	fmt.Println(strings.Repeat("-", 60))
	fmt.Printf("%-24s %s\n", "ITEM", "RETAILER ID")
	for _, item := range items {
		fmt.Printf("%-24s %s\n", item.ID, item.RetailerID)
	}
}
