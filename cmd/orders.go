package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/s0up4200/metasync/commerce"
	"github.com/s0up4200/metasync/store"
)

var (
	orderStates  []string
	ordersAll    bool
	localOrderID int64
	cancelReason string
	cancelText   string
	restock      bool
)

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "Manage commerce orders",
}

var ordersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List orders updated since the last listing",
	RunE:  runOrdersList,
}

var ordersAckCmd = &cobra.Command{
	Use:   "ack <order-id>",
	Short: "Acknowledge an order and map it to a local order",
	Args:  cobra.ExactArgs(1),
	RunE:  runOrdersAck,
}

var ordersCancelCmd = &cobra.Command{
	Use:   "cancel <order-id>",
	Short: "Cancel an order",
	Args:  cobra.ExactArgs(1),
	RunE:  runOrdersCancel,
}

func init() {
	rootCmd.AddCommand(ordersCmd)
	ordersCmd.AddCommand(ordersListCmd, ordersAckCmd, ordersCancelCmd)

	ordersListCmd.Flags().StringSliceVarP(&orderStates, "state", "s", nil, "order states to list (default CREATED,FB_PROCESSING)")
	ordersListCmd.Flags().BoolVarP(&ordersAll, "all", "a", false, "ignore the last listing time")

	ordersAckCmd.Flags().Int64Var(&localOrderID, "local-id", 0, "WooCommerce order ID")
	ordersAckCmd.MarkFlagRequired("local-id")

	ordersCancelCmd.Flags().StringVar(&cancelReason, "reason", commerce.CancelCustomerRequested, "cancellation reason code")
	ordersCancelCmd.Flags().StringVar(&cancelText, "description", "", "cancellation description")
	ordersCancelCmd.Flags().BoolVar(&restock, "restock", true, "restock the cancelled items")
}

func runOrdersList(cmd *cobra.Command, args []string) error {
	if err := cfg.Require("cms_id"); err != nil {
		return err
	}
	ctx := cmd.Context()

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	opts := commerce.ListOptions{States: orderStates}
	if !ordersAll {
		since, err := st.Get(ctx, store.OptionOrdersUpdatedAfter)
		switch {
		case errors.Is(err, store.ErrNotFound):
		case err != nil:
			return err
		default:
			if opts.UpdatedAfter, err = time.Parse(time.RFC3339, since); err != nil {
				logger.Warn().Str("value", since).Msg("Ignoring malformed last listing time")
			}
		}
	}

	service := commerce.NewService(graphClient, logger)
	orders, err := service.List(ctx, cfg.Business.CMSID, opts)
	if err != nil {
		return err
	}

	if len(orders) == 0 {
		fmt.Println("No orders found.")
		return nil
	}

	fmt.Printf("\nFound %d orders:\n", len(orders))
	fmt.Println(strings.Repeat("-", 80))

	mapped := make(map[string]bool)
	for _, order := range orders {
		fmt.Printf("• %s [%s] %s", order.ID, order.Status(), order.Created().Format("2006-01-02 15:04"))
		if p := order.EstimatedPaymentDetails; p != nil {
			fmt.Printf(" %s %s", p.TotalAmount.Amount, p.TotalAmount.Currency)
		}
		if mapping, err := st.LocalOrder(ctx, order.ID); err == nil {
			mapped[order.ID] = true
			fmt.Printf(" → #%d", mapping.LocalOrderID)
		} else if order.NeedsAcknowledgement() {
			fmt.Print(" (needs acknowledgement)")
		}
		fmt.Println()

		for _, item := range order.Items.Data {
			fmt.Printf("  %dx %s (%s)\n", item.Quantity, item.ProductName, item.RetailerID)
		}
	}

	next := commerce.NextCursor(opts.UpdatedAfter, orders, func(o *commerce.Order) bool {
		return mapped[o.ID]
	})
	if next.After(opts.UpdatedAfter) {
		if err := st.Set(ctx, store.OptionOrdersUpdatedAfter, next.UTC().Format(time.RFC3339)); err != nil {
			return err
		}
	}
	return nil
}

func runOrdersAck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	orderID := args[0]

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	service := commerce.NewService(graphClient, logger)
	if err := service.Acknowledge(ctx, orderID, strconv.FormatInt(localOrderID, 10)); err != nil {
		return err
	}
	if err := st.MapOrder(ctx, localOrderID, orderID, commerce.StateInProgress); err != nil {
		return err
	}

	fmt.Printf("✓ Order %s acknowledged as #%d\n", orderID, localOrderID)
	return nil
}

func runOrdersCancel(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	orderID := args[0]

	service := commerce.NewService(graphClient, logger)
	err := service.Cancel(ctx, orderID, commerce.Cancellation{
		ReasonCode:        cancelReason,
		ReasonDescription: cancelText,
		RestockItems:      restock,
	})
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if mapping, err := st.LocalOrder(ctx, orderID); err == nil {
		if err := st.MapOrder(ctx, mapping.LocalOrderID, orderID, "CANCELLED"); err != nil {
			return err
		}
	}

	fmt.Printf("✓ Order %s cancelled\n", orderID)
	return nil
}
