package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/s0up4200/metasync/pixel"
)

var (
	testEventCode string
	eventEmail    string
	eventURL      string
	eventValue    float64
	eventCurrency string
)

var pixelCmd = &cobra.Command{
	Use:   "pixel",
	Short: "Inspect the pixel and send server events",
}

var pixelAAMCmd = &cobra.Command{
	Use:   "aam",
	Short: "Show the automatic advanced matching settings of the pixel",
	RunE:  runPixelAAM,
}

var pixelSendCmd = &cobra.Command{
	Use:   "send <event-name>",
	Short: "Send a single server event, e.g. PageView or Purchase",
	Args:  cobra.ExactArgs(1),
	RunE:  runPixelSend,
}

func init() {
	rootCmd.AddCommand(pixelCmd)
	pixelCmd.AddCommand(pixelAAMCmd, pixelSendCmd)

	pixelSendCmd.Flags().StringVar(&testEventCode, "test-code", "", "Events Manager test event code")
	pixelSendCmd.Flags().StringVar(&eventEmail, "email", "", "buyer email, hashed before sending")
	pixelSendCmd.Flags().StringVar(&eventURL, "url", "", "event source URL")
	pixelSendCmd.Flags().Float64Var(&eventValue, "value", 0, "purchase value")
	pixelSendCmd.Flags().StringVar(&eventCurrency, "currency", "USD", "purchase currency")
}

func runPixelAAM(cmd *cobra.Command, args []string) error {
	if err := cfg.Require("pixel_id"); err != nil {
		return err
	}

	client := pixel.NewAAMClient("", nil, logger)
	settings, err := client.Settings(cmd.Context(), cfg.Business.PixelID)
	if err != nil {
		return err
	}

	fmt.Printf("Pixel %s\n", cfg.Business.PixelID)
	fmt.Printf("- %-18s %s\n", "Automatic matching:", boolToStatus(settings.EnableAutomaticMatching))
	if len(settings.EnabledAutomaticMatchingFields) > 0 {
		fmt.Printf("- %-18s %s\n", "Fields:", strings.Join(settings.EnabledAutomaticMatchingFields, ", "))
	}
	return nil
}

func runPixelSend(cmd *cobra.Command, args []string) error {
	service, err := pixel.NewService(graphClient, cfg.Business.PixelID, logger,
		pixel.WithPartnerAgent("metasync-"+version),
		pixel.WithTestEventCode(testEventCode),
	)
	if err != nil {
		return err
	}

	var custom map[string]any
	if eventValue > 0 {
		custom = map[string]any{"value": eventValue, "currency": eventCurrency}
	}

	event := pixel.NewEvent(args[0], pixel.UserData{Email: eventEmail}, custom)
	event.SourceURL = eventURL

	res, err := service.Send(cmd.Context(), event)
	if err != nil {
		return err
	}

	fmt.Printf("✓ %d event received (trace %s)\n", res.EventsReceived, res.FBTraceID)
	for _, msg := range res.Messages {
		fmt.Printf("  %s\n", msg)
	}
	return nil
}

func boolToStatus(b bool) string {
	if b {
		return "Enabled"
	}
	return "Disabled"
}
