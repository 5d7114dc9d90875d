package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/s0up4200/metasync/config"
	"github.com/s0up4200/metasync/fbe"
	"github.com/s0up4200/metasync/graph"
	"github.com/s0up4200/metasync/store"
)

var (
	cfgFile     string
	cfg         *config.Config
	logger      zerolog.Logger
	graphClient *graph.Client

	version   = "dev"
	buildTime = "unknown"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "metasync",
	Short: "Sync a WooCommerce store with Meta commerce, ads and pixel APIs",
	Long: `metasync connects a WooCommerce store to the Meta Graph API. It keeps the
product catalog in sync, serves the product feed, manages commerce orders,
reads ads insights and reports the plugin state to the business extension.`,
	PersistentPreRunE: initializeApp,
	SilenceUsage:      true,
}

// SetVersion sets the build information reported by the version command
func SetVersion(v, built string) {
	version = v
	buildTime = built
}

// Execute adds all child commands to the root command and sets flags appropriately.
// Commands run with a context cancelled on SIGINT or SIGTERM.
func Execute() {
	ctx, stop := signalContext()
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")

	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(versionCmd)
}

// initializeApp loads the configuration and creates the Graph API client
func initializeApp(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger = setupLogger(cfg.Logging)

	graphClient, err = graph.NewClient(cfg.Graph.AccessToken, logger,
		graph.WithBaseURL(cfg.Graph.BaseURL),
		graph.WithVersion(cfg.Graph.Version),
		graph.WithTimeout(cfg.Graph.Timeout),
		graph.WithLimiter(graph.NewLimiter(cfg.Graph.RateLimit, cfg.Graph.RateBurst)),
		graph.WithUserAgent("metasync/"+version),
		graph.WithMaxRetries(cfg.Graph.MaxRetries),
		graph.WithRetryDelay(cfg.Graph.RetryDelay),
	)
	if err != nil {
		return fmt.Errorf("failed to create Graph API client: %w", err)
	}

	return nil
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !cfg.Color || !isatty.IsTerminal(os.Stderr.Fd()),
	}

	return zerolog.New(output).With().Timestamp().Logger()
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func openStore() (*store.Store, error) {
	st, err := store.Open(cfg.Store.URL, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return st, nil
}

// testCmd represents the test command
var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Test connection to the Graph API",
	Long:  `Test the access token and display the connected business objects.`,
	RunE:  runTest,
}

func runTest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	fmt.Printf("Testing connection to %s (%s)...\n", cfg.Graph.BaseURL, cfg.Graph.Version)
	if err := graphClient.TestConnection(ctx); err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	fmt.Println("✓ Connection successful!")

	if cfg.Business.ExternalBusinessID == "" {
		fmt.Println("\nBusiness extension: Not configured")
		return nil
	}

	service := fbe.NewService(graphClient, cfg.Business.ExternalBusinessID, logger)
	installation, err := service.Installation(ctx)
	if err != nil {
		fmt.Printf("\nBusiness extension: %v\n", err)
		return nil
	}

	fmt.Printf("\nBusiness extension (%s):\n", service.ExternalBusinessID())
	printField("Business manager", installation.BusinessManagerID)
	printField("Catalog", installation.CatalogID)
	printField("Pixel", installation.PixelID)
	printField("Page", installation.PageID)
	printField("Commerce account", installation.CommerceMerchantSettingsID)
	printField("Ad account", installation.AdAccountID)

	return nil
}

func printField(label, value string) {
	if value == "" {
		value = "-"
	}
	fmt.Printf("- %-18s %s\n", label+":", value)
}

// versionCmd prints the build information
var versionCmd = &cobra.Command{
	Use:               "version",
	Short:             "Print the version",
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("metasync %s (built %s)\n", version, buildTime)
	},
}
