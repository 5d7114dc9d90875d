package cmd

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/s0up4200/metasync/catalog"
	"github.com/s0up4200/metasync/feed"
	"github.com/s0up4200/metasync/product"
)

var (
	feedRegister bool
	feedURL      string
	feedHour     int
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Generate and serve the product feed",
}

var feedGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write the product feed CSV",
	RunE:  runFeedGenerate,
}

var feedServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the product feed over HTTP",
	RunE:  runFeedServe,
}

func init() {
	rootCmd.AddCommand(feedCmd)
	feedCmd.AddCommand(feedGenerateCmd, feedServeCmd)

	feedGenerateCmd.Flags().StringVarP(&productsFile, "products", "p", "", "JSON product export (- for stdin)")
	feedGenerateCmd.MarkFlagRequired("products")

	feedServeCmd.Flags().BoolVar(&feedRegister, "register", false, "create a scheduled catalog feed pointing at this server")
	feedServeCmd.Flags().StringVar(&feedURL, "url", "", "public base URL of this server, used with --register")
	feedServeCmd.Flags().IntVar(&feedHour, "hour", 3, "daily fetch hour, used with --register")
}

func runFeedGenerate(cmd *cobra.Command, args []string) error {
	products, err := product.Load(productsFile)
	if err != nil {
		return err
	}

	excluder, err := newExcluder()
	if err != nil {
		return err
	}
	defer excluder.Close(context.Background())

	var valid []product.Product
	skipped := 0
	for _, p := range products {
		if !feed.Eligible(p) {
			skipped++
			continue
		}
		if err := p.Validate(); err != nil {
			logger.Warn().Err(err).Str("retailer_id", p.RetailerID()).Msg("Skipping invalid product")
			continue
		}
		valid = append(valid, p)
	}

	kept, excluded, err := excluder.Partition(cmd.Context(), valid)
	if err != nil {
		return err
	}

	if err := feed.WriteFile(cfg.Feed.Path, kept); err != nil {
		return err
	}

	logger.Info().
		Str("path", cfg.Feed.Path).
		Int("products", len(kept)).
		Int("excluded", len(excluded)).
		Int("skipped", skipped).
		Int("invalid", len(products)-len(valid)-skipped).
		Msg("Feed generated")
	return nil
}

func runFeedServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var secret feed.SecretSource = feed.StaticSecret(cfg.Feed.Secret)
	if cfg.Feed.Secret == "" {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		secret = st
	}

	if feedRegister {
		if err := registerFeed(ctx, secret); err != nil {
			return err
		}
	}

	server := feed.NewServer(cfg.Feed.Path, secret, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(cfg.Feed.Listen)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// registerFeed creates a daily scheduled feed unless the catalog already has one
func registerFeed(ctx context.Context, secret feed.SecretSource) error {
	if err := cfg.Require("catalog_id"); err != nil {
		return err
	}
	if feedURL == "" {
		return fmt.Errorf("--register requires --url")
	}

	service := catalog.NewService(graphClient, logger)
	feeds, err := service.Feeds(ctx, cfg.Business.CatalogID)
	if err != nil {
		return err
	}
	if len(feeds) > 0 {
		logger.Info().Str("feed", feeds[0].ID).Msg("Catalog feed already registered")
		return nil
	}

	value, err := secret.FeedSecret(ctx)
	if err != nil {
		return err
	}

	id, err := service.CreateFeed(ctx, cfg.Business.CatalogID, map[string]any{
		"name":     "metasync product feed",
		"schedule": catalog.FeedSchedule(feedURL+"/feed?secret="+url.QueryEscape(value), feedHour),
	})
	if err != nil {
		return err
	}

	logger.Info().Str("feed", id).Msg("Catalog feed registered")
	return nil
}
