package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/s0up4200/metasync/catalog"
	"github.com/s0up4200/metasync/filter"
	"github.com/s0up4200/metasync/product"
	"github.com/s0up4200/metasync/productsync"
)

var (
	productsFile string
	watch        bool
	deleteAll    bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync products to the catalog",
	Long: `Send product changes to the catalog with items_batch requests.

Products are read from a JSON export (--products). Unpublished, invalid and
excluded products are removed from the catalog. With --watch, product change
events are consumed from Kafka and flushed every sync.interval until stopped.`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().StringVarP(&productsFile, "products", "p", "", "JSON product export (- for stdin)")
	syncCmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep running and consume product events from Kafka")
	syncCmd.Flags().BoolVar(&deleteAll, "delete", false, "delete the given products instead of updating them")
}

func newExcluder() (*filter.Manager, error) {
	manager := filter.NewManager()
	if err := manager.RegisterAll(cfg.Sync.Exclude); err != nil {
		manager.Close(context.Background())
		return nil, err
	}
	if len(cfg.Sync.Exclude) > 0 {
		logger.Debug().Strs("rules", manager.Names()).Msg("Loaded exclusion rules")
	}
	return manager, nil
}

func runSync(cmd *cobra.Command, args []string) error {
	if err := cfg.Require("catalog_id"); err != nil {
		return err
	}
	if productsFile == "" && !watch {
		return fmt.Errorf("nothing to sync: pass --products or --watch")
	}
	if watch && !cfg.Kafka.Enabled() {
		return fmt.Errorf("--watch requires kafka.brokers and kafka.topic")
	}

	ctx := cmd.Context()

	excluder, err := newExcluder()
	if err != nil {
		return err
	}
	defer excluder.Close(context.Background())

	syncer := productsync.New(catalog.NewService(graphClient, logger), cfg.Business.CatalogID, logger,
		productsync.WithBatchSize(cfg.Sync.BatchSize),
		productsync.WithConcurrency(cfg.Sync.Concurrency),
		productsync.WithExcluder(excluder),
	)

	if productsFile != "" {
		products, err := product.Load(productsFile)
		if err != nil {
			return err
		}
		for _, p := range products {
			if deleteAll {
				syncer.Delete(p)
			} else {
				syncer.Update(p)
			}
		}
	}

	if !watch {
		result := syncer.Flush(ctx)
		fmt.Printf("Sent %d requests in %d batches\n", result.Requests, result.Batches)
		for _, handle := range result.Handles {
			fmt.Printf("  • %s\n", handle)
		}
		return result.Err()
	}

	source, err := productsync.NewKafkaSource(productsync.KafkaConfig{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
		GroupID: cfg.Kafka.GroupID,
	}, syncer, logger)
	if err != nil {
		return err
	}

	logger.Info().
		Strs("brokers", cfg.Kafka.Brokers).
		Str("topic", cfg.Kafka.Topic).
		Dur("interval", cfg.Sync.Interval).
		Msg("Watching product events")

	return source.Run(ctx, cfg.Sync.Interval)
}
