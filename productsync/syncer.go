// Package productsync keeps a catalog in step with WooCommerce products.
//
// Product changes are queued per retailer ID and flushed as items_batch calls.
// Products that are unpublished, invalid or matched by an exclusion rule are
// sent as deletes.
package productsync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/metasync/catalog"
	"github.com/s0up4200/metasync/graph"
	"github.com/s0up4200/metasync/product"
)

const (
	DefaultBatchSize   = catalog.MaxBatchSize
	DefaultConcurrency = 3
	DefaultInterval    = time.Minute

	shutdownTimeout = 30 * time.Second
)

// Batcher sends items_batch requests. *catalog.Service implements it.
type Batcher interface {
	ItemsBatch(ctx context.Context, catalogID string, requests []catalog.BatchRequest) (*catalog.BatchResponse, error)
}

// Excluder decides whether a product is kept out of the catalog. *filter.Manager implements it.
type Excluder interface {
	Excluded(p product.Product) (string, bool)
}

// Option configures a Syncer
type Option func(*Syncer)

// WithBatchSize sets the number of changes per items_batch call
func WithBatchSize(size int) Option {
	return func(s *Syncer) {
		if size > 0 && size <= catalog.MaxBatchSize {
			s.batchSize = size
		}
	}
}

// WithConcurrency sets how many batches are sent at once
func WithConcurrency(n int) Option {
	return func(s *Syncer) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithExcluder sets the exclusion rules
func WithExcluder(excluder Excluder) Option {
	return func(s *Syncer) {
		s.excluder = excluder
	}
}

// Syncer queues product changes and flushes them to a catalog
type Syncer struct {
	batcher     Batcher
	catalogID   string
	excluder    Excluder
	batchSize   int
	concurrency int
	queue       *Queue
	logger      zerolog.Logger
}

// New creates a Syncer for a catalog
func New(batcher Batcher, catalogID string, logger zerolog.Logger, opts ...Option) *Syncer {
	s := &Syncer{
		batcher:     batcher,
		catalogID:   catalogID,
		batchSize:   DefaultBatchSize,
		concurrency: DefaultConcurrency,
		queue:       NewQueue(),
		logger:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Queue returns the pending change queue
func (s *Syncer) Queue() *Queue {
	return s.queue
}

// Update queues an upsert, or a delete when the product must not be in the catalog.
// Variable parents are not catalog items and are ignored.
func (s *Syncer) Update(p product.Product) {
	if p.IsVariable() {
		s.logger.Debug().Str("retailer_id", p.RetailerID()).Msg("Skipping variable product, its variations are synced instead")
		return
	}
	if reason, skip := s.skipReason(p); skip {
		s.logger.Debug().Str("retailer_id", p.RetailerID()).Str("reason", reason).Msg("Product will be removed from catalog")
		s.Delete(p)
		return
	}

	s.queue.Put(p.RetailerID(), catalog.BatchRequest{
		Method: catalog.MethodUpdate,
		Data:   p.ItemData(),
	})
}

// Delete queues a delete
func (s *Syncer) Delete(p product.Product) {
	id := p.RetailerID()
	s.queue.Put(id, catalog.BatchRequest{
		Method: catalog.MethodDelete,
		Data:   map[string]any{"id": id},
	})
}

func (s *Syncer) skipReason(p product.Product) (string, bool) {
	if !p.IsPublished() {
		return "not published", true
	}
	if err := p.Validate(); err != nil {
		return err.Error(), true
	}
	if s.excluder != nil {
		if rule, excluded := s.excluder.Excluded(p); excluded {
			return "excluded by rule " + rule, true
		}
	}
	return "", false
}

// Result summarizes a flush
type Result struct {
	Requests int
	Batches  int
	Handles  []string
	Failed   []BatchError
}

// BatchError is a batch that could not be sent. Its changes were put back in the queue.
type BatchError struct {
	Index    int
	Requests int
	Err      error
}

func (e BatchError) Error() string {
	return fmt.Sprintf("batch %d (%d requests): %v", e.Index, e.Requests, e.Err)
}

func (e BatchError) Unwrap() error {
	return e.Err
}

// Err joins the batch errors, or returns nil when every batch was sent
func (r Result) Err() error {
	errs := make([]error, 0, len(r.Failed))
	for _, f := range r.Failed {
		errs = append(errs, f)
	}
	return errors.Join(errs...)
}

// Flush sends every pending change. Failed batches are requeued and reported
// in the result; they do not stop the other batches.
func (s *Syncer) Flush(ctx context.Context) Result {
	reqs := s.queue.Drain()
	result := Result{Requests: len(reqs)}
	if len(reqs) == 0 {
		return result
	}

	var chunks [][]catalog.BatchRequest
	for start := 0; start < len(reqs); start += s.batchSize {
		chunks = append(chunks, reqs[start:min(start+s.batchSize, len(reqs))])
	}
	result.Batches = len(chunks)

	type sent struct {
		index   int
		handles []string
	}
	sentChan := make(chan sent, len(chunks))
	errorChan := make(chan BatchError, len(chunks))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, chunk := range chunks {
		g.Go(func() error {
			res, err := s.batcher.ItemsBatch(ctx, s.catalogID, chunk)
			if err != nil {
				errorChan <- BatchError{Index: i, Requests: len(chunk), Err: err}
				return nil
			}
			sentChan <- sent{index: i, handles: res.Handles}
			return nil
		})
	}

	g.Wait()
	close(sentChan)
	close(errorChan)

	handles := make([][]string, len(chunks))
	for r := range sentChan {
		handles[r.index] = r.handles
	}
	for _, h := range handles {
		result.Handles = append(result.Handles, h...)
	}

	for batchErr := range errorChan {
		result.Failed = append(result.Failed, batchErr)
		s.queue.requeue(chunks[batchErr.Index])

		event := s.logger.Error()
		var rlErr *graph.RateLimitError
		if errors.As(batchErr.Err, &rlErr) {
			event = s.logger.Warn().Time("throttle_end", rlErr.ThrottleEnd)
		}
		event.Err(batchErr.Err).Int("batch", batchErr.Index).Msg("Batch failed, changes requeued")
	}

	s.logger.Info().
		Int("requests", result.Requests).
		Int("batches", result.Batches).
		Int("failed", len(result.Failed)).
		Msg("Catalog sync flushed")
	return result
}

// Run flushes the queue every interval until ctx is done, then flushes once more.
// Flush failures are logged and retried on the next tick. A non-positive
// interval uses DefaultInterval.
func (s *Syncer) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if s.queue.Len() > 0 {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				s.Flush(shutdownCtx)
				cancel()
			}
			return
		case <-ticker.C:
			if s.queue.Len() > 0 {
				s.Flush(ctx)
			}
		}
	}
}
