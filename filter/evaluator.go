package filter

import (
	"context"
	"runtime"
	"sync"

	"github.com/s0up4200/metasync/product"
)

// EvaluatorOption configures an evaluator
type EvaluatorOption func(*ConcurrentEvaluator)

// WithWorkers sets the number of worker goroutines
func WithWorkers(workers int) EvaluatorOption {
	return func(e *ConcurrentEvaluator) {
		e.workerCount = workers
	}
}

// WithBatchSize sets the smallest chunk handed to a worker
func WithBatchSize(size int) EvaluatorOption {
	return func(e *ConcurrentEvaluator) {
		if size > 0 {
			e.batchSize = size
		}
	}
}

// ConcurrentEvaluator evaluates filters over product lists using a worker pool
type ConcurrentEvaluator struct {
	workerCount int
	batchSize   int
	pool        WorkerPool
}

// NewConcurrentEvaluator creates an evaluator and starts its pool
func NewConcurrentEvaluator(opts ...EvaluatorOption) *ConcurrentEvaluator {
	e := &ConcurrentEvaluator{
		workerCount: runtime.GOMAXPROCS(0),
		batchSize:   100,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.workerCount <= 0 {
		e.workerCount = 1
	}

	e.pool = NewWorkerPool(e.workerCount)
	return e
}

// Evaluate returns the products matching filter, in input order
func (e *ConcurrentEvaluator) Evaluate(ctx context.Context, filter CompiledFilter, products []product.Product) ([]product.Product, error) {
	if len(products) == 0 {
		return []product.Product{}, nil
	}
	if len(products) < e.batchSize {
		return evaluateSequential(filter, products), nil
	}
	return e.evaluateConcurrent(ctx, filter, products)
}

func evaluateSequential(filter Filter, products []product.Product) []product.Product {
	matches := make([]product.Product, 0, len(products)/4)
	for _, p := range products {
		if filter.Evaluate(p) {
			matches = append(matches, p)
		}
	}
	return matches
}

func (e *ConcurrentEvaluator) evaluateConcurrent(ctx context.Context, filter CompiledFilter, products []product.Product) ([]product.Product, error) {
	chunkSize := max(len(products)/e.workerCount, e.batchSize)
	chunks := (len(products) + chunkSize - 1) / chunkSize
	results := make([][]product.Product, chunks)

	var wg sync.WaitGroup
	for i := range chunks {
		start := i * chunkSize
		chunk := products[start:min(start+chunkSize, len(products))]

		wg.Add(1)
		err := e.pool.Submit(ctx, func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			results[i] = evaluateSequential(filter, chunk)
		})
		if err != nil {
			wg.Done()
			wg.Wait()
			return nil, err
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	total := 0
	for _, r := range results {
		total += len(r)
	}
	matches := make([]product.Product, 0, total)
	for _, r := range results {
		matches = append(matches, r...)
	}
	return matches, nil
}

// Stop stops the worker pool
func (e *ConcurrentEvaluator) Stop(ctx context.Context) error {
	return e.pool.Stop(ctx)
}
