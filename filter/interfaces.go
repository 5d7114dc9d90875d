package filter

import (
	"context"

	"github.com/s0up4200/metasync/product"
)

// Filter matches products
type Filter interface {
	// Evaluate reports whether the product matches
	Evaluate(p product.Product) bool
}

// CompiledFilter is a filter compiled from an expression
type CompiledFilter interface {
	Filter

	// Expression returns the source expression
	Expression() string
}

// Compiler compiles filter expressions
type Compiler interface {
	Compile(expression string) (CompiledFilter, error)
}

// CachingCompiler is a Compiler that keeps compiled programs
type CachingCompiler interface {
	Compiler

	// Clear removes all cached filters
	Clear()

	// Size returns the number of cached filters
	Size() int
}

// Evaluator applies a filter to a product list
type Evaluator interface {
	Evaluate(ctx context.Context, filter CompiledFilter, products []product.Product) ([]product.Product, error)
}

// WorkerPool runs submitted work with bounded concurrency
type WorkerPool interface {
	// Submit queues work, blocking while the pool is saturated
	Submit(ctx context.Context, work func()) error

	// Stop drains the queue and waits for running work
	Stop(ctx context.Context) error
}
