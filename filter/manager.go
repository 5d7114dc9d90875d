package filter

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/s0up4200/metasync/product"
)

// Manager holds named exclusion rules. A product matching any rule is
// excluded from catalog sync.
type Manager struct {
	compiler  Compiler
	evaluator *ConcurrentEvaluator
	mu        sync.RWMutex
	rules     map[string]CompiledFilter
}

// ManagerOption configures a Manager
type ManagerOption func(*Manager)

// WithCompiler sets the compiler used for rules
func WithCompiler(compiler Compiler) ManagerOption {
	return func(m *Manager) {
		m.compiler = compiler
	}
}

// WithEvaluator sets the evaluator used for product lists
func WithEvaluator(evaluator *ConcurrentEvaluator) ManagerOption {
	return func(m *Manager) {
		m.evaluator = evaluator
	}
}

// NewManager creates an empty rule set
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		rules: make(map[string]CompiledFilter),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.compiler == nil {
		m.compiler = NewExprCompiler(WithCache(DefaultCacheSize))
	}
	if m.evaluator == nil {
		m.evaluator = NewConcurrentEvaluator()
	}
	return m
}

// Register compiles and adds or replaces a rule
func (m *Manager) Register(name, expression string) error {
	f, err := m.compiler.Compile(expression)
	if err != nil {
		return fmt.Errorf("failed to compile rule '%s': %w", name, err)
	}

	m.mu.Lock()
	m.rules[name] = f
	m.mu.Unlock()
	return nil
}

// RegisterAll compiles every rule first and registers them only if all compile
func (m *Manager) RegisterAll(rules map[string]string) error {
	compiled := make(map[string]CompiledFilter, len(rules))
	for name, expression := range rules {
		f, err := m.compiler.Compile(expression)
		if err != nil {
			return fmt.Errorf("failed to compile rule '%s': %w", name, err)
		}
		compiled[name] = f
	}

	m.mu.Lock()
	maps.Copy(m.rules, compiled)
	m.mu.Unlock()
	return nil
}

// Unregister removes a rule
func (m *Manager) Unregister(name string) {
	m.mu.Lock()
	delete(m.rules, name)
	m.mu.Unlock()
}

// Rule returns a compiled rule by name
func (m *Manager) Rule(name string) (CompiledFilter, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.rules[name]
	return f, ok
}

// Names returns the registered rule names, sorted
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.Sorted(maps.Keys(m.rules))
}

// Excluded reports the first rule, in name order, that excludes the product
func (m *Manager) Excluded(p product.Product) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, name := range slices.Sorted(maps.Keys(m.rules)) {
		if m.rules[name].Evaluate(p) {
			return name, true
		}
	}
	return "", false
}

// Matching evaluates a single rule over a product list
func (m *Manager) Matching(ctx context.Context, name string, products []product.Product) ([]product.Product, error) {
	f, ok := m.Rule(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRule, name)
	}
	return m.evaluator.Evaluate(ctx, f, products)
}

// Partition splits products into those kept for sync and those excluded by any rule
func (m *Manager) Partition(ctx context.Context, products []product.Product) (kept, excluded []product.Product, err error) {
	excludedIDs := make(map[string]struct{})
	for _, name := range m.Names() {
		matches, err := m.Matching(ctx, name, products)
		if err != nil {
			return nil, nil, err
		}
		for _, p := range matches {
			excludedIDs[p.RetailerID()] = struct{}{}
		}
	}

	for _, p := range products {
		if _, ok := excludedIDs[p.RetailerID()]; ok {
			excluded = append(excluded, p)
		} else {
			kept = append(kept, p)
		}
	}
	return kept, excluded, nil
}

// Close stops the evaluator
func (m *Manager) Close(ctx context.Context) error {
	return m.evaluator.Stop(ctx)
}
