package filter

import (
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/s0up4200/metasync/product"
)

// DefaultCacheSize is the number of compiled programs kept by NewManager
const DefaultCacheSize = 100

// ExprCompilerOption configures an expr compiler
type ExprCompilerOption func(*exprCompiler)

// WithCache keeps up to size compiled programs
func WithCache(size int) ExprCompilerOption {
	return func(c *exprCompiler) {
		if size > 0 {
			c.cache = newLRUCache[CompiledFilter](size)
		}
	}
}

// WithCustomFunctions adds helper functions available to every expression
func WithCustomFunctions(funcs map[string]any) ExprCompilerOption {
	return func(c *exprCompiler) {
		maps.Copy(c.custom, funcs)
	}
}

type exprCompiler struct {
	custom map[string]any
	cache  *lruCache[CompiledFilter]
}

// NewExprCompiler creates an expr-lang based compiler
func NewExprCompiler(opts ...ExprCompilerOption) CachingCompiler {
	c := &exprCompiler{custom: map[string]any{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile compiles an expression into a filter. Expressions are type checked
// against the product environment, so unknown names fail here rather than at
// evaluation time.
func (c *exprCompiler) Compile(expression string) (CompiledFilter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, &CompilationError{Expression: expression, Reason: "empty expression"}
	}

	if c.cache != nil {
		if cached, ok := c.cache.Get(expression); ok {
			return cached, nil
		}
	}

	program, err := expr.Compile(expression,
		expr.Env(c.environment(product.Product{})),
		expr.AsBool(),
	)
	if err != nil {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "failed to compile expression",
			Err:        err,
		}
	}

	f := &exprFilter{
		expression: expression,
		program:    program,
		compiler:   c,
	}
	if c.cache != nil {
		c.cache.Put(expression, f)
	}
	return f, nil
}

func (c *exprCompiler) Clear() {
	if c.cache != nil {
		c.cache.Clear()
	}
}

func (c *exprCompiler) Size() int {
	if c.cache != nil {
		return c.cache.Len()
	}
	return 0
}

func (c *exprCompiler) environment(p product.Product) map[string]any {
	env := createRuntimeEnvironment(p)
	maps.Copy(env, c.custom)
	return env
}

type exprFilter struct {
	expression string
	program    *vm.Program
	compiler   *exprCompiler
}

// Evaluate reports whether the product matches. Runtime errors count as no match.
func (f *exprFilter) Evaluate(p product.Product) bool {
	matched, err := f.Run(p)
	return err == nil && matched
}

// Run evaluates the filter and reports runtime errors
func (f *exprFilter) Run(p product.Product) (bool, error) {
	result, err := expr.Run(f.program, f.compiler.environment(p))
	if err != nil {
		return false, &EvaluationError{Expression: f.expression, RetailerID: p.RetailerID(), Err: err}
	}
	return result.(bool), nil
}

func (f *exprFilter) Expression() string {
	return f.expression
}

func addHelperFunctions(env map[string]any) {
	env["daysSince"] = func(t time.Time) int {
		return int(time.Since(t).Hours() / 24)
	}
	env["daysAgo"] = func(days int) time.Time {
		return time.Now().AddDate(0, 0, -days)
	}
	env["monthsAgo"] = func(months int) time.Time {
		return time.Now().AddDate(0, -months, 0)
	}
	env["parseDate"] = func(date string) time.Time {
		t, _ := time.Parse("2006-01-02", date)
		return t
	}
	env["contains"] = func(str, substr string) bool {
		return strings.Contains(strings.ToLower(str), strings.ToLower(substr))
	}
	env["startsWith"] = func(str, prefix string) bool {
		return strings.HasPrefix(strings.ToLower(str), strings.ToLower(prefix))
	}
	env["endsWith"] = func(str, suffix string) bool {
		return strings.HasSuffix(strings.ToLower(str), strings.ToLower(suffix))
	}
	env["lower"] = strings.ToLower
	env["upper"] = strings.ToUpper
	env["now"] = time.Now
}

func createRuntimeEnvironment(p product.Product) map[string]any {
	env := make(map[string]any, 48)
	addHelperFunctions(env)

	env["Product"] = p
	env["hasTag"] = createContainsFoldFunc(p.Tags)
	env["inCategory"] = createContainsFoldFunc(p.Categories)
	env["hasAttribute"] = createHasAttributeFunc(p.Attributes)
	env["attribute"] = createAttributeFunc(p.Attributes)

	stock, managed := 0, p.StockQuantity != nil
	if managed {
		stock = *p.StockQuantity
	}

	env["ID"] = p.ID
	env["SKU"] = p.SKU
	env["RetailerID"] = p.RetailerID()
	env["Title"] = p.Title
	env["Type"] = p.Type
	env["Price"] = p.Price
	env["SalePrice"] = p.SalePrice
	env["OnSale"] = p.OnSale()
	env["Currency"] = p.Currency
	env["StockStatus"] = p.StockStatus
	env["StockQuantity"] = stock
	env["ManagesStock"] = managed
	env["InStock"] = p.InStock()
	env["Visibility"] = p.Visibility
	env["Status"] = p.Status
	env["Published"] = p.IsPublished()
	env["IsVariation"] = p.IsVariation()
	env["Categories"] = p.Categories
	env["Tags"] = p.Tags
	env["Brand"] = p.Brand
	env["HasImage"] = p.ImageURL != ""
	env["Created"] = p.Created
	env["Modified"] = p.Modified

	return env
}

func createContainsFoldFunc(values []string) func(string) bool {
	lower := make([]string, len(values))
	for i, v := range values {
		lower[i] = strings.ToLower(v)
	}
	return func(value string) bool {
		return slices.Contains(lower, strings.ToLower(value))
	}
}

func createHasAttributeFunc(attributes map[string]string) func(string) bool {
	return func(name string) bool {
		for key := range attributes {
			if strings.EqualFold(key, name) {
				return true
			}
		}
		return false
	}
}

func createAttributeFunc(attributes map[string]string) func(string) string {
	return func(name string) string {
		for key, value := range attributes {
			if strings.EqualFold(key, name) {
				return value
			}
		}
		return ""
	}
}
