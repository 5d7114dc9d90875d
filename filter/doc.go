// Package filter compiles expr-lang expressions into product filters.
//
// Filters are boolean expressions over a product snapshot:
//
//	hasTag("no-facebook") or (inCategory("Gift cards") and Price < 5)
//	not Published or daysSince(Modified) > 365
//
// A Manager holds named rules used as catalog sync exclusions. Compiled
// programs are cached and large product lists are evaluated on a worker pool.
package filter
