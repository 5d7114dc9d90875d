// Package commerce binds the Graph API commerce order endpoints.
//
// Orders are listed per commerce merchant settings (CMS) account and managed
// through acknowledge, shipment, refund and cancellation calls. Every mutating
// request is idempotent, so retrying the same *graph.Request never applies a
// change twice.
package commerce
