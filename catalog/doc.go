// Package catalog binds the Graph API product catalog endpoints: catalogs,
// product items and groups, product sets, items_batch updates and product feeds.
//
// Every endpoint has a request constructor (pure, easy to assert on) and a
// Service method that sends it through a graph.Doer:
//
//	svc := catalog.NewService(client, logger)
//	items, err := svc.ProductGroupProducts(ctx, groupID, 1000)
//	ids := items.IDs() // retailer_id -> item id
//
// All catalog requests are billed against graph.BucketCatalog.
package catalog
