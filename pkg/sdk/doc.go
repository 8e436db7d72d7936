// Package facetdash embeds the facetdash query composition engine in a Go
// program, backed by Redis with the search module.
//
// A dashboard owns a registry of named queries and a list of dashboard-wide
// filters. Compose turns a panel's selection, ad-hoc query strings, stacked
// sub-queries and highlight fields into one query/filter clause tree.
//
//	client, _ := facetdash.New(ctx,
//	    facetdash.WithRedis("localhost:6379", ""),
//	    facetdash.WithSearchIndex("logs"),
//	)
//	defer client.Close()
//
//	ops := client.Dashboard("ops")
//	_, _ = ops.AddQuery(ctx, facetdash.QuerySpec{Query: facetdash.Ptr("status:500")})
//	_, _ = ops.AddQuery(ctx, facetdash.QuerySpec{
//	    Type:  facetdash.Ptr(facetdash.TopN),
//	    Field: facetdash.Ptr("host"),
//	})
//	parts, _ := ops.Compose(ctx, facetdash.ComposeRequest{
//	    Selection: facetdash.Selection{Mode: facetdash.ModeAll},
//	    Highlight: []string{"message"},
//	})
package facetdash
