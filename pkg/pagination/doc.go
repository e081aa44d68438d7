// Package pagination implements lazy cursor-chain browsing of Sequoia
// resource collections.
//
// A PageBrowser owns one cursor chain for one collection: it optionally
// prefetches the first pages at construction, then follows each page's
// meta.next cursor on demand. A LinkedResourcesPageBrowser composes a
// PageBrowser with the per-relation continuation hints found in each
// page's meta.linked block, producing an independent page sequence for one
// sideloaded relation.
//
// Example usage:
//
//	browser, err := pagination.New(ctx, exec, service.Location, "contents", pagination.Options{
//		Params:        url.Values{"owner": []string{"demo"}},
//		PrefetchPages: pagination.DefaultPrefetchPages,
//	})
//	for {
//		page, err := browser.Next(ctx)
//		if errors.Is(err, pagination.ErrNoMorePages) {
//			break
//		}
//		// use page.Resources()
//	}
//
// Browsers are forward-only and non-restartable. Their cursor state lives
// on the browser itself, so two loops advancing the same browser interleave
// over a single shared position; iterate a fresh browser for an independent
// pass.
package pagination
