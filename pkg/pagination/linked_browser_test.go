package pagination

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/jose-oc/sequoia-client-go/pkg/model"
)

// linkedChainGetter serves a three-page contents collection whose assets
// relation sideloads its first batch on page one and continues over two
// more pages of its own chain.
func linkedChainGetter(t *testing.T, continuationPage int) *fakeGetter {
	t.Helper()

	page1 := pageDoc{
		resourceName: "contents",
		resources:    makeResources("content", 100),
		next:         "/data/contents?owner=test&page=2",
		linked:       map[string][]model.Resource{"assets": makeResources("asset", 100)},
		metaLinked: map[string][]LinkedPageLink{
			"assets": {
				{
					Request: "/data/assets?withContentRef=test:content0&page=1",
					Page:    continuationPage,
					Next:    "/data/assets?withContentRef=test:content0&page=2",
				},
			},
		},
	}.JSON(t)

	page2 := pageDoc{
		resourceName: "contents",
		resources:    makeResources("content", 100),
		next:         "/data/contents?owner=test&page=3",
	}.JSON(t)

	page3 := pageDoc{
		resourceName: "contents",
		resources:    makeResources("content", 46),
	}.JSON(t)

	assets2 := pageDoc{
		resourceName: "assets",
		resources:    makeResources("more-asset", 157),
		next:         "/data/assets?withContentRef=test:content0&page=3",
	}.JSON(t)

	assets3 := pageDoc{
		resourceName: "assets",
		resources:    makeResources("last-asset", 46),
	}.JSON(t)

	return newFakeGetter(t, func(u *url.URL) (string, bool) {
		page := u.Query().Get("page")
		switch u.Path {
		case "/data/contents":
			switch page {
			case "":
				return page1, true
			case "2":
				return page2, true
			case "3":
				return page3, true
			}
		case "/data/assets":
			switch page {
			case "2":
				return assets2, true
			case "3":
				return assets3, true
			}
		}
		return "", false
	})
}

func newContentsBrowser(t *testing.T, getter *fakeGetter, opts Options) *PageBrowser {
	t.Helper()

	if opts.Params == nil {
		opts.Params = url.Values{"owner": []string{"test"}}
	}
	browser, err := New(context.Background(), getter, testLocation, "contents", opts)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return browser
}

func drainLinked(t *testing.T, linked *LinkedResourcesPageBrowser) [][]model.Resource {
	t.Helper()

	var batches [][]model.Resource
	for {
		batch, err := linked.Next(context.Background())
		if errors.Is(err, ErrNoMorePages) {
			return batches
		}
		if err != nil {
			t.Fatalf("linked Next failed: %v", err)
		}
		batches = append(batches, batch)
	}
}

func TestLinkedBrowser_WalksContinuationChain(t *testing.T) {
	getter := linkedChainGetter(t, DefaultContinuationPage)
	browser := newContentsBrowser(t, getter, Options{})

	batches := drainLinked(t, browser.Linked("assets"))

	if len(batches) != 3 {
		t.Fatalf("Linked batches = %d, want 3", len(batches))
	}
	sizes := []int{len(batches[0]), len(batches[1]), len(batches[2])}
	if sizes[0] != 100 || sizes[1] != 157 || sizes[2] != 46 {
		t.Errorf("Batch sizes = %v, want [100 157 46]", sizes)
	}

	// 1 primary page + 2 continuation pages + 2 further primary pages
	if len(getter.targets) != 5 {
		t.Fatalf("Total requests = %d, want 5: %v", len(getter.targets), getter.targets)
	}

	wantPaths := []string{
		"/data/contents",
		"/data/assets",
		"/data/assets",
		"/data/contents",
		"/data/contents",
	}
	for i, target := range getter.targets {
		u, err := url.Parse(target)
		if err != nil {
			t.Fatalf("parse target %q: %v", target, err)
		}
		if u.Path != wantPaths[i] {
			t.Errorf("Request %d path = %s, want %s", i, u.Path, wantPaths[i])
		}
	}
}

func TestLinkedBrowser_ContinuationCarriesOwner(t *testing.T) {
	getter := linkedChainGetter(t, DefaultContinuationPage)
	browser := newContentsBrowser(t, getter, Options{})

	drainLinked(t, browser.Linked("assets"))

	// Request 1 is the first continuation fetch
	u, err := url.Parse(getter.targets[1])
	if err != nil {
		t.Fatalf("parse continuation target: %v", err)
	}
	if got := u.Query().Get("owner"); got != "test" {
		t.Errorf("Continuation owner param = %q, want %q", got, "test")
	}
	if got := u.Query().Get("withContentRef"); got != "test:content0" {
		t.Errorf("Continuation filter param = %q, want %q", got, "test:content0")
	}
}

func TestLinkedBrowser_ResourcesBeforeIteration(t *testing.T) {
	getter := linkedChainGetter(t, DefaultContinuationPage)
	browser := newContentsBrowser(t, getter, Options{})

	linked := browser.Linked("assets")

	resources, err := linked.Resources(context.Background())
	if err != nil {
		t.Fatalf("Resources failed: %v", err)
	}
	if len(resources) != 100 {
		t.Fatalf("First batch via Resources = %d, want 100", len(resources))
	}
	if len(getter.targets) != 1 {
		t.Errorf("Requests after Resources = %d, want 1", len(getter.targets))
	}

	// The peeked page is still yielded by iteration, with unchanged totals
	batches := drainLinked(t, linked)
	if len(batches) != 3 {
		t.Errorf("Linked batches = %d, want 3", len(batches))
	}
	if len(getter.targets) != 5 {
		t.Errorf("Total requests = %d, want 5", len(getter.targets))
	}
}

func TestLinkedBrowser_IgnoresNonContinuablePages(t *testing.T) {
	// Continuation entries recorded with a page number other than the
	// threshold mark complete chains and must not be followed.
	getter := linkedChainGetter(t, 2)
	browser := newContentsBrowser(t, getter, Options{})

	batches := drainLinked(t, browser.Linked("assets"))

	if len(batches) != 1 {
		t.Fatalf("Linked batches = %d, want 1", len(batches))
	}
	if len(batches[0]) != 100 {
		t.Errorf("Batch size = %d, want 100", len(batches[0]))
	}
	for _, target := range getter.targets {
		u, _ := url.Parse(target)
		if u.Path == "/data/assets" {
			t.Errorf("Continuation fetched despite non-matching page marker: %s", target)
		}
	}
}

func TestLinkedBrowser_ConfigurableContinuationPage(t *testing.T) {
	getter := linkedChainGetter(t, 3)
	browser := newContentsBrowser(t, getter, Options{ContinuationPage: 3})

	batches := drainLinked(t, browser.Linked("assets"))

	if len(batches) != 3 {
		t.Fatalf("Linked batches = %d, want 3", len(batches))
	}
	if len(batches[1]) != 157 {
		t.Errorf("Continuation batch size = %d, want 157", len(batches[1]))
	}
}

func TestLinkedBrowser_IndependentOfPrimaryIteration(t *testing.T) {
	getter := linkedChainGetter(t, DefaultContinuationPage)
	browser := newContentsBrowser(t, getter, Options{})

	// Consuming the primary sequence first must not affect the linked
	// iterator: Linked opens its own independent cursor chain.
	pages := collectPages(t, browser)
	if len(pages) != 3 {
		t.Fatalf("Primary pages = %d, want 3", len(pages))
	}

	batches := drainLinked(t, browser.Linked("assets"))
	if len(batches) != 3 {
		t.Errorf("Linked batches = %d, want 3", len(batches))
	}
}
