package pagination

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"testing"

	"github.com/jose-oc/sequoia-client-go/pkg/model"
)

// fakeGetter serves canned page payloads and records every request target
// it sees, with caller params merged the way the transport does.
type fakeGetter struct {
	t       *testing.T
	handler func(u *url.URL) (string, bool)
	targets []string
}

func newFakeGetter(t *testing.T, handler func(u *url.URL) (string, bool)) *fakeGetter {
	t.Helper()
	return &fakeGetter{t: t, handler: handler}
}

func (f *fakeGetter) Get(ctx context.Context, rawURL string, params url.Values, resourceName string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}

	query := u.Query()
	for key, values := range params {
		for _, value := range values {
			query.Add(key, value)
		}
	}
	u.RawQuery = query.Encode()
	f.targets = append(f.targets, u.String())

	body, ok := f.handler(u)
	if !ok {
		return nil, fmt.Errorf("no canned response for %s", u.String())
	}
	return []byte(body), nil
}

// makeResources builds n resources named <prefix>0..<prefix>n-1.
func makeResources(prefix string, n int) []model.Resource {
	resources := make([]model.Resource, n)
	for i := 0; i < n; i++ {
		resources[i] = model.Resource{
			"ref":   fmt.Sprintf("test:%s%d", prefix, i),
			"owner": "test",
			"name":  fmt.Sprintf("%s%d", prefix, i),
		}
	}
	return resources
}

// pageDoc assembles a page payload.
type pageDoc struct {
	resourceName string
	resources    []model.Resource
	next         string
	linked       map[string][]model.Resource
	metaLinked   map[string][]LinkedPageLink
}

func (d pageDoc) JSON(t *testing.T) string {
	t.Helper()

	meta := map[string]any{}
	if d.next != "" {
		meta["next"] = d.next
	}
	if d.metaLinked != nil {
		meta["linked"] = d.metaLinked
	}

	doc := map[string]any{
		d.resourceName: d.resources,
		"meta":         meta,
	}
	if d.linked != nil {
		doc["linked"] = d.linked
	}

	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal page doc: %v", err)
	}
	return string(data)
}

// collectPages drains the browser and returns the resolved arrays in order.
func collectPages(t *testing.T, b *PageBrowser) [][]model.Resource {
	t.Helper()

	var pages [][]model.Resource
	for {
		page, err := b.Next(context.Background())
		if err == ErrNoMorePages {
			return pages
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		pages = append(pages, page.Resources())
	}
}
