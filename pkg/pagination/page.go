package pagination

import (
	"encoding/json"
	"fmt"

	"github.com/jose-oc/sequoia-client-go/pkg/model"
)

// LinkedPageLink is one entry of a page's meta.linked block: the cursor
// state of a sideloaded relation's own chain as of this primary page.
type LinkedPageLink struct {
	Request string `json:"request"`
	Page    int    `json:"page"`
	Next    string `json:"next"`
}

// Meta is a page's metadata block.
type Meta struct {
	// Next is the cursor path for the next primary page, empty on the
	// last page.
	Next string `json:"next"`

	// Linked maps relation names to their per-relation cursor state.
	Linked map[string][]LinkedPageLink `json:"linked"`
}

// Page is one fetched response of a paginated collection. Immutable once
// fetched: the browser never revisits or rewrites a page.
type Page struct {
	body         map[string][]model.Resource
	linked       map[string][]model.Resource
	meta         Meta
	resourceName string
	resources    []model.Resource
}

// ParsePage decodes a raw page payload for the named primary resource.
func ParsePage(data []byte, resourceName string) (*Page, error) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	page := &Page{
		body:         make(map[string][]model.Resource),
		resourceName: resourceName,
	}

	for key, raw := range root {
		switch key {
		case "meta":
			if err := json.Unmarshal(raw, &page.meta); err != nil {
				return nil, fmt.Errorf("parse page meta: %w", err)
			}
		case "linked":
			if err := json.Unmarshal(raw, &page.linked); err != nil {
				return nil, fmt.Errorf("parse page linked block: %w", err)
			}
		default:
			// Resource arrays only; scalar bookkeeping fields are skipped
			var resources []model.Resource
			if err := json.Unmarshal(raw, &resources); err == nil {
				page.body[key] = resources
			}
		}
	}

	return page, nil
}

// Resolve populates the page's primary resource array through the model
// builder, or with the raw array when no builder is available.
func (p *Page) Resolve(builder *model.Builder) {
	if builder != nil {
		p.resources = builder.Build(p.body, p.linked, p.resourceName)
	} else {
		p.resources = p.body[p.resourceName]
	}
}

// Resources returns the page's resolved primary resource array: the model
// builder's output when a descriptor was available, the raw array otherwise.
func (p *Page) Resources() []model.Resource {
	return p.resources
}

// LinkedResources returns the sideloaded array for the relation, or nil
// when the page carries no sideload block for it.
func (p *Page) LinkedResources(relation string) []model.Resource {
	return p.linked[relation]
}

// NextCursor returns the meta.next cursor path, empty on the last page.
func (p *Page) NextCursor() string {
	return p.meta.Next
}

// Continuations returns the next-references recorded under
// meta.linked[relation] whose page number equals continuationPage, the
// marker that the relation's own first page was partial.
func (p *Page) Continuations(relation string, continuationPage int) []string {
	var refs []string
	for _, link := range p.meta.Linked[relation] {
		if link.Next != "" && link.Page == continuationPage {
			refs = append(refs, link.Next)
		}
	}
	return refs
}
