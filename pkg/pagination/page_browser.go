package pagination

import (
	"context"
	"errors"
	"net/url"

	"github.com/jose-oc/sequoia-client-go/pkg/criteria"
	"github.com/jose-oc/sequoia-client-go/pkg/descriptor"
	"github.com/jose-oc/sequoia-client-go/pkg/logging"
	"github.com/jose-oc/sequoia-client-go/pkg/model"
	"github.com/rs/zerolog"
)

// ErrNoMorePages signals the end of a page sequence.
var ErrNoMorePages = errors.New("no more pages")

const (
	// DefaultPrefetchPages is the number of pages fetched eagerly at
	// browse time when the caller does not say otherwise.
	DefaultPrefetchPages = 1

	// DefaultContinuationPage is the page number marking a linked
	// relation's chain as continuable. It matches the backing service's
	// fixed page-size contract; override via Options.ContinuationPage.
	DefaultContinuationPage = 5
)

// Getter performs one HTTP GET. Satisfied by transport.Executor.
type Getter interface {
	Get(ctx context.Context, rawURL string, params url.Values, resourceName string) ([]byte, error)
}

// Options configure a PageBrowser.
type Options struct {
	// QueryString is a caller-supplied raw query string appended to the
	// initial request target.
	QueryString string

	// Params are the caller-level request parameters (owner, criteria
	// filters, fields).
	Params url.Values

	// Criteria is the filter/inclusion specification; only its inclusion
	// entries are read here.
	Criteria *criteria.Criteria

	// Descriptor enables relationship resolution on fetched pages.
	Descriptor *descriptor.Descriptor

	// PrefetchPages is the number of pages fetched at construction.
	PrefetchPages int

	// ContinuationPage overrides DefaultContinuationPage when > 0.
	ContinuationPage int
}

// PageBrowser walks one cursor chain of one resource collection as a lazy,
// forward-only sequence of pages. The browser is single-owner mutable
// state: it is not safe for concurrent use, and it is not restartable.
// Nested loops advancing the same browser share one cursor position; the
// pages they observe interleave rather than repeat.
type PageBrowser struct {
	exec             Getter
	serviceLocation  string
	resourceName     string
	queryString      string
	params           url.Values
	owner            string
	criteria         *criteria.Criteria
	descriptor       *descriptor.Descriptor
	builder          *model.Builder
	continuationPage int
	nextURL          string
	buffer           []*Page
	logger           zerolog.Logger
}

// New creates a browser over the collection at
// <serviceLocation>/data/<resourceName> and performs the configured
// prefetch. With Options.PrefetchPages > 0 construction blocks for that
// many round trips.
func New(ctx context.Context, exec Getter, serviceLocation, resourceName string, opts Options) (*PageBrowser, error) {
	b := newBrowser(exec, serviceLocation, resourceName, opts)

	for i := 0; i < opts.PrefetchPages; i++ {
		page, err := b.fetch(ctx)
		if err != nil {
			if errors.Is(err, ErrNoMorePages) {
				break
			}
			return nil, err
		}
		b.buffer = append(b.buffer, page)
		if b.nextURL == "" {
			break
		}
	}

	return b, nil
}

func newBrowser(exec Getter, serviceLocation, resourceName string, opts Options) *PageBrowser {
	continuationPage := opts.ContinuationPage
	if continuationPage <= 0 {
		continuationPage = DefaultContinuationPage
	}

	var builder *model.Builder
	if opts.Descriptor != nil {
		builder = model.NewBuilder(opts.Descriptor, opts.Criteria)
	}

	params := cloneParams(opts.Params)

	b := &PageBrowser{
		exec:             exec,
		serviceLocation:  serviceLocation,
		resourceName:     resourceName,
		queryString:      opts.QueryString,
		params:           params,
		owner:            params.Get("owner"),
		criteria:         opts.Criteria,
		descriptor:       opts.Descriptor,
		builder:          builder,
		continuationPage: continuationPage,
		logger:           logging.NewLogger("pagination"),
	}
	b.nextURL = b.initialURL()

	return b
}

// initialURL computes the first request target.
func (b *PageBrowser) initialURL() string {
	target := b.serviceLocation + "/data/" + b.resourceName
	if b.queryString != "" {
		target += "?" + b.queryString
	}
	return target
}

// Next advances the sequence: the buffer head when one is waiting, else one
// fetch when a next target is known, else ErrNoMorePages.
func (b *PageBrowser) Next(ctx context.Context) (*Page, error) {
	if len(b.buffer) > 0 {
		page := b.buffer[0]
		b.buffer = b.buffer[1:]
		return page, nil
	}

	if b.nextURL != "" {
		return b.fetch(ctx)
	}

	return nil, ErrNoMorePages
}

// Peek returns the next page without consuming it, fetching into the buffer
// when nothing is buffered yet.
func (b *PageBrowser) Peek(ctx context.Context) (*Page, error) {
	if len(b.buffer) > 0 {
		return b.buffer[0], nil
	}

	if b.nextURL != "" {
		page, err := b.fetch(ctx)
		if err != nil {
			return nil, err
		}
		b.buffer = append(b.buffer, page)
		return page, nil
	}

	return nil, ErrNoMorePages
}

// Resources returns the first buffered page's resolved resource array
// without advancing the sequence, or nil when nothing is buffered.
func (b *PageBrowser) Resources() []model.Resource {
	if len(b.buffer) > 0 {
		return b.buffer[0].Resources()
	}
	return nil
}

// Linked creates an independent iterator over the cursor chain of the
// named sideloaded relation. The wrapped primary browser starts from the
// same initial target with no prefetch.
func (b *PageBrowser) Linked(relation string) *LinkedResourcesPageBrowser {
	main := newBrowser(b.exec, b.serviceLocation, b.resourceName, Options{
		QueryString:      b.queryString,
		Params:           b.params,
		Criteria:         b.criteria,
		Descriptor:       b.descriptor,
		ContinuationPage: b.continuationPage,
	})

	return newLinkedBrowser(b.exec, main, relation, b.owner)
}

// fetch performs one round trip on the current next target and advances the
// internal pointer from the fetched page's metadata.
func (b *PageBrowser) fetch(ctx context.Context) (*Page, error) {
	if b.nextURL == "" {
		return nil, ErrNoMorePages
	}

	b.stripOwnerIfNeeded()

	body, err := b.exec.Get(ctx, b.nextURL, b.params, b.resourceName)
	if err != nil {
		return nil, err
	}

	page, err := ParsePage(body, b.resourceName)
	if err != nil {
		return nil, err
	}

	page.Resolve(b.builder)

	if next := page.NextCursor(); next != "" {
		b.nextURL = b.serviceLocation + next
	} else {
		b.nextURL = ""
	}

	b.logger.Debug().
		Str("resource", b.resourceName).
		Int("resources", len(page.resources)).
		Bool("has_next", b.nextURL != "").
		Msg("Fetched page")

	return page, nil
}

// stripOwnerIfNeeded removes the caller-level owner parameter once the next
// target's query string already carries one. Server-supplied cursors are
// self-contained on that axis; passing owner twice conflicts.
func (b *PageBrowser) stripOwnerIfNeeded() {
	u, err := url.Parse(b.nextURL)
	if err != nil {
		return
	}

	if u.Query().Has("owner") && b.params.Has("owner") {
		b.params.Del("owner")
		b.logger.Debug().
			Str("resource", b.resourceName).
			Msg("Owner parameter stripped for cursor-follow request")
	}
}

func cloneParams(params url.Values) url.Values {
	clone := url.Values{}
	for key, values := range params {
		for _, value := range values {
			clone.Add(key, value)
		}
	}
	return clone
}
