package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/jose-oc/sequoia-client-go/pkg/criteria"
	"github.com/jose-oc/sequoia-client-go/pkg/descriptor"
	"github.com/jose-oc/sequoia-client-go/pkg/model"
	"github.com/jose-oc/sequoia-client-go/pkg/pagination"
	"github.com/jose-oc/sequoia-client-go/pkg/registry"
	"github.com/rs/zerolog"
)

// ResourceEndpoint provides read, store, browse, update and delete
// operations over one resource collection of a Sequoia service.
type ResourceEndpoint struct {
	exec       executor
	service    registry.Service
	resource   string
	descriptor *descriptor.Descriptor
	logger     zerolog.Logger
}

// BrowseOptions configure a Browse call.
type BrowseOptions struct {
	// Criteria carries filters and inclusion requests.
	Criteria *criteria.Criteria

	// Fields restricts the returned fields; sent sorted and comma-joined.
	Fields []string

	// QueryString is a caller-supplied raw query string for the initial
	// request, used instead of criteria-derived parameters when the caller
	// already holds a full query.
	QueryString string

	// PrefetchPages is the number of pages fetched eagerly. Zero applies
	// pagination.DefaultPrefetchPages; negative disables prefetch.
	PrefetchPages int

	// ContinuationPage overrides the linked-chain continuation marker.
	ContinuationPage int
}

// url is the collection URL for this endpoint.
func (e *ResourceEndpoint) url() string {
	return e.service.Location + "/data/" + e.resource
}

// Read fetches the resource identified by ref.
func (e *ResourceEndpoint) Read(ctx context.Context, owner, ref string) ([]model.Resource, error) {
	body, err := e.exec.Get(ctx, e.url()+"/"+ref, ownerParam(owner), e.resource)
	if err != nil {
		return nil, err
	}
	return e.resolve(body, nil)
}

// Store creates resources from the JSON payload.
func (e *ResourceEndpoint) Store(ctx context.Context, owner string, payload []byte) ([]model.Resource, error) {
	body, err := e.exec.Post(ctx, e.url()+"/", payload, ownerParam(owner), e.resource)
	if err != nil {
		return nil, err
	}
	return e.resolve(body, nil)
}

// Delete removes the resources identified by refs.
func (e *ResourceEndpoint) Delete(ctx context.Context, owner string, refs ...string) error {
	if len(refs) == 0 {
		return fmt.Errorf("at least one ref is required")
	}
	_, err := e.exec.Delete(ctx, e.url()+"/"+strings.Join(refs, ","), ownerParam(owner), e.resource)
	return err
}

// Update replaces the resource identified by ref with the JSON payload
// (an array holding the updated document). The payload reference must
// match ref; version guards against concurrent modification via If-Match.
func (e *ResourceEndpoint) Update(ctx context.Context, owner string, payload []byte, ref, version string) ([]model.Resource, error) {
	var documents []model.Resource
	if err := json.Unmarshal(payload, &documents); err != nil {
		return nil, fmt.Errorf("parse update payload: %w", err)
	}
	if len(documents) == 0 {
		return nil, &ReferencesMismatchError{
			Message: fmt.Sprintf("reference to update %s does not match with the resource reference: "+
				"resource does not contain ref, owner or name", ref),
		}
	}
	if err := validateUpdateReference(documents[0], ref); err != nil {
		return nil, err
	}

	headers := http.Header{}
	headers.Set("If-Match", `"`+version+`"`)

	body, err := e.exec.Put(ctx, e.url()+"/"+ref, payload, ownerParam(owner), headers, e.resource)
	if err != nil {
		if isVersionMismatch(err) {
			return nil, &NotMatchingVersionError{Err: err}
		}
		return nil, err
	}

	return e.resolve(body, nil)
}

// Browse opens a lazy page sequence over the collection.
func (e *ResourceEndpoint) Browse(ctx context.Context, owner string, opts BrowseOptions) (*pagination.PageBrowser, error) {
	params := url.Values{}
	if opts.Criteria != nil {
		params = opts.Criteria.Params()
	}
	params.Set("owner", owner)
	if len(opts.Fields) > 0 {
		fields := make([]string, len(opts.Fields))
		copy(fields, opts.Fields)
		sort.Strings(fields)
		params.Set("fields", strings.Join(fields, ","))
	}

	prefetch := opts.PrefetchPages
	switch {
	case prefetch == 0:
		prefetch = pagination.DefaultPrefetchPages
	case prefetch < 0:
		prefetch = 0
	}

	e.logger.Debug().
		Str("service", e.service.Name).
		Str("resource", e.resource).
		Int("prefetch", prefetch).
		Msg("Opening page browser")

	return pagination.New(ctx, e.exec, e.service.Location, e.resource, pagination.Options{
		QueryString:      opts.QueryString,
		Params:           params,
		Criteria:         opts.Criteria,
		Descriptor:       e.descriptor,
		PrefetchPages:    prefetch,
		ContinuationPage: opts.ContinuationPage,
	})
}

// resolve parses a single response body into the endpoint's resource array.
func (e *ResourceEndpoint) resolve(body []byte, c *criteria.Criteria) ([]model.Resource, error) {
	page, err := pagination.ParsePage(body, e.resource)
	if err != nil {
		return nil, err
	}

	var builder *model.Builder
	if e.descriptor != nil {
		builder = model.NewBuilder(e.descriptor, c)
	}
	page.Resolve(builder)

	return page.Resources(), nil
}

func ownerParam(owner string) url.Values {
	return url.Values{"owner": []string{owner}}
}

// BusinessEndpoint provides store/browse operations over a service's
// business endpoints, addressed by a path template.
type BusinessEndpoint struct {
	exec         executor
	service      registry.Service
	pathTemplate string
}

// Store posts content to the business endpoint expanded for the given
// service name, owner, ref and optional parameters, returning the raw
// response body.
func (b *BusinessEndpoint) Store(ctx context.Context, serviceName, owner string, content []byte, ref string, params url.Values) ([]byte, error) {
	vars := map[string]string{
		"service": serviceName,
		"owner":   owner,
		"ref":     ref,
	}
	if len(params) > 0 {
		vars["params"] = "?" + params.Encode()
	} else {
		vars["params"] = ""
	}

	target := b.service.Location + expandTemplate(b.pathTemplate, vars)
	return b.exec.Post(ctx, target, content, nil, "")
}

// Browse performs a GET against the business endpoint expanded with vars
// and returns the raw response body.
func (b *BusinessEndpoint) Browse(ctx context.Context, serviceName string, vars map[string]string) ([]byte, error) {
	merged := map[string]string{"service": serviceName}
	for key, value := range vars {
		merged[key] = value
	}
	target := b.service.Location + expandTemplate(b.pathTemplate, merged)
	return b.exec.Get(ctx, target, nil, "")
}

// expandTemplate substitutes ${name} placeholders, leaving unknown ones
// untouched.
func expandTemplate(template string, vars map[string]string) string {
	expanded := template
	for key, value := range vars {
		expanded = strings.ReplaceAll(expanded, "${"+key+"}", value)
	}
	return expanded
}
