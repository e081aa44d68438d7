// Package criteria builds filter and inclusion specifications for browse
// queries. The browsing engine only inspects the inclusion entries; filter
// parameters are passed through to the service opaquely.
package criteria

import (
	"net/url"
	"strings"
)

// Inclusion names a linked relation requested for sideloading.
type Inclusion struct {
	ResourceName string
}

// Criteria is a caller-specified filter and inclusion request.
type Criteria struct {
	inclusions []Inclusion
	params     url.Values
}

// New creates an empty Criteria.
func New() *Criteria {
	return &Criteria{
		params: url.Values{},
	}
}

// Include requests the named relations to be sideloaded in responses.
func (c *Criteria) Include(resourceNames ...string) *Criteria {
	for _, name := range resourceNames {
		c.inclusions = append(c.inclusions, Inclusion{ResourceName: name})
	}
	return c
}

// With adds an opaque filter parameter (e.g. "withContentRef", "name").
func (c *Criteria) With(key, value string) *Criteria {
	c.params.Add(key, value)
	return c
}

// Inclusions returns the requested inclusion entries in request order.
func (c *Criteria) Inclusions() []Inclusion {
	return c.inclusions
}

// Params translates the criteria into request parameters. Inclusions are
// carried on the "include" parameter, comma-joined in request order.
func (c *Criteria) Params() url.Values {
	params := url.Values{}
	for key, values := range c.params {
		for _, value := range values {
			params.Add(key, value)
		}
	}

	if len(c.inclusions) > 0 {
		names := make([]string, 0, len(c.inclusions))
		for _, inclusion := range c.inclusions {
			names = append(names, inclusion.ResourceName)
		}
		params.Set("include", strings.Join(names, ","))
	}

	return params
}
