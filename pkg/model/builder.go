package model

import (
	"github.com/jose-oc/sequoia-client-go/pkg/criteria"
	"github.com/jose-oc/sequoia-client-go/pkg/descriptor"
	"github.com/jose-oc/sequoia-client-go/pkg/logging"
	"github.com/rs/zerolog"
)

// Builder resolves declared relationships between a page's primary resource
// array and its sideloaded arrays. Resolution is only attempted when both a
// descriptor and criteria with inclusions are present; otherwise the raw
// primary array passes through unchanged.
type Builder struct {
	descriptor *descriptor.Descriptor
	criteria   *criteria.Criteria
	logger     zerolog.Logger
}

// NewBuilder creates a builder. Either argument may be nil, in which case
// Build degrades to raw passthrough.
func NewBuilder(d *descriptor.Descriptor, c *criteria.Criteria) *Builder {
	return &Builder{
		descriptor: d,
		criteria:   c,
		logger:     logging.NewLogger("model"),
	}
}

// Build returns the resolved primary array for resourceName. When the
// primary array is absent or empty, nil is returned with a logged warning.
// Resolution mutates the primary resources in place: each requested
// inclusion present in the sideload block is replaced by the matching
// sideloaded entries.
func (b *Builder) Build(body map[string][]Resource, linked map[string][]Resource, resourceName string) []Resource {
	primary := body[resourceName]
	if len(primary) == 0 {
		b.logger.Warn().
			Str("resource", resourceName).
			Msg("Resource not found in response")
		return nil
	}

	if b.criteria == nil || b.descriptor == nil {
		return primary
	}

	for _, resource := range primary {
		b.resolveInclusions(resourceName, resource, linked)
	}

	return primary
}

// resolveInclusions resolves every requested inclusion on one resource.
// A nil linked block resolves nothing; this is also what bounds nested
// resolution, which only sees relations already present on the entry.
func (b *Builder) resolveInclusions(resourceName string, resource Resource, linked map[string][]Resource) {
	if linked == nil {
		return
	}

	for _, inclusion := range b.criteria.Inclusions() {
		entries, ok := linked[inclusion.ResourceName]
		if !ok {
			b.logger.Info().
				Str("relation", inclusion.ResourceName).
				Msg("Resources not included in response")
			continue
		}

		resolved := b.resolveInclusion(inclusion.ResourceName, entries, resourceName, resource)
		if resolved == nil {
			resource[inclusion.ResourceName] = nil
		} else {
			resource[inclusion.ResourceName] = resolved
		}
	}
}

// resolveInclusion returns the ordered sideloaded entries referenced by the
// parent's relationship field, or nil when the relation cannot be resolved.
func (b *Builder) resolveInclusion(relation string, entries []Resource, parentName string, parent Resource) []Resource {
	field, ok := b.descriptor.RelationshipField(parentName, relation)
	if !ok {
		b.logger.Info().
			Str("relation", relation).
			Str("resource", parentName).
			Msg("Included resource not listed as relationship in service metadata")
		return nil
	}

	refs, present := parent.RefValues(field)
	if !present {
		b.logger.Info().
			Str("resource", parentName).
			Str("relation", relation).
			Msg("Parent resource with no linked resources")
		return nil
	}

	if len(entries) > 0 && entries[0].Ref() == "" {
		b.logger.Info().
			Str("relation", relation).
			Msg("Linked resources with no ref field, linked resources skipped")
		return nil
	}

	refSet := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		refSet[ref] = struct{}{}
	}

	resolved := []Resource{}
	for _, entry := range entries {
		if _, ok := refSet[entry.Ref()]; ok {
			b.resolveInclusions(relation, entry, nil)
			resolved = append(resolved, entry)
		}
	}

	return resolved
}
