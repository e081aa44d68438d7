// Package descriptor fetches and caches service resource-model descriptors.
//
// A descriptor is the schema a Sequoia service publishes for its resource
// types and their declared relationships. Descriptors drive relationship
// resolution when building response models; a missing descriptor is
// tolerated and degrades responses to raw resource arrays.
package descriptor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// Relationship declares how a related resource type links to its parent.
type Relationship struct {
	// FieldNamePath is the field on the parent resource carrying the
	// related resource ref(s).
	FieldNamePath string `json:"fieldNamePath"`
}

// ResourceType describes one resource type published by a service.
type ResourceType struct {
	SingularName  string                  `json:"singularName"`
	Relationships map[string]Relationship `json:"relationships"`
}

// Descriptor is the resource model published by one service.
type Descriptor struct {
	Resourcefuls map[string]ResourceType `json:"resourcefuls"`
}

// RelationshipField returns the fieldNamePath declared for the relation on
// the given resource type. The second return is false when either the
// resource type or the relation is not declared.
func (d *Descriptor) RelationshipField(resourceName, relation string) (string, bool) {
	resourceType, ok := d.Resourcefuls[resourceName]
	if !ok {
		return "", false
	}
	rel, ok := resourceType.Relationships[relation]
	if !ok || rel.FieldNamePath == "" {
		return "", false
	}
	return rel.FieldNamePath, true
}

// SingularName returns the singular name declared for the resource type.
func (d *Descriptor) SingularName(resourceName string) (string, bool) {
	resourceType, ok := d.Resourcefuls[resourceName]
	if !ok {
		return "", false
	}
	return resourceType.SingularName, true
}

// Getter performs one HTTP GET. Satisfied by transport.Executor.
type Getter interface {
	Get(ctx context.Context, rawURL string, params url.Values, resourceName string) ([]byte, error)
}

// Fetch retrieves the descriptor published at serviceLocation.
func Fetch(ctx context.Context, exec Getter, serviceLocation string) (*Descriptor, error) {
	params := url.Values{}
	params.Set("_pretty", "true")

	body, err := exec.Get(ctx, serviceLocation+"/descriptor/raw", params, "descriptor")
	if err != nil {
		return nil, fmt.Errorf("fetch descriptor: %w", err)
	}

	var d Descriptor
	if err := json.Unmarshal(body, &d); err != nil {
		return nil, fmt.Errorf("parse descriptor: %w", err)
	}

	return &d, nil
}
