package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/jose-oc/sequoia-client-go/pkg/model"
	"github.com/jose-oc/sequoia-client-go/pkg/transport"
)

// ReferencesMismatchError indicates an update payload whose reference does
// not match the reference being updated.
type ReferencesMismatchError struct {
	Message string
}

// Error implements the error interface.
func (e *ReferencesMismatchError) Error() string {
	return e.Message
}

// NotMatchingVersionError indicates an update rejected because the supplied
// document version no longer matches the stored one.
type NotMatchingVersionError struct {
	Err error
}

// Error implements the error interface.
func (e *NotMatchingVersionError) Error() string {
	return "document cannot be updated, version does not match"
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *NotMatchingVersionError) Unwrap() error {
	return e.Err
}

// validateUpdateReference checks that the payload's first resource carries
// ref, owner and name, and that both its ref and its owner:name pair match
// the reference being updated.
func validateUpdateReference(resource model.Resource, ref string) error {
	if resource.Ref() == "" || resource.Owner() == "" || resource.Name() == "" {
		return &ReferencesMismatchError{
			Message: fmt.Sprintf("reference to update %s does not match with the resource reference: "+
				"resource does not contain ref, owner or name", ref),
		}
	}

	if resource.Ref() != ref {
		return &ReferencesMismatchError{
			Message: fmt.Sprintf("reference to update %s does not match with the resource reference %s",
				ref, resource.Ref()),
		}
	}

	resourceReference := resource.Owner() + ":" + resource.Name()
	if resourceReference != ref {
		return &ReferencesMismatchError{
			Message: fmt.Sprintf("reference to update %s does not match with the resource reference %s",
				ref, resourceReference),
		}
	}

	return nil
}

// isVersionMismatch reports whether err is the service's precondition
// failure for a stale document version.
func isVersionMismatch(err error) bool {
	var httpErr *transport.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusPreconditionFailed {
		return false
	}

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if jsonErr := json.Unmarshal(httpErr.Body, &payload); jsonErr != nil {
		return false
	}

	return payload.Error == "Precondition Failed" &&
		payload.Message == "document cannot be changed - versions do not match"
}
