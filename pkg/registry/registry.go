// Package registry resolves Sequoia service locations from the platform
// service registry.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/jose-oc/sequoia-client-go/pkg/logging"
	"github.com/rs/zerolog"
)

// ErrServiceNotFound indicates the named service is not registered.
type ErrServiceNotFound struct {
	Name string
}

// Error implements the error interface.
func (e *ErrServiceNotFound) Error() string {
	return fmt.Sprintf("service %q not found in registry", e.Name)
}

// Service describes one registered Sequoia service.
type Service struct {
	Name     string `json:"name"`
	Title    string `json:"title"`
	Location string `json:"location"`
	Owner    string `json:"owner"`
}

// Getter performs one HTTP GET. Satisfied by transport.Executor.
type Getter interface {
	Get(ctx context.Context, rawURL string, params url.Values, resourceName string) ([]byte, error)
}

// Registry holds the services discovered from one registry URL.
type Registry struct {
	registryURL string
	services    map[string]Service
	logger      zerolog.Logger
}

// New fetches the registry at registryURL and indexes its services by name.
func New(ctx context.Context, exec Getter, registryURL string) (*Registry, error) {
	logger := logging.NewLogger("registry")

	body, err := exec.Get(ctx, registryURL, nil, "services")
	if err != nil {
		return nil, fmt.Errorf("fetch service registry: %w", err)
	}

	var payload struct {
		Services []Service `json:"services"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("parse service registry: %w", err)
	}

	services := make(map[string]Service, len(payload.Services))
	for _, service := range payload.Services {
		services[service.Name] = service
	}

	logger.Debug().
		Str("url", registryURL).
		Int("services", len(services)).
		Msg("Service registry populated")

	return &Registry{
		registryURL: registryURL,
		services:    services,
		logger:      logger,
	}, nil
}

// Service returns the registered service with the given name.
func (r *Registry) Service(name string) (Service, error) {
	service, ok := r.services[name]
	if !ok {
		return Service{}, &ErrServiceNotFound{Name: name}
	}
	return service, nil
}

// Services returns all registered services.
func (r *Registry) Services() []Service {
	services := make([]Service, 0, len(r.services))
	for _, service := range r.services {
		services = append(services, service)
	}
	return services
}
