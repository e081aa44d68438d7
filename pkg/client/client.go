// Package client provides the Sequoia client facade: registry-backed
// service lookup and typed resource endpoints with read, store, browse,
// update and delete operations.
package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/jose-oc/sequoia-client-go/pkg/auth"
	"github.com/jose-oc/sequoia-client-go/pkg/descriptor"
	"github.com/jose-oc/sequoia-client-go/pkg/logging"
	"github.com/jose-oc/sequoia-client-go/pkg/registry"
	"github.com/jose-oc/sequoia-client-go/pkg/transport"
	"github.com/rs/zerolog"
)

// executor is the transport surface the facade depends on.
type executor interface {
	Get(ctx context.Context, rawURL string, params url.Values, resourceName string) ([]byte, error)
	Post(ctx context.Context, rawURL string, body []byte, params url.Values, resourceName string) ([]byte, error)
	Put(ctx context.Context, rawURL string, body []byte, params url.Values, headers http.Header, resourceName string) ([]byte, error)
	Delete(ctx context.Context, rawURL string, params url.Values, resourceName string) ([]byte, error)
}

// Config holds the client configuration.
type Config struct {
	// RegistryURL locates the platform service registry
	// (e.g. "https://registry.example.com/services/demo").
	RegistryURL string

	// Auth selects the credential mode. Zero value means no auth.
	Auth auth.Auth

	// UserAgent is sent on every request.
	UserAgent string

	// Timeout is the per-request timeout (default transport.DefaultTimeout).
	Timeout time.Duration

	// ModelResolution enables descriptor fetching and relationship
	// resolution on browse/read responses.
	ModelResolution bool

	// DescriptorStore caches fetched descriptors. Defaults to the
	// process-wide store.
	DescriptorStore *descriptor.Store
}

// Client is the Sequoia client facade.
type Client struct {
	config      Config
	exec        executor
	registry    *registry.Registry
	descriptors *descriptor.Store
	logger      zerolog.Logger
}

// New creates a client: it fetches the service registry and, for
// client-grant credentials, wires token acquisition against the platform
// identity service discovered there.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.RegistryURL == "" {
		return nil, fmt.Errorf("registry url is required")
	}
	if cfg.Auth.Type == "" {
		cfg.Auth.Type = auth.TypeNoAuth
	}
	if cfg.DescriptorStore == nil {
		cfg.DescriptorStore = descriptor.Default()
	}

	logger := logging.NewLogger("client")
	logger.Debug().Str("registry_url", cfg.RegistryURL).Msg("Client initialising")

	// The registry itself is fetched without credentials; token acquisition
	// needs the identity service location it provides.
	bootstrap := transport.New(transport.Config{
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.Timeout,
	})

	reg, err := registry.New(ctx, bootstrap, cfg.RegistryURL)
	if err != nil {
		return nil, err
	}

	exec, err := buildExecutor(ctx, cfg, reg, bootstrap)
	if err != nil {
		return nil, err
	}

	return &Client{
		config:      cfg,
		exec:        exec,
		registry:    reg,
		descriptors: cfg.DescriptorStore,
		logger:      logger,
	}, nil
}

// buildExecutor wires the credential mode into the transport executor.
func buildExecutor(ctx context.Context, cfg Config, reg *registry.Registry, bootstrap *transport.Executor) (*transport.Executor, error) {
	switch cfg.Auth.Type {
	case auth.TypeNoAuth:
		return bootstrap, nil

	case auth.TypeClientGrant:
		identity, err := reg.Service("identity")
		if err != nil {
			return nil, fmt.Errorf("client grant requires an identity service: %w", err)
		}
		httpClient, err := cfg.Auth.HTTPClient(ctx, identity.Location)
		if err != nil {
			return nil, err
		}
		if httpClient.Timeout == 0 {
			httpClient.Timeout = cfg.Timeout
		}
		return transport.New(transport.Config{
			HTTPClient: httpClient,
			UserAgent:  cfg.UserAgent,
		}), nil

	case auth.TypeBYOToken:
		httpClient, err := cfg.Auth.HTTPClient(ctx, "")
		if err != nil {
			return nil, err
		}
		if httpClient.Timeout == 0 {
			httpClient.Timeout = cfg.Timeout
		}
		return transport.New(transport.Config{
			HTTPClient: httpClient,
			UserAgent:  cfg.UserAgent,
		}), nil

	default:
		return nil, fmt.Errorf("authentication type %q not supported", cfg.Auth.Type)
	}
}

// Service returns a proxy for the named registered service. With model
// resolution enabled the service descriptor is fetched (once per service
// identity) and drives relationship resolution on responses; a descriptor
// fetch failure degrades to raw resource arrays.
func (c *Client) Service(ctx context.Context, name string) (*ServiceProxy, error) {
	service, err := c.registry.Service(name)
	if err != nil {
		return nil, err
	}

	var d *descriptor.Descriptor
	if c.config.ModelResolution {
		d = c.descriptors.GetOrFetch(ctx, c.exec, name, service.Location)
	}

	return &ServiceProxy{
		exec:       c.exec,
		service:    service,
		descriptor: d,
	}, nil
}

// Registry exposes the discovered service registry.
func (c *Client) Registry() *registry.Registry {
	return c.registry
}

// ServiceProxy scopes endpoint construction to one registered service.
type ServiceProxy struct {
	exec       executor
	service    registry.Service
	descriptor *descriptor.Descriptor
}

// Resource returns the endpoint for one resource collection of the service.
func (s *ServiceProxy) Resource(name string) *ResourceEndpoint {
	return &ResourceEndpoint{
		exec:       s.exec,
		service:    s.service,
		resource:   name,
		descriptor: s.descriptor,
		logger:     logging.NewLogger("endpoint"),
	}
}

// Business returns a proxy for one of the service's business endpoints,
// addressed by a path template with ${service}, ${owner}, ${ref} and
// ${params} placeholders.
func (s *ServiceProxy) Business(pathTemplate string) *BusinessEndpoint {
	return &BusinessEndpoint{
		exec:         s.exec,
		service:      s.service,
		pathTemplate: pathTemplate,
	}
}
