package descriptor

import (
	"context"
	"sync"

	"github.com/jose-oc/sequoia-client-go/pkg/logging"
)

// Store is a process-wide descriptor cache keyed by service identity.
// Descriptors are fetched once per service and reused for the process
// lifetime; fetch failures are not cached, so later lookups retry.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*Descriptor
}

// NewStore creates an empty descriptor store.
func NewStore() *Store {
	return &Store{
		entries: make(map[string]*Descriptor),
	}
}

// Get returns the cached descriptor for the service identity.
func (s *Store) Get(serviceName string) (*Descriptor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.entries[serviceName]
	return d, ok
}

// Put caches the descriptor under the service identity.
func (s *Store) Put(serviceName string, d *Descriptor) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[serviceName] = d
}

// Clear removes all cached descriptors.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]*Descriptor)
}

// GetOrFetch returns the cached descriptor for the service, fetching and
// caching it on first use. A fetch failure is non-fatal: nil is returned,
// nothing is cached, and callers degrade to raw resource arrays.
func (s *Store) GetOrFetch(ctx context.Context, exec Getter, serviceName, serviceLocation string) *Descriptor {
	if d, ok := s.Get(serviceName); ok {
		return d
	}

	logger := logging.NewLogger("descriptor")

	d, err := Fetch(ctx, exec, serviceLocation)
	if err != nil {
		logger.Warn().
			Err(err).
			Str("service", serviceName).
			Msg("Service model could not be fetched")
		return nil
	}

	s.Put(serviceName, d)

	logger.Debug().
		Str("service", serviceName).
		Int("resourcefuls", len(d.Resourcefuls)).
		Msg("Descriptor cached")

	return d
}

// defaultStore is the process-wide store used by clients that don't supply
// their own.
var defaultStore = NewStore()

// Default returns the process-wide descriptor store.
func Default() *Store {
	return defaultStore
}

// Reset clears the process-wide descriptor store.
func Reset() {
	defaultStore.Clear()
}
