package auth

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/oauth2"
)

// ErrTokenNotFound indicates the requested token is not in the store.
var ErrTokenNotFound = errors.New("token not found")

// TokenStore caches OAuth2 tokens under stable keys.
type TokenStore interface {
	// Get returns the token for key, or ErrTokenNotFound.
	Get(ctx context.Context, key string) (*oauth2.Token, error)

	// Set stores the token under key. Implementations may expire entries
	// based on the token's expiry.
	Set(ctx context.Context, key string, token *oauth2.Token) error
}

// MemoryTokenStore is an in-process TokenStore.
type MemoryTokenStore struct {
	mu     sync.RWMutex
	tokens map[string]*oauth2.Token
}

// NewMemoryTokenStore creates an empty in-process token store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{
		tokens: make(map[string]*oauth2.Token),
	}
}

// Get returns the token for key, or ErrTokenNotFound.
func (s *MemoryTokenStore) Get(ctx context.Context, key string) (*oauth2.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	token, ok := s.tokens[key]
	if !ok {
		return nil, ErrTokenNotFound
	}
	return token, nil
}

// Set stores the token under key.
func (s *MemoryTokenStore) Set(ctx context.Context, key string, token *oauth2.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens[key] = token
	return nil
}

// cachingTokenSource consults a TokenStore before deferring to the wrapped
// token source, and writes freshly acquired tokens back to the store.
type cachingTokenSource struct {
	ctx    context.Context
	store  TokenStore
	key    string
	source oauth2.TokenSource
	mu     sync.Mutex
}

// NewCachingTokenSource wraps source with store-backed caching.
func NewCachingTokenSource(ctx context.Context, store TokenStore, key string, source oauth2.TokenSource) oauth2.TokenSource {
	return &cachingTokenSource{
		ctx:    ctx,
		store:  store,
		key:    key,
		source: source,
	}
}

// Token implements oauth2.TokenSource.
func (c *cachingTokenSource) Token() (*oauth2.Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cached, err := c.store.Get(c.ctx, c.key)
	if err == nil && cached.Valid() {
		return cached, nil
	}

	token, err := c.source.Token()
	if err != nil {
		return nil, err
	}

	// Best-effort: a failed cache write never fails token acquisition
	_ = c.store.Set(c.ctx, c.key, token)

	return token, nil
}
