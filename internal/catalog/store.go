package catalog

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrNotLoaded is returned before the first successful load
var ErrNotLoaded = errors.New("catalog not loaded")

// Provider hands out the catalog to analyze against
type Provider interface {
	Current() (*Catalog, error)
}

// Store holds the live catalog. Reload swaps it atomically, so readers always
// see either the old or the new catalog in full.
type Store struct {
	src     Source
	current atomic.Pointer[Catalog]
	mu      sync.Mutex // serializes reloads
}

func NewStore(src Source) *Store {
	return &Store{src: src}
}

// Current returns the live catalog
func (s *Store) Current() (*Catalog, error) {
	c := s.current.Load()
	if c == nil {
		return nil, ErrNotLoaded
	}
	return c, nil
}

// Reload loads a fresh catalog and makes it current. On error the previous
// catalog stays in place.
func (s *Store) Reload(ctx context.Context) (*Catalog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := Load(ctx, s.src)
	if err != nil {
		return nil, err
	}
	s.current.Store(c)
	return c, nil
}

// Source returns where the store loads from
func (s *Store) Source() Source {
	return s.src
}

// Fixed serves one catalog forever
type Fixed struct {
	C *Catalog
}

func (f Fixed) Current() (*Catalog, error) {
	if f.C == nil {
		return nil, ErrNotLoaded
	}
	return f.C, nil
}
