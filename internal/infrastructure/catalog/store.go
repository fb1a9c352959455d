package catalog

import (
	"log/slog"
	"sync"

	"github.com/complyon/aiact-engine/internal/core/domain"
)

// Store holds the active catalog snapshot. Swap publishes a new
// snapshot atomically; readers that already hold a snapshot keep
// using it unchanged.
type Store struct {
	mu       sync.RWMutex
	snapshot *domain.CatalogSnapshot
}

func NewStore(snapshot *domain.CatalogSnapshot) *Store {
	return &Store{snapshot: snapshot}
}

func (s *Store) Active() (*domain.CatalogSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return nil, domain.ErrCatalogUnavailable
	}
	return s.snapshot, nil
}

func (s *Store) Swap(snapshot *domain.CatalogSnapshot) {
	s.mu.Lock()
	prev := s.snapshot
	s.snapshot = snapshot
	s.mu.Unlock()

	prevVersion := ""
	if prev != nil {
		prevVersion = prev.Version()
	}
	slog.Info("catalog_swapped",
		"previous_version", prevVersion,
		"version", snapshot.Version(),
		"records", snapshot.Len(),
	)
}
