package directory

import (
	"context"
	"sync"
	"time"

	"github.com/voxroute/switchboard/internal/domain"
)

// MemoryStore is an in-memory directory. It backs single-node deployments
// that don't want Redis, and every test that needs a directory.
type MemoryStore struct {
	mu       sync.RWMutex
	services map[string]*domain.ServiceDescriptor
}

// NewMemoryStore creates an empty in-memory directory.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		services: make(map[string]*domain.ServiceDescriptor),
	}
}

func (s *MemoryStore) Get(_ context.Context, name string) (*domain.ServiceDescriptor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	desc, ok := s.services[name]
	if !ok {
		return nil, domain.ErrServiceNotFound
	}
	cp := *desc
	return &cp, nil
}

func (s *MemoryStore) List(_ context.Context) ([]*domain.ServiceDescriptor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.ServiceDescriptor, 0, len(s.services))
	for _, desc := range s.services {
		cp := *desc
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemoryStore) Upsert(_ context.Context, desc *domain.ServiceDescriptor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *desc
	cp.UpdatedAt = time.Now()
	if existing, ok := s.services[desc.Name]; ok {
		cp.CreatedAt = existing.CreatedAt
	} else if cp.CreatedAt.IsZero() {
		cp.CreatedAt = cp.UpdatedAt
	}
	s.services[desc.Name] = &cp
	return nil
}

func (s *MemoryStore) SetActive(_ context.Context, name string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	desc, ok := s.services[name]
	if !ok {
		return domain.ErrServiceNotFound
	}
	desc.Active = active
	desc.UpdatedAt = time.Now()
	return nil
}

// Count returns the number of registered services.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.services)
}
