// Package directory defines the durable source of truth for service
// descriptors. Writes are rare administrative operations; reads are cached
// by the registry, so implementations may favor write durability over
// read latency.
package directory

import (
	"context"

	"github.com/voxroute/switchboard/internal/domain"
)

// Store is the minimal directory contract the registry consumes.
type Store interface {
	// Get returns the descriptor for name, or domain.ErrServiceNotFound.
	Get(ctx context.Context, name string) (*domain.ServiceDescriptor, error)

	// List returns every known descriptor.
	List(ctx context.Context) ([]*domain.ServiceDescriptor, error)

	// Upsert creates or replaces a descriptor.
	Upsert(ctx context.Context, desc *domain.ServiceDescriptor) error

	// SetActive flips the soft-disable flag. Returns
	// domain.ErrServiceNotFound for unregistered names.
	SetActive(ctx context.Context, name string, active bool) error
}
