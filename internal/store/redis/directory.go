package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/voxroute/switchboard/internal/domain"
)

// Store is the Redis-backed directory of service descriptors. Descriptors
// are stored as JSON under per-service keys plus a membership set so List
// never needs a SCAN.
//
// Descriptors carry no TTL: the directory is the durable source of truth,
// not a cache.
type Store struct {
	client *redis.Client
}

// NewStore creates a new Redis directory store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
	}
}

// Upsert creates or replaces a service descriptor
func (s *Store) Upsert(ctx context.Context, desc *domain.ServiceDescriptor) error {
	cp := *desc
	cp.UpdatedAt = time.Now()
	if existing, err := s.Get(ctx, desc.Name); err == nil {
		cp.CreatedAt = existing.CreatedAt
	} else if cp.CreatedAt.IsZero() {
		cp.CreatedAt = cp.UpdatedAt
	}

	data, err := json.Marshal(&cp)
	if err != nil {
		return fmt.Errorf("failed to marshal descriptor: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, ServiceKey(cp.Name), data, 0)
	pipe.SAdd(ctx, AllServicesKey(), cp.Name)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save descriptor: %w", err)
	}

	return nil
}

// Get retrieves a service descriptor by name
func (s *Store) Get(ctx context.Context, name string) (*domain.ServiceDescriptor, error) {
	data, err := s.client.Get(ctx, ServiceKey(name)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrServiceNotFound
		}
		return nil, fmt.Errorf("failed to get descriptor: %w", err)
	}

	var desc domain.ServiceDescriptor
	if err := json.Unmarshal(data, &desc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal descriptor: %w", err)
	}

	return &desc, nil
}

// List retrieves all service descriptors
func (s *Store) List(ctx context.Context) ([]*domain.ServiceDescriptor, error) {
	names, err := s.client.SMembers(ctx, AllServicesKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get service names: %w", err)
	}

	if len(names) == 0 {
		return []*domain.ServiceDescriptor{}, nil
	}

	descs := make([]*domain.ServiceDescriptor, 0, len(names))
	for _, name := range names {
		desc, err := s.Get(ctx, name)
		if err != nil {
			// Skip descriptors that couldn't be retrieved; the
			// membership set may briefly lead the data keys.
			continue
		}
		descs = append(descs, desc)
	}

	return descs, nil
}

// SetActive flips the soft-disable flag on a descriptor
func (s *Store) SetActive(ctx context.Context, name string, active bool) error {
	desc, err := s.Get(ctx, name)
	if err != nil {
		return err
	}

	desc.Active = active
	return s.Upsert(ctx, desc)
}

// Delete removes a service descriptor
func (s *Store) Delete(ctx context.Context, name string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, ServiceKey(name))
	pipe.SRem(ctx, AllServicesKey(), name)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete descriptor: %w", err)
	}
	return nil
}

// UpsertMany stores multiple descriptors in one pipeline (bulk seed load)
func (s *Store) UpsertMany(ctx context.Context, descs []*domain.ServiceDescriptor) error {
	now := time.Now()
	pipe := s.client.Pipeline()

	for _, desc := range descs {
		cp := *desc
		cp.UpdatedAt = now
		if cp.CreatedAt.IsZero() {
			cp.CreatedAt = now
		}
		data, err := json.Marshal(&cp)
		if err != nil {
			return fmt.Errorf("failed to marshal descriptor %s: %w", desc.Name, err)
		}
		pipe.Set(ctx, ServiceKey(cp.Name), data, 0)
		pipe.SAdd(ctx, AllServicesKey(), cp.Name)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save descriptors: %w", err)
	}

	return nil
}
