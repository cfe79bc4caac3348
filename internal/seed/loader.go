// Package seed loads initial service registrations from a YAML file. The
// seed is applied additively at startup: names already present in the
// directory keep their stored configuration, so administrative changes
// survive restarts.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/voxroute/switchboard/internal/domain"
)

// File is the top-level shape of services.yaml.
type File struct {
	Services []Entry `yaml:"services"`
}

// Entry declares one service registration.
type Entry struct {
	Name            string `yaml:"name"`
	DisplayName     string `yaml:"display_name"`
	DeclaredMode    string `yaml:"declared_mode"`
	HasLocalHandler bool   `yaml:"has_local_handler"`
	ProbeURL        string `yaml:"probe_url"`
	// Active defaults to true when omitted.
	Active *bool `yaml:"active"`
}

// Load parses and validates a seed file into descriptors.
func Load(path string) ([]*domain.ServiceDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	seen := make(map[string]bool, len(file.Services))
	descs := make([]*domain.ServiceDescriptor, 0, len(file.Services))
	for i, entry := range file.Services {
		if entry.Name == "" {
			return nil, fmt.Errorf("seed entry %d has no name", i)
		}
		if seen[entry.Name] {
			return nil, fmt.Errorf("duplicate seed entry %q", entry.Name)
		}
		seen[entry.Name] = true

		mode := domain.ModeRemote
		if entry.DeclaredMode != "" {
			mode, err = domain.ParseMode(entry.DeclaredMode)
			if err != nil {
				return nil, fmt.Errorf("seed entry %q: %w", entry.Name, err)
			}
		}

		active := true
		if entry.Active != nil {
			active = *entry.Active
		}

		displayName := entry.DisplayName
		if displayName == "" {
			displayName = entry.Name
		}

		descs = append(descs, &domain.ServiceDescriptor{
			Name:            entry.Name,
			DisplayName:     displayName,
			DeclaredMode:    mode,
			HasLocalHandler: entry.HasLocalHandler,
			ProbeURL:        entry.ProbeURL,
			Active:          active,
		})
	}

	return descs, nil
}

// upserter is the slice of the directory contract the seed needs.
type upserter interface {
	Get(ctx context.Context, name string) (*domain.ServiceDescriptor, error)
	Upsert(ctx context.Context, desc *domain.ServiceDescriptor) error
}

// Apply registers every descriptor that isn't already in the directory.
// Returns how many were added.
func Apply(ctx context.Context, store upserter, descs []*domain.ServiceDescriptor) (int, error) {
	added := 0
	for _, desc := range descs {
		_, err := store.Get(ctx, desc.Name)
		if err == nil {
			continue // already registered, keep the stored config
		}
		if !errors.Is(err, domain.ErrServiceNotFound) {
			return added, fmt.Errorf("seed lookup for %q failed: %w", desc.Name, err)
		}
		if err := store.Upsert(ctx, desc); err != nil {
			return added, fmt.Errorf("seed upsert for %q failed: %w", desc.Name, err)
		}
		added++
	}
	return added, nil
}
