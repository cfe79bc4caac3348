package proxy

import (
	"context"
	"sync"

	"github.com/voxroute/switchboard/internal/domain"
)

// Handler is one in-process operation: plain function call semantics, no
// serialization beyond the payload bytes the caller already holds.
type Handler func(ctx context.Context, payload []byte) ([]byte, error)

// DispatchTable is the default LocalDispatcher: a mutable mapping from
// service and operation to a mounted handler. The host mounts handlers at
// startup and may unmount them at runtime; the proxy copes with a handler
// disappearing after a decision was cached.
type DispatchTable struct {
	mu       sync.RWMutex
	handlers map[string]map[string]Handler
}

// NewDispatchTable creates an empty dispatch table.
func NewDispatchTable() *DispatchTable {
	return &DispatchTable{
		handlers: make(map[string]map[string]Handler),
	}
}

// Mount registers a handler for service/operation, replacing any previous one.
func (t *DispatchTable) Mount(service, operation string, h Handler) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ops, ok := t.handlers[service]
	if !ok {
		ops = make(map[string]Handler)
		t.handlers[service] = ops
	}
	ops[operation] = h
}

// Unmount removes every handler for service.
func (t *DispatchTable) Unmount(service string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.handlers, service)
}

// Has reports whether any handler is mounted for service.
func (t *DispatchTable) Has(service string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.handlers[service]) > 0
}

// Dispatch invokes the mounted handler. Returns domain.ErrNoLocalHandler
// when service/operation has no target.
func (t *DispatchTable) Dispatch(ctx context.Context, service, operation string, payload []byte) ([]byte, error) {
	t.mu.RLock()
	h := t.handlers[service][operation]
	t.mu.RUnlock()

	if h == nil {
		return nil, domain.ErrNoLocalHandler
	}
	return h(ctx, payload)
}
