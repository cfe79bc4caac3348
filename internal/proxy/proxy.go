// Package proxy dispatches logical service calls along the path the
// registry resolved, with one level of runtime fallback. HYBRID never
// reaches this code: resolution collapses it, so dispatch is a two-way
// branch plus the disabled short-circuit.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/voxroute/switchboard/internal/domain"
	"github.com/voxroute/switchboard/internal/health"
	"github.com/voxroute/switchboard/internal/logger"
	"github.com/voxroute/switchboard/internal/registry"
)

const (
	// DefaultRetryBackoff is the pause before the single remote retry.
	DefaultRetryBackoff = 200 * time.Millisecond
	// DefaultFallbackTimeout bounds the local-to-remote fallback attempt.
	DefaultFallbackTimeout = 5 * time.Second
)

// LocalDispatcher is the in-process dispatch table, supplied by whatever
// hosts the services.
type LocalDispatcher interface {
	Dispatch(ctx context.Context, service, operation string, payload []byte) ([]byte, error)
}

// RemoteTransport is the request/response RPC abstraction for the network
// path. Implementations signal remote business errors as
// *domain.BusinessError; every other error is a transport failure.
type RemoteTransport interface {
	Call(ctx context.Context, service, operation string, payload []byte) ([]byte, error)
}

// Proxy routes one logical call per Dispatch invocation.
type Proxy struct {
	registry        *registry.Registry
	local           LocalDispatcher
	remote          RemoteTransport
	board           *health.Board
	retryBackoff    time.Duration
	fallbackTimeout time.Duration
	log             logger.Logger
}

// Options tunes the proxy's bounded retry and fallback behavior.
type Options struct {
	RetryBackoff    time.Duration
	FallbackTimeout time.Duration
}

// New creates a routing proxy.
func New(reg *registry.Registry, local LocalDispatcher, remote RemoteTransport, board *health.Board, opts Options, log logger.Logger) *Proxy {
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = DefaultRetryBackoff
	}
	if opts.FallbackTimeout <= 0 {
		opts.FallbackTimeout = DefaultFallbackTimeout
	}
	return &Proxy{
		registry:        reg,
		local:           local,
		remote:          remote,
		board:           board,
		retryBackoff:    opts.RetryBackoff,
		fallbackTimeout: opts.FallbackTimeout,
		log:             log,
	}
}

// Dispatch executes one logical call. Errors surfaced to callers are
// *domain.DisabledError, *domain.UnavailableError, a pass-through business
// error, or the caller's own context error.
func (p *Proxy) Dispatch(ctx context.Context, service, operation string, payload []byte) ([]byte, error) {
	mode, err := p.registry.Resolve(ctx, service)
	if err != nil {
		return nil, &domain.UnavailableError{Name: service, Err: err}
	}

	switch mode {
	case domain.ModeDisabled:
		// No transport, no handler, nothing reported to health.
		return nil, &domain.DisabledError{Name: service}
	case domain.ModeLocal:
		return p.dispatchLocal(ctx, service, operation, payload)
	default:
		return p.dispatchRemote(ctx, service, operation, payload)
	}
}

// dispatchLocal invokes the local handler. A handler-missing or
// handler-crashed condition gets exactly one bounded REMOTE fallback and
// invalidates the cached decision; business errors propagate unchanged.
func (p *Proxy) dispatchLocal(ctx context.Context, service, operation string, payload []byte) ([]byte, error) {
	start := time.Now()
	out, err, crashed := p.invokeLocal(ctx, service, operation, payload)
	if err == nil {
		p.observe(service, domain.StatusHealthy, time.Since(start))
		return out, nil
	}

	// A cancelled call is not a failure to fall back from.
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}

	if !crashed {
		// Handler-internal business error: not a routing failure, the
		// service responded.
		p.observe(service, domain.StatusHealthy, time.Since(start))
		return out, err
	}

	// The local target is gone or crashed underneath a cached decision:
	// re-resolve next call, and try the wire once.
	p.registry.InvalidateDecision(ctx, service)
	p.log.Warn("local dispatch failed, falling back to remote",
		logger.String("service", service),
		logger.String("operation", operation),
		logger.Error(err))

	fbCtx, cancel := context.WithTimeout(ctx, p.fallbackTimeout)
	defer cancel()

	out, ferr := p.remote.Call(fbCtx, service, operation, payload)
	if ferr == nil {
		p.observe(service, domain.StatusHealthy, time.Since(start))
		return out, nil
	}
	var be *domain.BusinessError
	if errors.As(ferr, &be) {
		p.observe(service, domain.StatusHealthy, time.Since(start))
		return out, ferr
	}

	p.observe(service, domain.StatusUnreachable, time.Since(start))
	return nil, &domain.UnavailableError{Name: service, Err: ferr}
}

// invokeLocal shields the proxy from handler panics. crashed marks the
// conditions that permit fallback: a missing handler or a panic, never an
// ordinary returned error.
func (p *Proxy) invokeLocal(ctx context.Context, service, operation string, payload []byte) (out []byte, err error, crashed bool) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("local handler panicked: %v", r)
			crashed = true
		}
	}()

	out, err = p.local.Dispatch(ctx, service, operation, payload)
	if errors.Is(err, domain.ErrNoLocalHandler) {
		crashed = true
	}
	return out, err, crashed
}

// dispatchRemote calls the remote transport with at most one retry after a
// short backoff.
func (p *Proxy) dispatchRemote(ctx context.Context, service, operation string, payload []byte) ([]byte, error) {
	start := time.Now()

	out, err := p.remote.Call(ctx, service, operation, payload)
	if err == nil {
		p.observe(service, domain.StatusHealthy, time.Since(start))
		return out, nil
	}
	var be *domain.BusinessError
	if errors.As(err, &be) {
		p.observe(service, domain.StatusHealthy, time.Since(start))
		return out, err
	}
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}

	// One retry, then fail. Never an unbounded loop.
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(p.retryBackoff):
	}

	out, rerr := p.remote.Call(ctx, service, operation, payload)
	if rerr == nil {
		p.observe(service, domain.StatusHealthy, time.Since(start))
		return out, nil
	}
	if errors.As(rerr, &be) {
		p.observe(service, domain.StatusHealthy, time.Since(start))
		return out, rerr
	}

	p.observe(service, domain.StatusUnreachable, time.Since(start))
	p.log.Warn("remote dispatch failed after retry",
		logger.String("service", service),
		logger.String("operation", operation),
		logger.Error(rerr))
	return nil, &domain.UnavailableError{Name: service, Err: rerr}
}

// observe feeds a health hint without ever blocking the call path.
func (p *Proxy) observe(service string, status domain.Status, latency time.Duration) {
	p.board.OfferHint(domain.Observation{
		Name:       service,
		Status:     status,
		ObservedAt: time.Now(),
		Latency:    latency,
		Source:     "proxy",
	})
}
