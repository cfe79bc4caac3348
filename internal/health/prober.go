package health

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/voxroute/switchboard/internal/directory"
	"github.com/voxroute/switchboard/internal/domain"
	"github.com/voxroute/switchboard/internal/logger"
)

// Prober issues bounded HEAD probes against each service's probe URL and
// writes the results onto the board.
type Prober struct {
	store   directory.Store
	board   *Board
	client  *http.Client
	timeout time.Duration
	log     logger.Logger
}

// NewProber creates a prober with a short-timeout HTTP client.
func NewProber(store directory.Store, board *Board, timeout time.Duration, log logger.Logger) *Prober {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	client := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				return (&net.Dialer{
					Timeout:   timeout,
					KeepAlive: 0,
				}).DialContext(ctx, network, addr)
			},
			TLSHandshakeTimeout: timeout,
			DisableKeepAlives:   true,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			// Don't follow redirects
			return http.ErrUseLastResponse
		},
	}
	return &Prober{
		store:   store,
		board:   board,
		client:  client,
		timeout: timeout,
		log:     log,
	}
}

// Sweep probes every active service with a probe URL and applies the
// results. One slow service never delays the sweep beyond its own timeout.
func (p *Prober) Sweep(ctx context.Context) error {
	descs, err := p.store.List(ctx)
	if err != nil {
		return err
	}

	for _, desc := range descs {
		if !desc.Active || desc.ProbeURL == "" {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		obs := p.probe(ctx, desc)
		p.board.Apply(obs)
		p.log.Debug("probe completed",
			logger.String("service", desc.Name),
			logger.String("status", string(obs.Status)),
			logger.Duration("latency", obs.Latency))
	}
	return nil
}

// probe checks one service and classifies the outcome. Any response,
// including 4xx, proves the service is reachable; only 5xx and transport
// errors count against it.
func (p *Prober) probe(ctx context.Context, desc *domain.ServiceDescriptor) domain.Observation {
	start := time.Now()
	obs := domain.Observation{
		Name:       desc.Name,
		ObservedAt: start,
		Source:     "prober",
	}

	reqCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodHead, desc.ProbeURL, http.NoBody)
	if err != nil {
		obs.Status = domain.StatusUnreachable
		return obs
	}

	resp, err := p.client.Do(req)
	obs.Latency = time.Since(start)
	if err != nil {
		obs.Status = domain.StatusUnreachable
		return obs
	}
	defer func() {
		_ = resp.Body.Close() // Best-effort close on a bodyless HEAD response
	}()

	if resp.StatusCode >= http.StatusInternalServerError {
		obs.Status = domain.StatusDegraded
		return obs
	}
	obs.Status = domain.StatusHealthy
	return obs
}
