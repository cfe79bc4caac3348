// Package transport implements the remote call path as plain HTTP
// request/response RPC. The routing proxy only needs the RemoteTransport
// contract; any request/response protocol could stand in for this one.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/voxroute/switchboard/internal/domain"
	"github.com/voxroute/switchboard/internal/logger"
)

// maxErrorBody caps how much of an error response is read for the message.
const maxErrorBody = 4 << 10

// errorEnvelope is the JSON error body remote services reply with.
type errorEnvelope struct {
	Error string `json:"error"`
}

// HTTPTransport calls POST {baseURL}/rpc/{service}/{operation} with the
// payload as the request body.
//
// Classification: network errors and gateway statuses (502/503/504) are
// transport failures the proxy may retry; any other non-2xx response came
// from the target service and is wrapped as a business error, passed
// through without retry.
type HTTPTransport struct {
	baseURL string
	client  *http.Client
	log     logger.Logger
}

// NewHTTP creates a transport against baseURL with a per-call timeout.
func NewHTTP(baseURL string, timeout time.Duration, log logger.Logger) *HTTPTransport {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPTransport{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}
}

// Call implements proxy.RemoteTransport.
func (t *HTTPTransport) Call(ctx context.Context, service, operation string, payload []byte) ([]byte, error) {
	url := fmt.Sprintf("%s/rpc/%s/%s", t.baseURL, service, operation)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := t.client.Do(req)
	if err != nil {
		// Surface the caller's cancellation as such, not as a
		// transport failure.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("remote call to %s failed: %w", url, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read response from %s: %w", url, err)
		}
		return body, nil

	case resp.StatusCode == http.StatusBadGateway,
		resp.StatusCode == http.StatusServiceUnavailable,
		resp.StatusCode == http.StatusGatewayTimeout:
		return nil, fmt.Errorf("remote %s returned %s", url, resp.Status)

	default:
		// The target service answered: whatever it said is its
		// business, not ours.
		return nil, &domain.BusinessError{Name: service, Err: readRemoteError(resp)}
	}
}

// readRemoteError extracts the error message from a non-gateway failure
// response, falling back to the HTTP status.
func readRemoteError(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err == nil && len(body) > 0 {
		var env errorEnvelope
		if jerr := json.Unmarshal(body, &env); jerr == nil && env.Error != "" {
			return errors.New(env.Error)
		}
	}
	return fmt.Errorf("remote returned %s", resp.Status)
}
