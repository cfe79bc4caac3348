package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/voxroute/switchboard/internal/domain"
	"github.com/voxroute/switchboard/internal/logger"
)

func TestHTTPCallSuccess(t *testing.T) {
	var gotPath, gotReqID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotReqID = r.Header.Get("X-Request-ID")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"balance":42}`))
	}))
	defer srv.Close()

	tr := NewHTTP(srv.URL, time.Second, logger.New("error", false))
	out, err := tr.Call(context.Background(), "payment_svc", "get_balance", []byte(`{"user":1}`))
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if string(out) != `{"balance":42}` {
		t.Errorf("out = %q", out)
	}
	if gotPath != "/rpc/payment_svc/get_balance" {
		t.Errorf("path = %q, want /rpc/payment_svc/get_balance", gotPath)
	}
	if gotReqID == "" {
		t.Error("request should carry an X-Request-ID")
	}
}

func TestHTTPCallBusinessError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"card declined"}`))
	}))
	defer srv.Close()

	tr := NewHTTP(srv.URL, time.Second, logger.New("error", false))
	_, err := tr.Call(context.Background(), "payment_svc", "charge", nil)

	var be *domain.BusinessError
	if !errors.As(err, &be) {
		t.Fatalf("err = %v, want BusinessError", err)
	}
	if be.Err.Error() != "card declined" {
		t.Errorf("message = %q, want card declined", be.Err.Error())
	}
}

func TestHTTPCallGatewayFailureIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	tr := NewHTTP(srv.URL, time.Second, logger.New("error", false))
	_, err := tr.Call(context.Background(), "payment_svc", "charge", nil)
	if err == nil {
		t.Fatal("expected transport error")
	}
	var be *domain.BusinessError
	if errors.As(err, &be) {
		t.Error("502 must be a transport failure, not a business error")
	}
}

func TestHTTPCallConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	tr := NewHTTP(srv.URL, time.Second, logger.New("error", false))
	_, err := tr.Call(context.Background(), "payment_svc", "charge", nil)
	if err == nil {
		t.Fatal("expected error against a closed server")
	}
	var be *domain.BusinessError
	if errors.As(err, &be) {
		t.Error("connection refused must be a transport failure")
	}
}

func TestHTTPCallCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	tr := NewHTTP(srv.URL, 10*time.Second, logger.New("error", false))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := tr.Call(ctx, "payment_svc", "charge", nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
