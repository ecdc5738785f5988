package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestShutdown_ClosesInReverseOrder(t *testing.T) {
	sm := NewShutdownManager(time.Second, nil)

	var order []string
	for _, name := range []string{"store", "http", "grpc"} {
		name := name
		sm.RegisterCloser(name, CloserFunc(func() error {
			order = append(order, name)
			return nil
		}))
	}

	if err := sm.Shutdown(context.Background(), "test"); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if len(order) != 3 || order[0] != "grpc" || order[2] != "store" {
		t.Errorf("close order = %v, want [grpc http store]", order)
	}

	// Second call is a no-op
	if err := sm.Shutdown(context.Background(), "again"); err != nil {
		t.Errorf("second Shutdown returned %v", err)
	}
	if len(order) != 3 {
		t.Error("closers should run once")
	}
}

func TestShutdown_ReportsFirstCloseError(t *testing.T) {
	sm := NewShutdownManager(time.Second, nil)
	sm.RegisterCloser("a", CloserFunc(func() error { return errors.New("a failed") }))
	sm.RegisterCloser("b", CloserFunc(func() error { return errors.New("b failed") }))

	err := sm.Shutdown(context.Background(), "test")
	if err == nil || err.Error() != "close b: b failed" {
		t.Errorf("unexpected error %v", err)
	}
}

func TestMiddleware_RejectsDuringShutdown(t *testing.T) {
	sm := NewShutdownManager(time.Second, nil)
	h := sm.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sm.InFlightCount() != 1 {
			t.Errorf("in-flight = %d inside handler, want 1", sm.InFlightCount())
		}
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d before shutdown", rec.Code)
	}
	if sm.InFlightCount() != 0 {
		t.Errorf("in-flight = %d after request", sm.InFlightCount())
	}

	sm.Shutdown(context.Background(), "test")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d during shutdown, want 503", rec.Code)
	}
	select {
	case <-sm.Done():
	default:
		t.Error("Done channel should be closed")
	}
}

func TestShutdown_DrainTimeout(t *testing.T) {
	sm := NewShutdownManager(100*time.Millisecond, nil)
	if !sm.TrackRequest() {
		t.Fatal("TrackRequest should succeed before shutdown")
	}

	start := time.Now()
	err := sm.Shutdown(context.Background(), "test")
	if err == nil {
		t.Error("expected drain error with a stuck request")
	}
	if time.Since(start) > 2*time.Second {
		t.Error("drain should respect the timeout")
	}
}
