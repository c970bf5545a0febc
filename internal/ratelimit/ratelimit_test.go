package ratelimit

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAllow_LimitPlusBurst(t *testing.T) {
	l := New(3, 2)

	for i := 0; i < 5; i++ {
		ok, _ := l.Allow("ip:1.2.3.4")
		if !ok {
			t.Fatalf("request %d rejected, want %d allowed", i+1, 5)
		}
	}

	ok, retryAfter := l.Allow("ip:1.2.3.4")
	if ok {
		t.Fatal("request over limit+burst was allowed")
	}
	if retryAfter < 1 {
		t.Errorf("retryAfter = %d, want >= 1", retryAfter)
	}
}

func TestAllow_WindowReset(t *testing.T) {
	l := New(1, 0)

	now := time.Now()
	l.now = func() time.Time { return now }

	if ok, _ := l.Allow("ip:1.2.3.4"); !ok {
		t.Fatal("first request rejected")
	}
	if ok, _ := l.Allow("ip:1.2.3.4"); ok {
		t.Fatal("second request in window allowed")
	}

	now = now.Add(61 * time.Second)

	if ok, _ := l.Allow("ip:1.2.3.4"); !ok {
		t.Fatal("request after window reset rejected")
	}
}

func TestAllow_KeysAreIndependent(t *testing.T) {
	l := New(1, 0)

	if ok, _ := l.Allow("ip:1.1.1.1"); !ok {
		t.Fatal("first key rejected")
	}
	if ok, _ := l.Allow("ip:2.2.2.2"); !ok {
		t.Fatal("second key throttled by first key's window")
	}
}

func TestClientKey(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:1234"

	if got := ClientKey(r); got != "ip:10.0.0.1" {
		t.Errorf("ClientKey = %q", got)
	}

	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if got := ClientKey(r); got != "ip:203.0.113.7" {
		t.Errorf("ClientKey with X-Forwarded-For = %q", got)
	}
}

func TestMiddleware(t *testing.T) {
	l := New(1, 0)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	var hits int
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusOK)
	})

	h := Middleware(l, log)(next)

	req := httptest.NewRequest(http.MethodPost, "/api/pendo-agent", nil)
	req.RemoteAddr = "10.0.0.1:1234"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
	if hits != 1 {
		t.Errorf("handler ran %d times, want 1", hits)
	}
}

func TestCleanupDropsStaleEntries(t *testing.T) {
	l := New(10, 0)

	now := time.Now()
	l.now = func() time.Time { return now }

	l.Allow("ip:stale")
	now = now.Add(2 * time.Minute)

	// trip the periodic sweep
	for i := 0; i < cleanupEvery; i++ {
		l.Allow("ip:fresh")
	}

	l.mu.Lock()
	_, ok := l.clients["ip:stale"]
	l.mu.Unlock()
	if ok {
		t.Error("stale window entry survived cleanup")
	}
}
