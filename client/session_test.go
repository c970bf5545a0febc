package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSession_Send(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"token\":\"Hel\"}\n\n")
		fmt.Fprint(w, "data: {\"token\":\"lo\"}\n\n")
		fmt.Fprint(w, "event: end\ndata: {}\n\n")
	}))
	defer srv.Close()

	s := NewSession(New(srv.URL), "conv-1")

	var tokens []string
	reply, err := s.Send(context.Background(), "hi", "user-1", func(token string) {
		tokens = append(tokens, token)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "Hello" {
		t.Errorf("reply = %q, want Hello", reply)
	}
	if len(tokens) != 2 {
		t.Errorf("tokens = %v", tokens)
	}
}

// A second Send cancels the stream still in flight, the first Send reports
// ErrSuperseded, and no token from the aborted stream is delivered after the
// new one begins.
func TestSession_LastRequestWins(t *testing.T) {
	firstStarted := make(chan struct{})
	release := make(chan struct{})
	var reqs atomic.Int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fl := w.(http.Flusher)

		if reqs.Add(1) == 1 {
			fmt.Fprint(w, "data: {\"token\":\"first-A\"}\n\n")
			fl.Flush()
			close(firstStarted)
			// hold the stream open until the test is done with it
			select {
			case <-release:
			case <-r.Context().Done():
			}
			fmt.Fprint(w, "data: {\"token\":\"first-B\"}\n\n")
			fmt.Fprint(w, "event: end\ndata: {}\n\n")
			return
		}

		fmt.Fprint(w, "data: {\"token\":\"Hel\"}\n\n")
		fmt.Fprint(w, "data: {\"token\":\"lo\"}\n\n")
		fmt.Fprint(w, "event: end\ndata: {}\n\n")
	}))
	defer srv.Close()

	s := NewSession(New(srv.URL), "conv-1")

	var mu sync.Mutex
	var firstTokens []string
	firstDone := make(chan error, 1)

	go func() {
		_, err := s.Send(context.Background(), "first", "user-1", func(token string) {
			mu.Lock()
			firstTokens = append(firstTokens, token)
			mu.Unlock()
		})
		firstDone <- err
	}()

	select {
	case <-firstStarted:
	case <-time.After(5 * time.Second):
		t.Fatal("first stream never started")
	}

	reply, err := s.Send(context.Background(), "second", "user-1", nil)
	if err != nil {
		t.Fatalf("second send failed: %v", err)
	}
	if reply != "Hello" {
		t.Errorf("second reply = %q, want Hello", reply)
	}

	select {
	case err := <-firstDone:
		if !errors.Is(err, ErrSuperseded) {
			t.Errorf("first send error = %v, want ErrSuperseded", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("first send never returned")
	}

	close(release)

	mu.Lock()
	defer mu.Unlock()
	for _, token := range firstTokens {
		if token == "first-B" {
			t.Error("token from the aborted stream was delivered")
		}
	}
}

func TestSession_SendAfterSupersede(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"token\":\"ok\"}\n\n")
		fmt.Fprint(w, "event: end\ndata: {}\n\n")
	}))
	defer srv.Close()

	s := NewSession(New(srv.URL), "conv-1")

	// sequential sends never supersede each other
	for i := 0; i < 3; i++ {
		reply, err := s.Send(context.Background(), "hi", "user-1", nil)
		if err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
		if reply != "ok" {
			t.Errorf("send %d reply = %q", i, reply)
		}
	}
}

func TestSession_CallerCancelIsNotSupersede(t *testing.T) {
	started := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fl := w.(http.Flusher)
		fmt.Fprint(w, "data: {\"token\":\"first\"}\n\n")
		fl.Flush()
		close(started)
		<-r.Context().Done()
	}))
	defer srv.Close()

	s := NewSession(New(srv.URL), "conv-1")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := s.Send(ctx, "hi", "user-1", nil)
		done <- err
	}()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("stream never started")
	}
	cancel()

	select {
	case err := <-done:
		if errors.Is(err, ErrSuperseded) {
			t.Error("caller cancellation must not be reported as supersede")
		}
		if err == nil {
			t.Error("expected an error from the cancelled send")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("send never returned")
	}
}
