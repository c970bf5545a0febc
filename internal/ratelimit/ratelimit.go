package ratelimit

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/render"

	response "github.com/pendohq/pendo-assistant/internal/lib"
)

const window = time.Minute

// cleanupEvery bounds how often stale window entries are swept.
const cleanupEvery = 100

type entry struct {
	count   int
	started time.Time
}

// Limiter is a fixed-window in-memory rate limiter keyed by client.
type Limiter struct {
	mu      sync.Mutex
	limit   int
	burst   int
	clients map[string]entry
	checks  int

	now func() time.Time
}

func New(limit, burst int) *Limiter {
	return &Limiter{
		limit:   limit,
		burst:   burst,
		clients: make(map[string]entry),
		now:     time.Now,
	}
}

// Allow reports whether a request from key may proceed. When the request is
// rejected, retryAfter is the number of seconds until the window resets.
func (l *Limiter) Allow(key string) (ok bool, retryAfter int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	l.checks++
	if l.checks >= cleanupEvery {
		l.cleanup(now)
		l.checks = 0
	}

	e, found := l.clients[key]
	if !found || now.Sub(e.started) >= window {
		l.clients[key] = entry{count: 1, started: now}
		return true, 0
	}

	if e.count < l.limit+l.burst {
		e.count++
		l.clients[key] = e
		return true, 0
	}

	remaining := window - now.Sub(e.started)
	secs := int(remaining.Seconds())
	if secs < 1 {
		secs = 1
	}
	return false, secs
}

func (l *Limiter) cleanup(now time.Time) {
	for key, e := range l.clients {
		if now.Sub(e.started) >= window {
			delete(l.clients, key)
		}
	}
}

// ClientKey identifies the caller: the first hop of X-Forwarded-For when the
// service sits behind a proxy, the remote address otherwise.
func ClientKey(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return "ip:" + strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "ip:" + r.RemoteAddr
	}
	return "ip:" + host
}

func Middleware(l *Limiter, log *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := ClientKey(r)

			ok, retryAfter := l.Allow(key)
			if !ok {
				log.Warn("rate limit exceeded", slog.String("client", key))

				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				render.Status(r, http.StatusTooManyRequests)
				render.JSON(w, r, response.ErrorResponse{
					Error: response.ErrorBody{
						Code:    "rate_limited",
						Message: "too many requests",
					},
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
