package client

import (
	"context"
	"errors"
	"sync"
)

// ErrSuperseded is returned when a newer Send cancelled this stream.
var ErrSuperseded = errors.New("stream superseded by a newer send")

// Session serializes sends over one conversation with last-request-wins
// semantics: a new Send cancels any stream still in flight through that
// stream's own cancel func, and tokens from a superseded stream are never
// delivered. Safe for concurrent use.
type Session struct {
	client         *Client
	conversationID string

	mu     sync.Mutex
	cancel context.CancelFunc
	gen    uint64
}

func NewSession(c *Client, conversationID string) *Session {
	return &Session{client: c, conversationID: conversationID}
}

func (s *Session) ConversationID() string { return s.conversationID }

// begin cancels the previous in-flight stream and registers a new one,
// returning its generation and cancel func.
func (s *Session) begin(ctx context.Context) (context.Context, context.CancelFunc, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithCancel(ctx)
	s.gen++
	s.cancel = cancel

	return ctx, cancel, s.gen
}

func (s *Session) finish(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gen == gen {
		s.cancel = nil
	}
}

func (s *Session) current() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// Send streams one user message, invoking onToken per token, and returns the
// assembled assistant reply. If another Send begins meanwhile, this one stops
// with ErrSuperseded and delivers no further tokens.
func (s *Session) Send(ctx context.Context, content, userID string, onToken func(token string)) (string, error) {
	ctx, cancel, gen := s.begin(ctx)
	defer cancel()
	defer s.finish(gen)

	var reply []byte

	err := s.client.Stream(ctx, Request{
		Content:        content,
		UserID:         userID,
		ConversationID: s.conversationID,
	}, func(evt StreamEvent) error {
		if s.current() != gen {
			return ErrSuperseded
		}

		reply = append(reply, evt.Token...)
		if onToken != nil {
			onToken(evt.Token)
		}
		return nil
	})

	if err != nil {
		superseded := s.current() != gen && (errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled))
		if errors.Is(err, ErrSuperseded) || superseded {
			return "", ErrSuperseded
		}
		return "", err
	}

	if s.current() != gen {
		return "", ErrSuperseded
	}

	return string(reply), nil
}
