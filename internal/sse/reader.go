package sse

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Event is one parsed server-sent event. Name is "message" for bare
// data-only frames.
type Event struct {
	Name string
	Data string
}

// ErrStop lets a callback end the read loop without reporting a failure.
var ErrStop = errStop{}

type errStop struct{}

func (errStop) Error() string { return "sse: stop" }

// ReadEvents parses an event stream, invoking fn for each complete event.
// An event is dispatched on the blank line that terminates it.
func ReadEvents(ctx context.Context, r io.Reader, fn func(Event) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var name, data string

	dispatch := func() error {
		if name == "" && data == "" {
			return nil
		}
		evt := Event{Name: name, Data: data}
		if evt.Name == "" {
			evt.Name = "message"
		}
		name, data = "", ""
		return fn(evt)
	}

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scanner.Text()

		if line == "" {
			if err := dispatch(); err != nil {
				if err == ErrStop {
					return nil
				}
				return err
			}
			continue
		}

		switch {
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimPrefix(strings.TrimPrefix(line, "event:"), " ")
		case strings.HasPrefix(line, "data:"):
			data = strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " ")
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan sse stream: %w", err)
	}

	// A final event without a trailing blank line still counts.
	if err := dispatch(); err != nil && err != ErrStop {
		return err
	}

	return nil
}
