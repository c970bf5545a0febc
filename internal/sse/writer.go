package sse

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var ErrStreamingUnsupported = errors.New("response writer does not support streaming")

// Writer emits server-sent events over an http.ResponseWriter, flushing
// after every frame so tokens reach the client as they are produced.
type Writer struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func NewWriter(w http.ResponseWriter) (*Writer, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrStreamingUnsupported
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")

	return &Writer{w: w, flusher: flusher}, nil
}

// Data writes a `data: <json>` frame.
func (sw *Writer) Data(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(sw.w, "data: %s\n\n", payload); err != nil {
		return err
	}

	sw.flusher.Flush()
	return nil
}

// Event writes a named event frame with a JSON payload.
func (sw *Writer) Event(name string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(sw.w, "event: %s\ndata: %s\n\n", name, payload); err != nil {
		return err
	}

	sw.flusher.Flush()
	return nil
}

// End terminates the stream with the `event: end` frame.
func (sw *Writer) End() error {
	return sw.Event("end", struct{}{})
}
