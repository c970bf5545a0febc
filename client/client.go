// Package client is the Go consumer of the pendo-assistant API: a chat
// request sender and an SSE token-stream reader, mirroring what the browser
// frontend does.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pendohq/pendo-assistant/internal/sse"
)

const apiKeyHeader = "X-OpenAI-API-Key"

type FileAttachment struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
	MimeType string `json:"mime_type"`
}

type Request struct {
	Content        string           `json:"content"`
	UserID         string           `json:"user_id"`
	ConversationID string           `json:"conversation_id,omitempty"`
	SessionID      string           `json:"session_id,omitempty"`
	Stream         bool             `json:"stream,omitempty"`
	Files          []FileAttachment `json:"files,omitempty"`
}

type Response struct {
	Response       string `json:"response"`
	SessionID      string `json:"session_id"`
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
}

// StreamEvent is one decoded `data:` frame of the token stream.
type StreamEvent struct {
	Token          string `json:"token"`
	SessionID      string `json:"session_id"`
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
	Error          string `json:"error,omitempty"`
}

type apiError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithAPIKey sets the user-supplied OpenAI key forwarded in the request
// header (demo mode).
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) newRequest(ctx context.Context, req Request) (*http.Request, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	hr, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/pendo-agent", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	hr.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		hr.Header.Set(apiKeyHeader, c.apiKey)
	}

	return hr, nil
}

func decodeAPIError(resp *http.Response) error {
	var apiErr apiError
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err := json.Unmarshal(raw, &apiErr); err == nil && apiErr.Error.Message != "" {
		return fmt.Errorf("api error %d (%s): %s", resp.StatusCode, apiErr.Error.Code, apiErr.Error.Message)
	}
	return fmt.Errorf("api error %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
}

// Complete sends a request in non-streaming mode and returns the JSON
// envelope.
func (c *Client) Complete(ctx context.Context, req Request) (*Response, error) {
	req.Stream = false

	hr, err := c.newRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(hr)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(resp)
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &out, nil
}

// Stream sends a request in streaming mode and calls fn for each event until
// the `event: end` frame, the `[DONE]` sentinel, or an error frame arrives.
// Streaming is confirmed by the response content type; a JSON response is
// decoded and surfaced through a single synthetic event.
func (c *Client) Stream(ctx context.Context, req Request, fn func(StreamEvent) error) error {
	req.Stream = true

	hr, err := c.newRequest(ctx, req)
	if err != nil {
		return err
	}
	hr.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(hr)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeAPIError(resp)
	}

	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/event-stream") {
		var out Response
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return fn(StreamEvent{
			Token:          out.Response,
			SessionID:      out.SessionID,
			ConversationID: out.ConversationID,
			UserID:         out.UserID,
		})
	}

	var streamErr error
	err = sse.ReadEvents(ctx, resp.Body, func(evt sse.Event) error {
		if evt.Name == "end" {
			return sse.ErrStop
		}

		if evt.Data == "[DONE]" {
			return sse.ErrStop
		}

		var se StreamEvent
		if err := json.Unmarshal([]byte(evt.Data), &se); err != nil {
			return fmt.Errorf("decode stream event: %w", err)
		}

		if se.Error != "" {
			streamErr = fmt.Errorf("stream error: %s", se.Error)
			return sse.ErrStop
		}

		return fn(se)
	})
	if err != nil {
		return err
	}

	return streamErr
}

// CheckResume reports whether the user has an uploaded resume.
func (c *Client) CheckResume(ctx context.Context, userID string) (bool, error) {
	hr, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/resume/check/"+userID, nil)
	if err != nil {
		return false, err
	}

	resp, err := c.httpClient.Do(hr)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, decodeAPIError(resp)
	}

	var out struct {
		HasResume bool `json:"has_resume"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, fmt.Errorf("decode response: %w", err)
	}

	return out.HasResume, nil
}

// ResumeDownloadURL fetches a presigned link to the user's stored resume
// file.
func (c *Client) ResumeDownloadURL(ctx context.Context, userID string) (string, error) {
	hr, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/resume/download/"+userID, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(hr)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", decodeAPIError(resp)
	}

	var out struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	return out.URL, nil
}
