package ws

import "github.com/pendohq/pendo-assistant/internal/chat"

type MessageNewPayload struct {
	Message chat.Message `json:"message"`
}

type StreamEndPayload struct {
	SessionID string `json:"session_id"`
}
