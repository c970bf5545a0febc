package ws

import "encoding/json"

const (
	MessageNew = "message.new"
	StreamEnd  = "stream.end"
)

type Event struct {
	Type           string          `json:"type"`
	ConversationID string          `json:"conversation_id"`
	Payload        json.RawMessage `json:"payload,omitempty"`
}

func NewEvent(conversationID, eventType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return json.Marshal(Event{
		Type:           eventType,
		ConversationID: conversationID,
		Payload:        raw,
	})
}
