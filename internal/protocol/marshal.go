package protocol

import (
	"encoding/json"
	"fmt"
)

// Message is the envelope for every websocket frame.
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage wraps data in an envelope of the given type. A nil data leaves
// the payload empty.
func NewMessage(messageType MessageType, data any) (*Message, error) {
	msg := &Message{Type: messageType}
	if data == nil {
		return msg, nil
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", messageType, err)
	}
	msg.Data = raw
	return msg, nil
}

// Decode unmarshals the payload into v.
func (m *Message) Decode(v any) error {
	if len(m.Data) == 0 {
		return fmt.Errorf("%s message has no data", m.Type)
	}
	if err := json.Unmarshal(m.Data, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", m.Type, err)
	}
	return nil
}
