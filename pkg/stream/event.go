package stream

import (
	"encoding/json"
)

// EventKind tags the variant an Event holds.
type EventKind int

const (
	// EventUnknown preserves frames no rule recognized, including invalid JSON.
	EventUnknown EventKind = iota

	// EventContentDelta is an incremental text fragment. Text is appended by
	// the consumer; the decoder never accumulates it.
	EventContentDelta

	// EventToolCall signals that the server invoked a capability. Name is a
	// leading-slash path such as "/search".
	EventToolCall

	// EventStatusMessage carries a structured status object in Data.
	EventStatusMessage

	// EventNotice is a display placeholder for events whose payload is not
	// meant for end users.
	EventNotice
)

func (k EventKind) String() string {
	switch k {
	case EventContentDelta:
		return "content_delta"
	case EventToolCall:
		return "tool_call"
	case EventStatusMessage:
		return "status_message"
	case EventNotice:
		return "notice"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler
func (k EventKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Event is a classified frame. Which fields are set depends on Kind:
//
//	EventContentDelta   ContentType, Text
//	EventToolCall       Name
//	EventStatusMessage  ContentType, Data
//	EventNotice         ContentType, Text
//	EventUnknown        EventType, HasEventType, RawData
//
// EventType, HasEventType, RawData and ID are filled for every kind.
type Event struct {
	Kind         EventKind       `json:"kind"`
	EventType    string          `json:"event_type,omitempty"`
	HasEventType bool            `json:"-"`
	ContentType  string          `json:"content_type,omitempty"`
	Text         string          `json:"text,omitempty"`
	Name         string          `json:"name,omitempty"`
	Data         json.RawMessage `json:"data,omitempty"`
	RawData      string          `json:"raw_data,omitempty"`
	ID           string          `json:"id,omitempty"`
}
