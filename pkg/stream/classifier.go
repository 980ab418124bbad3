package stream

import (
	"encoding/json"
	"errors"
	"strings"

	"go.uber.org/zap"
)

// ClassifierConfig names the server's event markers. Marker strings are an
// informally versioned contract with the API, so they are configurable.
type ClassifierConfig struct {
	// ContentSuffix marks content delta event types, e.g. "LLMContent".
	ContentSuffix string

	// StatusEventType is the structured status event type.
	StatusEventType string

	// ToolCallEventType is the tool call event type.
	ToolCallEventType string

	// ToolCallPayloadTypes are payload "type" values that mark a tool call
	// regardless of event type.
	ToolCallPayloadTypes []string

	// TextEventType is the generic text event whose content is not shown.
	TextEventType string

	// NoticeText replaces the content of TextEventType events.
	NoticeText string
}

// DefaultClassifierConfig returns the markers the Infactory API emits.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		ContentSuffix:        "Content",
		StatusEventType:      "messages",
		ToolCallEventType:    "LLMToolCall",
		ToolCallPayloadTypes: []string{"function_call", "tool_call"},
		TextEventType:        "text",
		NoticeText:           "Processing data",
	}
}

// Classifier maps frames to events. It holds no per-stream state and may be
// shared by concurrent streams.
type Classifier struct {
	config ClassifierConfig
	logger *zap.Logger
}

// NewClassifier creates a classifier. A nil logger discards output.
func NewClassifier(config ClassifierConfig, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{config: config, logger: logger.Named("stream")}
}

var defaultClassifier = NewClassifier(DefaultClassifierConfig(), nil)

// Classify maps a frame with the default markers and no logging.
func Classify(frame Frame) Event {
	return defaultClassifier.Classify(frame)
}

// framePayload holds the fields the classifier reads. A field of the wrong
// JSON type is treated as absent.
type framePayload struct {
	content      json.RawMessage
	hasContent   bool
	typ          string
	name         string
	functionName string
}

// decodePayload decodes data once. Only invalid JSON is an error; a valid
// non-object value yields a payload with every field absent.
func decodePayload(data string) (framePayload, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(data), &fields); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return framePayload{}, nil
		}
		return framePayload{}, err
	}

	var p framePayload
	p.content, p.hasContent = fields["content"]
	_ = json.Unmarshal(fields["type"], &p.typ)
	_ = json.Unmarshal(fields["name"], &p.name)

	var function struct {
		Name string `json:"name"`
	}
	if json.Unmarshal(fields["function"], &function) == nil {
		p.functionName = function.Name
	}
	return p, nil
}

// Classify returns exactly one Event for frame. Rules are tried in order:
// invalid JSON, content delta, status message, tool call, text notice. A frame
// matching none becomes EventUnknown and is logged as an unhandled event type.
func (c *Classifier) Classify(frame Frame) Event {
	ev := Event{
		Kind:         EventUnknown,
		EventType:    frame.EventType,
		HasEventType: frame.HasEventType,
		RawData:      frame.Data,
		ID:           frame.ID,
	}

	payload, err := decodePayload(frame.Data)
	if err != nil {
		c.logger.Debug("undecodable stream data",
			zap.String("event_type", frame.EventType),
			zap.Error(err))
		return ev
	}

	eventType := frame.EventType
	content := contentText(payload.content)

	switch {
	case c.config.ContentSuffix != "" && strings.HasSuffix(eventType, c.config.ContentSuffix) && content != "":
		ev.Kind = EventContentDelta
		ev.ContentType = eventType
		ev.Text = content

	case eventType != "" && eventType == c.config.StatusEventType:
		ev.Kind = EventStatusMessage
		ev.ContentType = eventType
		ev.Data = json.RawMessage(frame.Data)

	case (eventType != "" && eventType == c.config.ToolCallEventType) || c.isToolCallType(payload.typ):
		ev.Kind = EventToolCall
		name := payload.name
		if name == "" {
			name = payload.functionName
		}
		ev.Name = endpointName(name)

	case eventType != "" && eventType == c.config.TextEventType && payload.hasContent:
		ev.Kind = EventNotice
		ev.ContentType = eventType
		ev.Text = c.config.NoticeText

	default:
		c.logger.Warn("unhandled stream event",
			zap.String("event_type", eventType),
			zap.Bool("has_event_type", frame.HasEventType),
			zap.String("data", truncate(frame.Data, 256)))
	}
	return ev
}

func (c *Classifier) isToolCallType(t string) bool {
	if t == "" {
		return false
	}
	for _, candidate := range c.config.ToolCallPayloadTypes {
		if t == candidate {
			return true
		}
	}
	return false
}

// contentText returns the content field as text. String values are unquoted;
// other JSON values are returned verbatim. Absent and null give "".
func contentText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// endpointName normalizes a tool name to path form: "search" -> "/search".
func endpointName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" || strings.HasPrefix(name, "/") {
		return name
	}
	return "/" + name
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
