package stream

import (
	"bytes"
	"strings"
)

// Format is the wire shape of a response body.
type Format string

const (
	// FormatSSE is a text/event-stream body
	FormatSSE Format = "sse"

	// FormatJSON is a buffered JSON document
	FormatJSON Format = "json"

	// FormatUnknown means neither header nor content was conclusive
	FormatUnknown Format = "unknown"
)

// DetectFromContentType detects the body format from an HTTP Content-Type header.
func DetectFromContentType(contentType string) Format {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = strings.TrimSpace(contentType[:idx])
	}

	switch {
	case contentType == "text/event-stream", strings.Contains(contentType, "event-stream"):
		return FormatSSE
	case contentType == "application/json", strings.HasSuffix(contentType, "+json"):
		return FormatJSON
	default:
		return FormatUnknown
	}
}

// DetectFromBytes sniffs the first bytes of a body when the header is missing
// or generic. A leading '{' or '[' means JSON; an SSE field prefix means SSE.
func DetectFromBytes(head []byte) Format {
	trimmed := bytes.TrimLeft(head, " \t\r\n\ufeff")
	if len(trimmed) == 0 {
		return FormatUnknown
	}

	switch trimmed[0] {
	case '{', '[':
		return FormatJSON
	}

	for _, prefix := range []string{"event:", "data:", "id:", "retry:", ":"} {
		if bytes.HasPrefix(trimmed, []byte(prefix)) {
			return FormatSSE
		}
	}
	return FormatUnknown
}
