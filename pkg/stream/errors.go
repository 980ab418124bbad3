package stream

import (
	"fmt"

	"github.com/infactory-io/infactory-go/pkg/types"
)

type streamError struct {
	msg  string
	code types.ErrorCode
}

func (e *streamError) Error() string { return e.msg }

func (e *streamError) ErrorCode() types.ErrorCode { return e.code }

var (
	// ErrStreamConsumed is returned when a second consumer touches a stream.
	ErrStreamConsumed error = &streamError{msg: "stream: already consumed", code: types.ErrCodeStreamConsumed}

	// ErrStreamCanceled is the terminal state of a stream closed by its consumer.
	ErrStreamCanceled error = &streamError{msg: "stream: canceled", code: types.ErrCodeCanceled}

	// ErrStreamTimeout is returned when no chunk arrived within the read timeout.
	ErrStreamTimeout error = &streamError{msg: "stream: read timed out", code: types.ErrCodeTimeout}
)

// StreamReadError reports a transport failure in the middle of a stream.
// Events delivered before the failure are not a complete result.
type StreamReadError struct {
	Err    error
	Events int
}

func (e *StreamReadError) Error() string {
	return fmt.Sprintf("stream read failed after %d events: %v", e.Events, e.Err)
}

// Unwrap returns the underlying transport error
func (e *StreamReadError) Unwrap() error { return e.Err }

// ErrorCode implements types.Coded
func (e *StreamReadError) ErrorCode() types.ErrorCode { return types.ErrCodeStreamRead }
