package stream

import (
	"bytes"
	"strings"
)

// Frame is one decoded SSE unit before classification.
type Frame struct {
	// EventType comes from the most recent "event:" line of the current block.
	// HasEventType is false when no such line was seen since the last blank line.
	EventType    string
	HasEventType bool

	// Data is the trimmed remainder of a non-empty "data:" line.
	Data string

	// ID is the last "id:" value seen on the stream, if any.
	ID string
}

// DecoderState is everything DecodeChunk carries from one chunk to the next.
type DecoderState struct {
	// Buffer holds the incomplete line at the end of the previous chunk. Its
	// backing array is reused by the next call, so pass each state on once.
	Buffer       []byte
	EventType    string
	HasEventType bool
	LastID       string
}

// DecodeChunk appends chunk to the buffered tail, emits a Frame for every
// complete non-empty "data:" line and returns the updated state.
//
// Lines are split on '\n' and a trailing '\r' is dropped. A blank line clears
// the event type whether or not data preceded it. "event:" and "id:" update
// state; comments, "retry:" and unknown fields are ignored.
//
// Splitting on '\n' never cuts a multi-byte UTF-8 sequence, so a rune split
// across two chunks is reassembled in the buffer before it is interpreted.
func DecodeChunk(state DecoderState, chunk []byte) (DecoderState, []Frame) {
	if len(chunk) == 0 {
		return state, nil
	}

	var frames []Frame
	for {
		i := bytes.IndexByte(chunk, '\n')
		if i < 0 {
			state.Buffer = append(state.Buffer, chunk...)
			return state, frames
		}

		line := chunk[:i]
		if len(state.Buffer) > 0 {
			state.Buffer = append(state.Buffer, line...)
			line = state.Buffer
		}
		if frame, ok := state.decodeLine(strings.TrimSuffix(string(line), "\r")); ok {
			frames = append(frames, frame)
		}
		state.Buffer = state.Buffer[:0]
		chunk = chunk[i+1:]
	}
}

func (s *DecoderState) decodeLine(line string) (Frame, bool) {
	switch {
	case strings.TrimSpace(line) == "":
		s.EventType = ""
		s.HasEventType = false

	case strings.HasPrefix(line, "event:"):
		s.EventType = strings.TrimSpace(line[len("event:"):])
		s.HasEventType = s.EventType != ""

	case strings.HasPrefix(line, "data:"):
		data := strings.TrimSpace(line[len("data:"):])
		if data == "" {
			return Frame{}, false
		}
		return Frame{
			EventType:    s.EventType,
			HasEventType: s.HasEventType,
			Data:         data,
			ID:           s.LastID,
		}, true

	case strings.HasPrefix(line, "id:"):
		// ids containing NUL are ignored
		if id := strings.TrimSpace(line[len("id:"):]); !strings.Contains(id, "\x00") {
			s.LastID = id
		}
	}
	return Frame{}, false
}

// Decoder queues frames decoded from successive chunks. It is owned by a
// single stream consumption and is not safe for concurrent use.
type Decoder struct {
	state   DecoderState
	pending []Frame
}

// NewDecoder creates an empty decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed decodes chunk and queues the resulting frames.
func (d *Decoder) Feed(chunk []byte) {
	var frames []Frame
	d.state, frames = DecodeChunk(d.state, chunk)
	d.pending = append(d.pending, frames...)
}

// Pop returns the oldest queued frame.
func (d *Decoder) Pop() (Frame, bool) {
	if len(d.pending) == 0 {
		return Frame{}, false
	}
	frame := d.pending[0]
	d.pending[0] = Frame{}
	d.pending = d.pending[1:]
	return frame, true
}

// Pending returns the number of queued frames.
func (d *Decoder) Pending() int {
	return len(d.pending)
}

// State returns a copy of the current decoder state.
func (d *Decoder) State() DecoderState {
	return d.state
}

// Finish drops the incomplete trailing line. It cannot be a complete frame.
func (d *Decoder) Finish() {
	d.state.Buffer = nil
}

// Reset discards queued frames and all state.
func (d *Decoder) Reset() {
	d.state = DecoderState{}
	d.pending = nil
}

// DecodeAll decodes a complete byte string in one pass.
func DecodeAll(data []byte) []Frame {
	_, frames := DecodeChunk(DecoderState{}, data)
	return frames
}
