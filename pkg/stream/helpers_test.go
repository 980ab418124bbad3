package stream

import (
	"fmt"
	"io"
	"strings"
	"sync/atomic"
)

// chunkReader replays fixed chunks and then returns err (io.EOF when nil).
type chunkReader struct {
	chunks []string
	err    error
	closed atomic.Bool
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if r.closed.Load() {
		return 0, io.ErrClosedPipe
	}
	if len(r.chunks) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		return 0, io.EOF
	}
	n := copy(p, r.chunks[0])
	if n < len(r.chunks[0]) {
		r.chunks[0] = r.chunks[0][n:]
	} else {
		r.chunks = r.chunks[1:]
	}
	return n, nil
}

func (r *chunkReader) Close() error {
	r.closed.Store(true)
	return nil
}

func newTestStream(chunks ...string) (*Stream, *chunkReader) {
	body := &chunkReader{chunks: chunks}
	return NewStream(body), body
}

func sseContent(text string) string {
	return fmt.Sprintf("event: LLMContent\ndata: {\"content\":%q}\n\n", text)
}

func sseEvent(eventType, data string) string {
	var b strings.Builder
	if eventType != "" {
		b.WriteString("event: " + eventType + "\n")
	}
	b.WriteString("data: " + data + "\n\n")
	return b.String()
}
