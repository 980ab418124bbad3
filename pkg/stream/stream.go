package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// DefaultChunkSize is the read buffer used for each transport read.
const DefaultChunkSize = 4096

type consumeMode int

const (
	modeNone consumeMode = iota
	modePull
	modeExclusive
)

// Stream is a live SSE response. It exclusively owns the body's read cursor
// until it is drained, canceled or fails, at which point the body is closed.
//
// Next may be called repeatedly by one pull consumer. All, Aggregate, Consume,
// Subscribe and Normalize each claim the whole stream; any second claim fails
// with ErrStreamConsumed.
type Stream struct {
	id          string
	body        io.ReadCloser
	classifier  *Classifier
	readTimeout time.Duration
	buf         []byte

	mu   sync.Mutex
	mode consumeMode

	// consumer-owned state
	decoder *Decoder
	eof     bool
	err     error

	events    atomic.Int64
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// Option configures a Stream
type Option func(*Stream)

// WithClassifier sets the classifier used for every frame.
func WithClassifier(c *Classifier) Option {
	return func(s *Stream) {
		if c != nil {
			s.classifier = c
		}
	}
}

// WithReadTimeout bounds the wait for each chunk. Zero disables it.
func WithReadTimeout(d time.Duration) Option {
	return func(s *Stream) {
		s.readTimeout = d
	}
}

// WithChunkSize sets the transport read size.
func WithChunkSize(n int) Option {
	return func(s *Stream) {
		if n > 0 {
			s.buf = make([]byte, n)
		}
	}
}

// WithID overrides the generated stream ID, e.g. with the request ID.
func WithID(id string) Option {
	return func(s *Stream) {
		if id != "" {
			s.id = id
		}
	}
}

// NewStream wraps an open SSE body.
func NewStream(body io.ReadCloser, opts ...Option) *Stream {
	s := &Stream{
		id:         uuid.NewString(),
		body:       body,
		classifier: defaultClassifier,
		decoder:    NewDecoder(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.buf == nil {
		s.buf = make([]byte, DefaultChunkSize)
	}
	return s
}

// ID identifies the stream in logs
func (s *Stream) ID() string {
	return s.id
}

// Events returns how many events have been delivered so far. It is safe to
// call from any goroutine.
func (s *Stream) Events() int {
	return int(s.events.Load())
}

// Next returns the next event in wire order. It blocks until a complete frame
// is available and returns io.EOF once the stream has ended. Cancellation of
// ctx or Close ends the stream with ErrStreamCanceled.
func (s *Stream) Next(ctx context.Context) (Event, error) {
	if err := s.claimPull(); err != nil {
		return Event{}, err
	}
	return s.next(ctx)
}

// All returns a single-pass sequence of events. A terminal failure is yielded
// once as a non-nil error; normal end of stream just stops the sequence.
// Breaking out of the loop closes the stream.
func (s *Stream) All(ctx context.Context) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		if err := s.claim(); err != nil {
			yield(Event{}, err)
			return
		}
		for {
			ev, err := s.next(ctx)
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(Event{}, err)
				return
			}
			if !yield(ev, nil) {
				_ = s.Close()
				return
			}
		}
	}
}

// Close cancels the stream and releases the connection. Buffered bytes are
// dropped and no further events are delivered. Safe to call concurrently with
// a blocked read and more than once.
func (s *Stream) Close() error {
	s.closed.Store(true)
	return s.release()
}

func (s *Stream) claim() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != modeNone {
		return ErrStreamConsumed
	}
	s.mode = modeExclusive
	return nil
}

func (s *Stream) claimPull() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.mode {
	case modeNone:
		s.mode = modePull
		return nil
	case modePull:
		return nil
	}
	return ErrStreamConsumed
}

func (s *Stream) next(ctx context.Context) (Event, error) {
	if s.err != nil {
		return Event{}, s.err
	}

	for {
		if s.closed.Load() {
			return Event{}, s.terminate(ErrStreamCanceled)
		}
		if err := ctx.Err(); err != nil {
			return Event{}, s.terminate(err)
		}

		if frame, ok := s.decoder.Pop(); ok {
			s.events.Add(1)
			return s.classifier.Classify(frame), nil
		}

		if s.eof {
			s.decoder.Finish()
			s.err = io.EOF
			_ = s.release()
			return Event{}, io.EOF
		}

		n, err := s.read(ctx)
		if n > 0 {
			s.decoder.Feed(s.buf[:n])
		}
		switch {
		case errors.Is(err, io.EOF):
			s.eof = true
		case err != nil:
			return Event{}, s.terminate(err)
		}
	}
}

// read performs one transport read. Cancellation and the read timeout both
// close the body, which unblocks the pending Read.
func (s *Stream) read(ctx context.Context) (int, error) {
	stop := context.AfterFunc(ctx, func() { _ = s.release() })
	defer stop()

	var timedOut atomic.Bool
	if s.readTimeout > 0 {
		timer := time.AfterFunc(s.readTimeout, func() {
			timedOut.Store(true)
			_ = s.release()
		})
		defer timer.Stop()
	}

	n, err := s.body.Read(s.buf)
	if timedOut.Load() {
		return n, ErrStreamTimeout
	}
	if err != nil && !errors.Is(err, io.EOF) && ctx.Err() != nil {
		return n, ctx.Err()
	}
	return n, err
}

// terminate records the terminal error, drops decoder state and releases the
// connection.
func (s *Stream) terminate(cause error) error {
	switch {
	case errors.Is(cause, ErrStreamTimeout):
		s.err = ErrStreamTimeout
	case errors.Is(cause, context.DeadlineExceeded):
		s.err = fmt.Errorf("%w: %w", ErrStreamTimeout, cause)
	case s.closed.Load(), errors.Is(cause, context.Canceled), errors.Is(cause, ErrStreamCanceled):
		s.err = ErrStreamCanceled
	default:
		s.err = &StreamReadError{Err: cause, Events: s.Events()}
	}
	s.decoder.Reset()
	_ = s.release()
	return s.err
}

func (s *Stream) release() error {
	s.closeOnce.Do(func() {
		if s.body != nil {
			s.closeErr = s.body.Close()
		}
	})
	return s.closeErr
}
