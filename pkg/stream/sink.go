package stream

import (
	"context"
	"errors"
	"io"

	"github.com/google/uuid"
)

// ErrStop may be returned by a Sink to end consumption early without error.
var ErrStop = errors.New("stream: stop")

// Sink receives events in arrival order, one call per event.
type Sink interface {
	OnEvent(ev Event) error
}

// SinkFunc adapts a function to Sink
type SinkFunc func(ev Event) error

// OnEvent implements Sink
func (f SinkFunc) OnEvent(ev Event) error {
	return f(ev)
}

// Consume delivers every event of s to sink on the calling goroutine and
// returns when the stream ends. It returns nil on a clean end of stream or
// when the sink returns ErrStop; a sink error closes the stream and is
// returned as is.
func Consume(ctx context.Context, s *Stream, sink Sink) error {
	if err := s.claim(); err != nil {
		return err
	}
	return consume(ctx, s, sink)
}

func consume(ctx context.Context, s *Stream, sink Sink) error {
	for {
		ev, err := s.next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := sink.OnEvent(ev); err != nil {
			_ = s.Close()
			if errors.Is(err, ErrStop) {
				return nil
			}
			return err
		}
	}
}

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	id     string
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Subscribe consumes s on a background goroutine, pushing each event to sink.
// The returned Subscription cancels delivery and reports the outcome.
func Subscribe(ctx context.Context, s *Stream, sink Sink) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		id:     uuid.NewString(),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	if err := s.claim(); err != nil {
		sub.err = err
		cancel()
		close(sub.done)
		return sub
	}

	go func() {
		defer close(sub.done)
		defer cancel()
		sub.err = consume(ctx, s, sink)
	}()
	return sub
}

// ID identifies the subscription
func (sub *Subscription) ID() string {
	return sub.id
}

// Cancel stops delivery and releases the connection. Wait then reports
// ErrStreamCanceled unless the stream had already finished.
func (sub *Subscription) Cancel() {
	sub.cancel()
}

// Done is closed once no more events will be delivered.
func (sub *Subscription) Done() <-chan struct{} {
	return sub.done
}

// Wait blocks until delivery stops and returns its outcome: nil for a drained
// stream, ErrStreamCanceled, ErrStreamTimeout, a *StreamReadError or a sink error.
func (sub *Subscription) Wait() error {
	<-sub.done
	return sub.err
}
