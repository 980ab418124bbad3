package stream

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
)

// Result is the fold of a whole event sequence.
type Result struct {
	// Content is every content delta concatenated in arrival order.
	Content string `json:"content"`

	// Status is the payload of the last status message, if any.
	Status json.RawMessage `json:"status,omitempty"`

	ToolCalls []string `json:"tool_calls,omitempty"`
	Notices   []string `json:"notices,omitempty"`

	// Unknown keeps unrecognized events so callers can detect protocol drift.
	Unknown []Event `json:"unknown,omitempty"`

	EventCount int `json:"event_count"`
}

// Aggregator folds events into a Result. The content buffer belongs to the
// aggregator alone.
type Aggregator struct {
	content strings.Builder
	result  Result
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Add folds one event. Deltas append, they never replace.
func (a *Aggregator) Add(ev Event) {
	a.result.EventCount++

	switch ev.Kind {
	case EventContentDelta:
		a.content.WriteString(ev.Text)
	case EventStatusMessage:
		a.result.Status = ev.Data
	case EventToolCall:
		a.result.ToolCalls = append(a.result.ToolCalls, ev.Name)
	case EventNotice:
		a.result.Notices = append(a.result.Notices, ev.Text)
	default:
		a.result.Unknown = append(a.result.Unknown, ev)
	}
}

// Content returns the text accumulated so far.
func (a *Aggregator) Content() string {
	return a.content.String()
}

// Result returns the current fold. An aggregator that saw no events yields
// an empty Result, which is a success.
func (a *Aggregator) Result() Result {
	out := a.result
	out.Content = a.content.String()
	return out
}

// Aggregate drains s and folds every event. On a transport failure,
// cancellation or timeout it returns the error and a zero Result, never the
// partial fold.
func Aggregate(ctx context.Context, s *Stream) (Result, error) {
	if err := s.claim(); err != nil {
		return Result{}, err
	}

	agg := NewAggregator()
	for {
		ev, err := s.next(ctx)
		if errors.Is(err, io.EOF) {
			return agg.Result(), nil
		}
		if err != nil {
			return Result{}, err
		}
		agg.Add(ev)
	}
}
