package stream

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/infactory-io/infactory-go/pkg/types"
)

// Response is the discriminated result of an API call. Exactly one arm is
// set: Data (success), Err (failure) or Stream (not yet normalized).
type Response[T any] struct {
	Data   T
	Err    *types.ErrorInfo
	Stream *Stream
}

// Success wraps a value
func Success[T any](data T) Response[T] {
	return Response[T]{Data: data}
}

// Failure wraps an error. The original error stays reachable via errors.Is/As.
func Failure[T any](err error) Response[T] {
	if err == nil {
		err = errors.New("unknown failure")
	}
	return Response[T]{Err: types.ToErrorInfo(err)}
}

// Streaming wraps a live stream that still needs normalizing
func Streaming[T any](s *Stream) Response[T] {
	return Response[T]{Stream: s}
}

// IsStream reports whether the response still holds a live stream
func (r Response[T]) IsStream() bool {
	return r.Stream != nil
}

// IsError reports whether the response is a failure
func (r Response[T]) IsError() bool {
	return r.Err != nil
}

// Unwrap returns the data or the error. A response still holding a stream
// must be normalized first.
func (r Response[T]) Unwrap() (T, error) {
	var zero T
	switch {
	case r.Err != nil:
		return zero, r.Err
	case r.Stream != nil:
		return zero, errors.New("stream: response not normalized")
	}
	return r.Data, nil
}

// MarshalJSON renders {"data": ...} or {"error": ...}
func (r Response[T]) MarshalJSON() ([]byte, error) {
	switch {
	case r.Err != nil:
		return json.Marshal(struct {
			Error *types.ErrorInfo `json:"error"`
		}{r.Err})
	case r.Stream != nil:
		return nil, errors.New("stream: cannot marshal an unnormalized stream response")
	}
	return json.Marshal(struct {
		Data T `json:"data"`
	}{r.Data})
}

// Normalize resolves r into its data or error arm. Data and error responses
// pass through unchanged. A stream response is drained through the decoder,
// classifier and aggregator and the Result is handed to fold. Normalizing a
// response whose stream was already consumed fails with ErrStreamConsumed.
func Normalize[T any](ctx context.Context, r Response[T], fold func(Result) (T, error)) Response[T] {
	if r.Stream == nil {
		return r
	}
	if fold == nil {
		return Failure[T](errors.New("stream: normalize needs a fold function"))
	}

	result, err := Aggregate(ctx, r.Stream)
	if err != nil {
		return Failure[T](err)
	}
	data, err := fold(result)
	if err != nil {
		return Failure[T](err)
	}
	return Success(data)
}

// NormalizeResult normalizes a Response whose data is the aggregate itself.
func NormalizeResult(ctx context.Context, r Response[Result]) Response[Result] {
	return Normalize(ctx, r, func(res Result) (Result, error) { return res, nil })
}
