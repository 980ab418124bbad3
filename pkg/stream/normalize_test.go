package stream

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infactory-io/infactory-go/pkg/types"
)

type project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func TestNormalize_PassesThroughNonStream(t *testing.T) {
	ctx := context.Background()

	ok := Success(project{ID: "p1", Name: "demo"})
	assert.Equal(t, ok, Normalize(ctx, ok, nil))

	failed := Failure[project](&types.APIError{StatusCode: 404, Message: "not found"})
	got := Normalize(ctx, failed, nil)
	assert.Same(t, failed.Err, got.Err)
	assert.True(t, got.IsError())
}

func TestNormalize_Stream(t *testing.T) {
	s, _ := newTestStream(sseContent("Hello"), sseContent(" world"))

	r := NormalizeResult(context.Background(), Streaming[Result](s))
	require.False(t, r.IsStream())
	require.False(t, r.IsError())
	assert.Equal(t, "Hello world", r.Data.Content)
}

func TestNormalize_Fold(t *testing.T) {
	s, _ := newTestStream(sseContent("answer"))

	r := Normalize(context.Background(), Streaming[string](s), func(res Result) (string, error) {
		return strings.ToUpper(res.Content), nil
	})
	data, err := r.Unwrap()
	require.NoError(t, err)
	assert.Equal(t, "ANSWER", data)
}

func TestNormalize_FoldError(t *testing.T) {
	s, _ := newTestStream(sseContent("x"))
	bad := errors.New("no status message")

	r := Normalize(context.Background(), Streaming[int](s), func(Result) (int, error) { return 0, bad })
	require.True(t, r.IsError())
	assert.ErrorIs(t, r.Err, bad)
}

func TestNormalize_MidStreamFailure(t *testing.T) {
	body := &chunkReader{chunks: []string{sseContent("a")}, err: errors.New("eof mid frame")}

	r := NormalizeResult(context.Background(), Streaming[Result](NewStream(body)))
	require.True(t, r.IsError())
	assert.Equal(t, types.ErrCodeStreamRead, r.Err.Code)

	var readErr *StreamReadError
	require.ErrorAs(t, r.Err, &readErr)
	assert.Equal(t, 1, readErr.Events)
	assert.Equal(t, Result{}, r.Data)
}

func TestNormalize_SecondNormalizeFails(t *testing.T) {
	s, _ := newTestStream(sseContent("once"))
	r := Streaming[Result](s)
	ctx := context.Background()

	first := NormalizeResult(ctx, r)
	require.False(t, first.IsError())

	second := NormalizeResult(ctx, r)
	require.True(t, second.IsError())
	assert.ErrorIs(t, second.Err, ErrStreamConsumed)
	assert.Equal(t, types.ErrCodeStreamConsumed, second.Err.Code)
}

func TestNormalize_NilFold(t *testing.T) {
	s, _ := newTestStream()
	r := Normalize[string](context.Background(), Streaming[string](s), nil)
	assert.True(t, r.IsError())
}

func TestResponse_Unwrap(t *testing.T) {
	data, err := Success(7).Unwrap()
	require.NoError(t, err)
	assert.Equal(t, 7, data)

	_, err = Failure[int](types.ErrMissingID).Unwrap()
	assert.ErrorIs(t, err, types.ErrMissingID)

	s, _ := newTestStream()
	_, err = Streaming[int](s).Unwrap()
	assert.Error(t, err)

	assert.Error(t, Failure[int](nil).Err)
}

func TestResponse_MarshalJSON(t *testing.T) {
	out, err := json.Marshal(Success(project{ID: "p1", Name: "demo"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":{"id":"p1","name":"demo"}}`, string(out))

	out, err = json.Marshal(Failure[project](&types.APIError{StatusCode: 401, Message: "bad key"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":{"message":"bad key","code":"authentication","status":401}}`, string(out))

	s, _ := newTestStream()
	_, err = json.Marshal(Streaming[project](s))
	assert.Error(t, err)
}
