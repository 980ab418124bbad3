package infactory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infactory-io/infactory-go/pkg/stream"
	"github.com/infactory-io/infactory-go/pkg/types"
)

func chatFrames() []string {
	return []string{
		frame("LLMToolCall", `{"name":"lookup_sales"}`),
		delta("Revenue was "),
		frame("text", `{"content":"internal"}`),
		delta("up 4%."),
		frame("messages", `{"id":"m1","role":"assistant"}`),
	}
}

func TestChat_SendMessagePull(t *testing.T) {
	c, rec := newTestClient(t, sseHandler(chatFrames()...))
	ctx := context.Background()

	res := c.Chat.SendMessage(ctx, "c1", types.SendMessageParams{Content: "How did sales do?"})
	require.False(t, res.IsError(), "%v", res.Err)
	require.True(t, res.IsStream())

	var kinds []stream.EventKind
	var text string
	for {
		ev, err := res.Stream.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		kinds = append(kinds, ev.Kind)
		if ev.Kind == stream.EventContentDelta {
			text += ev.Text
		}
	}

	assert.Equal(t, []stream.EventKind{
		stream.EventToolCall,
		stream.EventContentDelta,
		stream.EventNotice,
		stream.EventContentDelta,
		stream.EventStatusMessage,
	}, kinds)
	assert.Equal(t, "Revenue was up 4%.", text)

	got := rec.last(t)
	assert.Equal(t, "/v1/chat/conversations/c1/messages", got.Path)
	assert.Equal(t, "text/event-stream", got.Header.Get("Accept"))
	assert.JSONEq(t, `{"content":"How did sales do?"}`, got.Body)
}

func TestChat_StreamMessagePush(t *testing.T) {
	c, _ := newTestClient(t, sseHandler(chatFrames()...))

	var events []stream.Event
	err := c.Chat.StreamMessage(context.Background(), "c1", types.SendMessageParams{Content: "hi"},
		stream.SinkFunc(func(ev stream.Event) error {
			events = append(events, ev)
			return nil
		}))
	require.NoError(t, err)
	require.Len(t, events, 5)
	assert.Equal(t, "/lookup_sales", events[0].Name)
	assert.Equal(t, "Processing data", events[2].Text)
}

func TestChat_StreamMessageStop(t *testing.T) {
	c, _ := newTestClient(t, sseHandler(chatFrames()...))

	n := 0
	err := c.Chat.StreamMessage(context.Background(), "c1", types.SendMessageParams{Content: "hi"},
		stream.SinkFunc(func(ev stream.Event) error {
			n++
			return stream.ErrStop
		}))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestChat_StreamMessageJSONReply(t *testing.T) {
	c, _ := newTestClient(t, jsonHandler(`{"content":"plain answer"}`))

	var events []stream.Event
	err := c.Chat.StreamMessage(context.Background(), "c1", types.SendMessageParams{Content: "hi"},
		stream.SinkFunc(func(ev stream.Event) error {
			events = append(events, ev)
			return nil
		}))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, stream.EventContentDelta, events[0].Kind)
	assert.Equal(t, "plain answer", events[0].Text)
}

func TestChat_Ask(t *testing.T) {
	c, _ := newTestClient(t, sseHandler(chatFrames()...))

	res := c.Chat.Ask(context.Background(), "c1", types.SendMessageParams{Content: "hi"})
	require.False(t, res.IsError(), "%v", res.Err)
	assert.False(t, res.IsStream())
	assert.Equal(t, "Revenue was up 4%.", res.Data.Content)
	assert.Equal(t, []string{"/lookup_sales"}, res.Data.ToolCalls)
	assert.JSONEq(t, `{"id":"m1","role":"assistant"}`, string(res.Data.Status))
	assert.Equal(t, 5, res.Data.EventCount)
}

func TestChat_PushAndPullAgree(t *testing.T) {
	c, _ := newTestClient(t, sseHandler(chatFrames()...))
	ctx := context.Background()

	pulled, err := stream.Aggregate(ctx, c.Chat.SendMessage(ctx, "c1", types.SendMessageParams{Content: "hi"}).Stream)
	require.NoError(t, err)

	agg := stream.NewAggregator()
	err = c.Chat.StreamMessage(ctx, "c1", types.SendMessageParams{Content: "hi"},
		stream.SinkFunc(func(ev stream.Event) error {
			agg.Add(ev)
			return nil
		}))
	require.NoError(t, err)
	assert.Equal(t, pulled, agg.Result())
}

func TestChat_MidStreamFailure(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hj, ok := w.(http.Hijacker)
		if !ok {
			t.Error("hijacking unsupported")
			return
		}
		conn, buf, err := hj.Hijack()
		if err != nil {
			t.Error(err)
			return
		}
		defer conn.Close()
		// chunked body cut off before the terminating chunk
		_, _ = buf.WriteString("HTTP/1.1 200 OK\r\nContent-Type: text/event-stream\r\nTransfer-Encoding: chunked\r\n\r\n")
		chunk := delta("partial")
		_, _ = buf.WriteString(fmt.Sprintf("%x\r\n", len(chunk)) + chunk + "\r\n")
		_ = buf.Flush()
	})

	res := c.Chat.Ask(context.Background(), "c1", types.SendMessageParams{Content: "hi"})
	require.True(t, res.IsError())
	assert.Equal(t, types.ErrCodeStreamRead, res.Err.Code)
	assert.Empty(t, res.Data.Content)

	var readErr *stream.StreamReadError
	require.ErrorAs(t, res.Err, &readErr)
	assert.LessOrEqual(t, readErr.Events, 1)
}

func TestChat_Conversations(t *testing.T) {
	c, rec := newTestClient(t, jsonHandler(`{"id":"c1","project_id":"p1","title":"Q3"}`))
	ctx := context.Background()

	res := c.Chat.CreateConversation(ctx, types.CreateConversationParams{ProjectID: "p1", Title: "Q3"})
	require.False(t, res.IsError(), "%v", res.Err)
	assert.Equal(t, "c1", res.Data.ID)
	assert.Equal(t, "/v1/chat/conversations", rec.last(t).Path)

	res = c.Chat.CreateConversation(ctx, types.CreateConversationParams{})
	assert.ErrorIs(t, res.Err, types.ErrMissingID)
}
