package infactory

import (
	"context"
	"errors"
	"net/http"

	"github.com/infactory-io/infactory-go/pkg/stream"
	"github.com/infactory-io/infactory-go/pkg/types"
)

// ChatService manages conversations and streams assistant replies
type ChatService service

// CreateConversation starts a conversation in a project
func (s *ChatService) CreateConversation(ctx context.Context, params types.CreateConversationParams) stream.Response[types.Conversation] {
	if params.ProjectID == "" {
		return stream.Failure[types.Conversation](types.ErrMissingID)
	}
	return send[types.Conversation](ctx, s.client, http.MethodPost, params, "/v1/chat/conversations")
}

// ListConversations returns the conversations of a project
func (s *ChatService) ListConversations(ctx context.Context, projectID string) stream.Response[[]types.Conversation] {
	if projectID == "" {
		return stream.Failure[[]types.Conversation](types.ErrMissingID)
	}
	return list[types.Conversation](ctx, s.client, "/v1/chat/conversations", map[string]string{"project_id": projectID})
}

// GetConversation fetches one conversation
func (s *ChatService) GetConversation(ctx context.Context, id string) stream.Response[types.Conversation] {
	return get[types.Conversation](ctx, s.client, "/v1/chat/conversations/%s", id)
}

// Messages returns the stored messages of a conversation
func (s *ChatService) Messages(ctx context.Context, conversationID string) stream.Response[[]types.ChatMessage] {
	return get[[]types.ChatMessage](ctx, s.client, "/v1/chat/conversations/%s/messages", conversationID)
}

// SendMessage posts a user message. The reply is returned as a live stream;
// the caller must consume or close it.
func (s *ChatService) SendMessage(ctx context.Context, conversationID string, params types.SendMessageParams) stream.Response[stream.Result] {
	p, err := endpoint("/v1/chat/conversations/%s/messages", conversationID)
	if err != nil {
		return stream.Failure[stream.Result](err)
	}
	return open[stream.Result](ctx, s.client, request{method: http.MethodPost, path: p, body: params})
}

// Ask sends a message and waits for the whole reply.
func (s *ChatService) Ask(ctx context.Context, conversationID string, params types.SendMessageParams) stream.Response[stream.Result] {
	return stream.NormalizeResult(ctx, s.SendMessage(ctx, conversationID, params))
}

// StreamMessage sends a message and pushes each reply event to sink on the
// calling goroutine. A non-streaming reply is delivered as one status event.
func (s *ChatService) StreamMessage(ctx context.Context, conversationID string, params types.SendMessageParams, sink stream.Sink) error {
	res := s.SendMessage(ctx, conversationID, params)
	switch {
	case res.IsError():
		return res.Err
	case res.IsStream():
		return stream.Consume(ctx, res.Stream, sink)
	}
	return deliverResult(res.Data, sink)
}

// deliverResult replays a non-streamed result through a sink.
func deliverResult(res stream.Result, sink stream.Sink) error {
	var events []stream.Event
	if res.Content != "" {
		events = append(events, stream.Event{Kind: stream.EventContentDelta, Text: res.Content})
	}
	if len(res.Status) > 0 {
		events = append(events, stream.Event{Kind: stream.EventStatusMessage, Data: res.Status})
	}
	for _, ev := range events {
		if err := sink.OnEvent(ev); err != nil {
			if errors.Is(err, stream.ErrStop) {
				return nil
			}
			return err
		}
	}
	return nil
}
