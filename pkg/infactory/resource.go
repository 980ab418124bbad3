package infactory

import (
	"context"
	"net/http"

	"github.com/infactory-io/infactory-go/pkg/stream"
)

// Deleted is the result of a delete call
type Deleted struct {
	ID      string `json:"id,omitempty"`
	Deleted bool   `json:"deleted,omitempty"`
}

func list[T any](ctx context.Context, c *Client, path string, query map[string]string) stream.Response[[]T] {
	return call[[]T](ctx, c, request{method: http.MethodGet, path: path, query: query})
}

func get[T any](ctx context.Context, c *Client, format string, ids ...string) stream.Response[T] {
	p, err := endpoint(format, ids...)
	if err != nil {
		return stream.Failure[T](err)
	}
	return call[T](ctx, c, request{method: http.MethodGet, path: p})
}

func send[T any](ctx context.Context, c *Client, method string, body any, format string, ids ...string) stream.Response[T] {
	p, err := endpoint(format, ids...)
	if err != nil {
		return stream.Failure[T](err)
	}
	return call[T](ctx, c, request{method: method, path: p, body: body})
}

func remove(ctx context.Context, c *Client, format string, ids ...string) stream.Response[Deleted] {
	res := send[Deleted](ctx, c, http.MethodDelete, nil, format, ids...)
	if !res.IsError() && res.Data.ID == "" {
		res.Data = Deleted{ID: ids[len(ids)-1], Deleted: true}
	}
	return res
}

// open starts a streaming call and returns the live stream arm (or the JSON
// body decoded as T if the server chose not to stream).
func open[T any](ctx context.Context, c *Client, r request) stream.Response[T] {
	r.stream = true
	return do[T](ctx, c, r)
}
