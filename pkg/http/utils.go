package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/infactory-io/infactory-go/pkg/stream"
	"github.com/infactory-io/infactory-go/pkg/types"
)

// DefaultUserAgent is sent when no user agent is configured
const DefaultUserAgent = "infactory-go/1.0"

// EventStreamMediaType is the Accept value for streaming endpoints
const EventStreamMediaType = "text/event-stream"

// NewJSONRequest creates a JSON HTTP request with proper headers
func NewJSONRequest(method, url string, body interface{}) (*http.Request, error) {
	return NewRequestBuilder(method, url).WithJSONBody(body).Build()
}

// DecodeError reports a 2xx body that is not the JSON the caller expected.
type DecodeError struct {
	Err  error
	Body string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to parse JSON response: %v", e.Err)
}

// Unwrap returns the JSON error
func (e *DecodeError) Unwrap() error { return e.Err }

// ErrorCode implements types.Coded
func (e *DecodeError) ErrorCode() types.ErrorCode { return types.ErrCodeDecode }

// ToResponse turns the outcome of Call into a stream.Response. Buffered
// bodies are decoded into T (an empty body yields the zero value); an open
// stream is handed over unread.
func ToResponse[T any](res *CallResult, err error) stream.Response[T] {
	if err != nil {
		return stream.Failure[T](err)
	}
	if res.Stream != nil {
		return stream.Streaming[T](res.Stream)
	}

	var data T
	if len(bytes.TrimSpace(res.Body)) == 0 {
		return stream.Success(data)
	}
	if err := json.Unmarshal(res.Body, &data); err != nil {
		body := string(res.Body)
		if len(body) > 512 {
			body = body[:512]
		}
		return stream.Failure[T](&DecodeError{Err: err, Body: body})
	}
	return stream.Success(data)
}

// RequestBuilder helps build HTTP requests with common patterns
type RequestBuilder struct {
	method  string
	url     string
	query   url.Values
	headers map[string]string
	body    interface{}
	raw     io.Reader
	ctx     context.Context
	err     error
}

// NewRequestBuilder creates a new request builder
func NewRequestBuilder(method, url string) *RequestBuilder {
	return &RequestBuilder{
		method:  method,
		url:     url,
		headers: make(map[string]string),
		ctx:     context.Background(),
	}
}

// WithContext sets the request context
func (rb *RequestBuilder) WithContext(ctx context.Context) *RequestBuilder {
	rb.ctx = ctx
	return rb
}

// WithHeaders adds headers to the request
func (rb *RequestBuilder) WithHeaders(headers map[string]string) *RequestBuilder {
	for k, v := range headers {
		rb.headers[k] = v
	}
	return rb
}

// WithHeader adds a single header
func (rb *RequestBuilder) WithHeader(key, value string) *RequestBuilder {
	rb.headers[key] = value
	return rb
}

// WithQuery adds a query parameter; empty values are skipped.
func (rb *RequestBuilder) WithQuery(key, value string) *RequestBuilder {
	if value == "" {
		return rb
	}
	if rb.query == nil {
		rb.query = url.Values{}
	}
	rb.query.Add(key, value)
	return rb
}

// WithJSONBody sets a JSON body. A nil body sends none.
func (rb *RequestBuilder) WithJSONBody(body interface{}) *RequestBuilder {
	if body == nil {
		return rb
	}
	rb.body = body
	rb.headers["Content-Type"] = "application/json"
	return rb
}

// WithMultipartFile sets a multipart/form-data body with one file part and
// optional plain fields. The body is buffered so it can be replayed on retry.
func (rb *RequestBuilder) WithMultipartFile(field, filename string, file io.Reader, fields map[string]string) *RequestBuilder {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			rb.err = fmt.Errorf("failed to write form field %q: %w", k, err)
			return rb
		}
	}
	part, err := w.CreateFormFile(field, filename)
	if err != nil {
		rb.err = fmt.Errorf("failed to create form file: %w", err)
		return rb
	}
	if _, err := io.Copy(part, file); err != nil {
		rb.err = fmt.Errorf("failed to read upload: %w", err)
		return rb
	}
	if err := w.Close(); err != nil {
		rb.err = fmt.Errorf("failed to finish multipart body: %w", err)
		return rb
	}
	rb.raw = bytes.NewReader(buf.Bytes())
	rb.headers["Content-Type"] = w.FormDataContentType()
	return rb
}

// AcceptStream asks the server for an event stream
func (rb *RequestBuilder) AcceptStream() *RequestBuilder {
	rb.headers["Accept"] = EventStreamMediaType
	return rb
}

// Build creates the HTTP request
func (rb *RequestBuilder) Build() (*http.Request, error) {
	if rb.err != nil {
		return nil, rb.err
	}

	bodyReader := rb.raw
	if rb.body != nil {
		jsonBody, err := json.Marshal(rb.body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	target := rb.url
	if len(rb.query) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + rb.query.Encode()
	}

	req, err := http.NewRequestWithContext(rb.ctx, rb.method, target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if _, ok := rb.headers["Accept"]; !ok {
		req.Header.Set("Accept", "application/json")
	}
	for key, value := range rb.headers {
		req.Header.Set(key, value)
	}
	return req, nil
}

// JoinURL resolves an API path against a base URL, keeping any base path
// prefix: JoinURL("https://host/api", "/v1/projects") -> "https://host/api/v1/projects".
func JoinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
