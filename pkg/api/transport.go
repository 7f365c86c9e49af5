package api

import (
	"context"
	"io"
	"net/http"
	"time"
)

// Response is the raw outcome of a transport call.
type Response struct {
	Status     int
	StatusText string
	Body       []byte
}

// Transport sends a single GET and returns status plus body. Timeouts and
// TLS policy live entirely in the transport; the client above it imposes
// no duration control of its own.
type Transport interface {
	SendGet(ctx context.Context, url string) (*Response, error)
}

// HTTPTransport is the default Transport backed by net/http.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport returns an HTTPTransport with the given request
// timeout.
func NewHTTPTransport(timeout time.Duration) *HTTPTransport {
	return &HTTPTransport{
		client: &http.Client{Timeout: timeout},
	}
}

func (t *HTTPTransport) SendGet(ctx context.Context, url string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &Response{
		Status:     resp.StatusCode,
		StatusText: http.StatusText(resp.StatusCode),
		Body:       body,
	}, nil
}
