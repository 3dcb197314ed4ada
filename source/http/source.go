package http //nolint:revive // intentional naming for domain clarity

import (
	"context"
	"fmt"
	"io"
	nethttp "net/http"
)

// Source fetches whole documents with HTTP GET requests.
type Source struct {
	client  *nethttp.Client
	headers nethttp.Header
	maxSize int64
}

// Option configures a Source.
type Option func(*Source)

// WithClient sets the HTTP client used for requests.
func WithClient(client *nethttp.Client) Option {
	return func(s *Source) {
		s.client = client
	}
}

// WithHeaders sets additional headers on each request.
func WithHeaders(headers nethttp.Header) Option {
	return func(s *Source) {
		if headers == nil {
			return
		}
		s.headers = headers.Clone()
	}
}

// WithHeader sets a single header on each request.
func WithHeader(key, value string) Option {
	return func(s *Source) {
		if s.headers == nil {
			s.headers = make(nethttp.Header)
		}
		s.headers.Set(key, value)
	}
}

// WithMaxSize rejects responses larger than n bytes.
// Use 0 to disable the limit (the default).
func WithMaxSize(n int64) Option {
	return func(s *Source) {
		s.maxSize = n
	}
}

// NewSource creates a Source.
func NewSource(opts ...Option) *Source {
	s := &Source{client: nethttp.DefaultClient}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.client = nethttp.DefaultClient
	}
	return s
}

// Fetch retrieves the body served at uri. Any status other than 200 OK is
// an error naming the status.
func (s *Source) Fetch(ctx context.Context, uri string) ([]byte, error) {
	req, err := s.newRequest(ctx, uri)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body) //nolint:errcheck // best-effort drain for connection reuse
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != nethttp.StatusOK {
		return nil, fmt.Errorf("fetch %s: %s", uri, resp.Status)
	}
	if s.maxSize > 0 && resp.ContentLength > s.maxSize {
		return nil, fmt.Errorf("fetch %s: content length %d exceeds limit %d", uri, resp.ContentLength, s.maxSize)
	}

	body := io.Reader(resp.Body)
	if s.maxSize > 0 {
		body = io.LimitReader(resp.Body, s.maxSize+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", uri, err)
	}
	if s.maxSize > 0 && int64(len(data)) > s.maxSize {
		return nil, fmt.Errorf("fetch %s: body exceeds limit %d", uri, s.maxSize)
	}
	if resp.ContentLength >= 0 && int64(len(data)) != resp.ContentLength {
		return nil, fmt.Errorf("fetch %s: short body: got %d of %d bytes", uri, len(data), resp.ContentLength)
	}
	return data, nil
}

// newRequest creates a GET request with configured headers.
func (s *Source) newRequest(ctx context.Context, uri string) (*nethttp.Request, error) {
	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodGet, uri, nethttp.NoBody)
	if err != nil {
		return nil, err
	}
	for key, values := range s.headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if req.Header.Get("Accept-Encoding") == "" {
		req.Header.Set("Accept-Encoding", "identity")
	}
	return req, nil
}
