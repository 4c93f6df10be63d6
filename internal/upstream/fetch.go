// Package upstream performs the single outbound HTTP call made on behalf of the watch.
package upstream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/danmuck/httpebble/internal/logging"
	"github.com/danmuck/httpebble/internal/observability"
	"github.com/google/uuid"
)

const (
	HeaderContentType = "Content-Type"
	HeaderPebbleID    = "X-Pebble-ID"
	HeaderRequestID   = "X-Request-ID"

	ContentTypeJSON = "application/json"

	DefaultMaxBodyBytes int64 = 1 << 20
)

var (
	ErrUpstream     = errors.New("upstream: request failed")
	ErrBodyTooLarge = errors.New("upstream: response body too large")
)

// Request is one outbound POST.
type Request struct {
	URL    string
	Header http.Header
	Body   []byte
}

// Response is the status and raw body of an outbound call.
type Response struct {
	Status int
	Body   []byte
}

// Fetcher executes one synchronous request/response exchange.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (Response, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, req Request) (Response, error)

func (f FetcherFunc) Fetch(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

// Config tunes HTTPFetcher. A zero Timeout means the call is unbounded.
type Config struct {
	Timeout      time.Duration
	MaxBodyBytes int64
}

// HTTPFetcher is the net/http backed Fetcher.
type HTTPFetcher struct {
	client       *http.Client
	maxBodyBytes int64
}

// NewHTTPFetcher builds a fetcher. client may be nil.
func NewHTTPFetcher(client *http.Client, cfg Config) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	return &HTTPFetcher{client: client, maxBodyBytes: maxBody}
}

// Fetch POSTs req.Body to req.URL and returns the status and full body.
func (f *HTTPFetcher) Fetch(ctx context.Context, req Request) (Response, error) {
	start := time.Now()
	resp, err := f.do(ctx, req)
	observability.RecordUpstream(resp.Status, time.Since(start), err == nil && resp.Status == http.StatusOK)
	return resp, err
}

func (f *HTTPFetcher) do(ctx context.Context, req Request) (Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	for k, vals := range req.Header {
		for _, v := range vals {
			httpReq.Header.Add(k, v)
		}
	}
	if httpReq.Header.Get(HeaderContentType) == "" {
		httpReq.Header.Set(HeaderContentType, ContentTypeJSON)
	}
	requestID := uuid.New().String()
	httpReq.Header.Set(HeaderRequestID, requestID)

	logging.Debugf("upstream.Fetch POST url=%s request_id=%s bytes=%d", req.URL, requestID, len(req.Body))
	resp, err := f.client.Do(httpReq)
	if err != nil {
		logging.Errf("upstream.Fetch transport failure url=%s err=%v", req.URL, err)
		return Response{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes+1))
	if err != nil {
		return Response{Status: resp.StatusCode}, fmt.Errorf("%w: read body: %v", ErrUpstream, err)
	}
	if int64(len(body)) > f.maxBodyBytes {
		return Response{Status: resp.StatusCode}, fmt.Errorf("%w: %w: limit=%d", ErrUpstream, ErrBodyTooLarge, f.maxBodyBytes)
	}
	logging.Infof("upstream.Fetch status=%d url=%s bytes=%d", resp.StatusCode, req.URL, len(body))
	return Response{Status: resp.StatusCode, Body: body}, nil
}
