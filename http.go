package mddocx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// DefaultMaxFetchBytes limits the Markdown body HTTPParse will read.
const DefaultMaxFetchBytes = 16 << 20

// ErrBodyTooLarge reports a fetched body larger than the configured limit.
var ErrBodyTooLarge = errors.New("body too large")

// HTTPParseRequest configures HTTPParse.
type HTTPParseRequest struct {
	URL      string
	Client   *http.Client
	Images   Images
	MaxBytes int64
	Options  []ParseOption
}

// HTTPParse fetches Markdown over HTTP(S) and parses it.
func HTTPParse(ctx context.Context, req HTTPParseRequest) (*Document, error) {
	if req.URL == "" {
		return nil, fmt.Errorf("parse http: URL is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	client := req.Client
	if client == nil {
		client = http.DefaultClient
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("parse http: build request: %w", err)
	}
	if httpReq.URL.Scheme != "http" && httpReq.URL.Scheme != "https" {
		return nil, fmt.Errorf("parse http: unsupported scheme %q", httpReq.URL.Scheme)
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("parse http: request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("parse http: status %s", resp.Status)
	}
	limit := req.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxFetchBytes
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("parse http: read: %w", err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("parse http: %w: exceeds %d bytes", ErrBodyTooLarge, limit)
	}
	return Parse(ParseRequest{
		Reader:  bytes.NewReader(body),
		Images:  req.Images,
		Options: req.Options,
	})
}
