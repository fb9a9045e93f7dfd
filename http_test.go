package mddocx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHTTPParse(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/doc.md":
			_, _ = w.Write([]byte("---\ntitle: x\n---\n# Remote\n\nbody ![p](p.png)\n"))
		case "/binary":
			_, _ = w.Write([]byte{0x00, 0x01, 0x02})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	doc, err := HTTPParse(ctx, HTTPParseRequest{
		URL:     srv.URL + "/doc.md",
		Client:  srv.Client(),
		Options: []ParseOption{WithStripFrontMatter(true), WithMissingImages(MissingImagePlaceholder)},
	})
	if err != nil {
		t.Fatalf("HTTPParse: %v", err)
	}
	if doc.Len() != 2 || doc.Headings()[0].Text != "Remote" {
		t.Fatalf("unexpected document %#v", doc.Blocks)
	}
	if got := doc.Blocks[1].(*Paragraph).Text(); got != "body [missing image: p.png]" {
		t.Fatalf("unexpected paragraph %q", got)
	}

	if _, err := HTTPParse(ctx, HTTPParseRequest{URL: srv.URL + "/missing", Client: srv.Client()}); err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected status error, got %v", err)
	}
	if _, err := HTTPParse(ctx, HTTPParseRequest{URL: srv.URL + "/binary", Client: srv.Client()}); err == nil {
		t.Fatalf("expected binary input error")
	}
	if _, err := HTTPParse(ctx, HTTPParseRequest{URL: "ftp://example.com/a.md"}); err == nil {
		t.Fatalf("expected unsupported scheme error")
	}
	if _, err := HTTPParse(ctx, HTTPParseRequest{}); err == nil {
		t.Fatalf("expected error for empty URL")
	}
}

func TestHTTPParseRejectsOversizedBody(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cjk":
			_, _ = w.Write([]byte("ab文字"))
		default:
			_, _ = w.Write([]byte("keep this\n\n# Tail heading\n"))
		}
	}))
	defer srv.Close()

	tests := []struct {
		name     string
		path     string
		maxBytes int64
	}{
		{"cut inside text", "/", 10},
		{"cut inside a rune", "/cjk", 4},
	}
	for _, tc := range tests {
		doc, err := HTTPParse(context.Background(), HTTPParseRequest{URL: srv.URL + tc.path, MaxBytes: tc.maxBytes})
		if !errors.Is(err, ErrBodyTooLarge) {
			t.Fatalf("%s: expected ErrBodyTooLarge, got doc=%v err=%v", tc.name, doc, err)
		}
	}

	doc, err := HTTPParse(context.Background(), HTTPParseRequest{URL: srv.URL + "/cjk", MaxBytes: 8})
	if err != nil {
		t.Fatalf("body at the limit: %v", err)
	}
	if doc.Len() != 1 || doc.Blocks[0].(*Paragraph).Text() != "ab文字" {
		t.Fatalf("unexpected document %#v", doc.Blocks)
	}
}
