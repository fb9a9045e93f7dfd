package mddocx

import (
	"bytes"
	"strings"
	"testing"

	"golang.org/x/net/html"
)

func TestRenderHTML(t *testing.T) {
	t.Parallel()
	pic := testPNG(t, 6, 3, 0)
	doc := ParseString("# A & B\n\nx < y ![chart](c.png)\n- one\n1. two\n| h | <i> |\n![](c.png)", Images{"c.png": pic})
	var buf bytes.Buffer
	if err := RenderHTML(&buf, doc); err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"<h1>A &amp; B</h1>",
		"<p>x &lt; y <img alt=\"chart\" src=\"data:image/png;base64,",
		`width="6" height="3"`,
		"<ul><li>one</li></ul>",
		"<ol><li>two</li></ol>",
		"<table><tbody><tr><td>h</td><td>&lt;i&gt;</td></tr></tbody></table>",
		`<figure><img alt="c.png"`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}

	if _, err := html.Parse(strings.NewReader(out)); err != nil {
		t.Fatalf("output does not parse: %v", err)
	}
}

func TestRenderHTMLUndecodableImage(t *testing.T) {
	t.Parallel()
	doc := &Document{Blocks: []Block{&Image{Name: "bad.png", Alt: "broken", Data: []byte("nope")}}}
	var buf bytes.Buffer
	if err := RenderHTML(&buf, doc); err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != `<figure><img alt="broken"/></figure>` {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestRenderHTMLNilWriter(t *testing.T) {
	t.Parallel()
	if err := RenderHTML(nil, &Document{}); err == nil {
		t.Fatalf("expected error for nil writer")
	}
}
