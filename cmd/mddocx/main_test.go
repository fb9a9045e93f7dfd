package main

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestOpenInputFileAndURL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "input.md")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	reader, closer, err := openInputs([]string{path})
	if err != nil {
		t.Fatalf("openInputs file: %v", err)
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}
	buf, _ := io.ReadAll(reader)
	if string(buf) != "hello" {
		t.Fatalf("unexpected file content: %q", string(buf))
	}

	fileURL := "file://" + path
	reader, closer, err = openInputs([]string{fileURL})
	if err != nil {
		t.Fatalf("openInputs file URL: %v", err)
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}
	buf, _ = io.ReadAll(reader)
	if string(buf) != "hello" {
		t.Fatalf("unexpected file URL content: %q", string(buf))
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("# remote"))
	}))
	defer srv.Close()
	reader, closer, err = openInputs([]string{srv.URL})
	if err != nil {
		t.Fatalf("openInputs http: %v", err)
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}
	buf, _ = io.ReadAll(reader)
	if string(buf) != "# remote" {
		t.Fatalf("unexpected http content: %q", string(buf))
	}
}

func TestOpenInputsSeparatesFiles(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.md")
	second := filepath.Join(dir, "b.md")
	if err := os.WriteFile(first, []byte("one"), 0o644); err != nil {
		t.Fatalf("write first: %v", err)
	}
	if err := os.WriteFile(second, []byte("two"), 0o644); err != nil {
		t.Fatalf("write second: %v", err)
	}
	reader, closer, err := openInputs([]string{first, second})
	if err != nil {
		t.Fatalf("openInputs concat: %v", err)
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}
	buf, _ := io.ReadAll(reader)
	if string(buf) != "one\ntwo" {
		t.Fatalf("unexpected concatenated content: %q", string(buf))
	}
}

func TestParseRect(t *testing.T) {
	rect, err := parseRect(" 1, 2,30 ,40")
	if err != nil {
		t.Fatalf("parseRect: %v", err)
	}
	if rect.X1 != 1 || rect.Y1 != 2 || rect.X2 != 30 || rect.Y2 != 40 {
		t.Fatalf("unexpected rect %v", rect)
	}
	for _, bad := range []string{"", "1,2,3", "1,2,3,x", "1,2,3,4,5"} {
		if _, err := parseRect(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestLoadImages(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.png"), []byte("dir-a"), 0o644); err != nil {
		t.Fatalf("write a.png: %v", err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	override := filepath.Join(t.TempDir(), "other.png")
	if err := os.WriteFile(override, []byte("explicit"), 0o644); err != nil {
		t.Fatalf("write other.png: %v", err)
	}

	images, err := loadImages([]string{"a.png=" + override, override}, dir)
	if err != nil {
		t.Fatalf("loadImages: %v", err)
	}
	if got := string(images["a.png"]); got != "explicit" {
		t.Fatalf("expected explicit pair to win, got %q", got)
	}
	if got := string(images["other.png"]); got != "explicit" {
		t.Fatalf("expected bare path keyed by base name, got %q", got)
	}
	if _, ok := images["sub"]; ok {
		t.Fatalf("directories must not become images")
	}
	if _, err := loadImages([]string{"=" + override}, ""); err == nil {
		t.Fatalf("expected error for empty image name")
	}
}

func TestReadSourceAndCrop(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 20, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 20; x++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	if err := os.WriteFile(in, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	data, err := readSource(in)
	if err != nil {
		t.Fatalf("readSource: %v", err)
	}
	if !bytes.Equal(data, buf.Bytes()) {
		t.Fatalf("readSource returned different bytes")
	}

	out := filepath.Join(dir, "nested", "out.jpg")
	rect, _ := parseRect("0,0,5,5")
	if err := runCrop(in, rect, options{outPath: out}); err != nil {
		t.Fatalf("runCrop: %v", err)
	}
	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(got))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if format != "jpeg" || cfg.Width != 5 || cfg.Height != 5 {
		t.Fatalf("unexpected crop output %s %dx%d", format, cfg.Width, cfg.Height)
	}
}

func TestIsHTTPURL(t *testing.T) {
	cases := map[string]bool{
		"http://example.com/a.md":  true,
		"HTTPS://example.com/a.md": true,
		"file:///tmp/a.md":         false,
		"notes.md":                 false,
	}
	for input, want := range cases {
		if got := isHTTPURL(input); got != want {
			t.Fatalf("isHTTPURL(%q)=%v want %v", input, got, want)
		}
	}
}
