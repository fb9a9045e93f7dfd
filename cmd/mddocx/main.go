package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/term"
	"pkt.systems/mddocx"
	"pkt.systems/mddocx/docx"
	"pkt.systems/mddocx/imaging"
	"pkt.systems/version"
)

const defaultWidth = 80

func init() {
	version.SetDefaultModule("pkt.systems/mddocx")
}

type options struct {
	outPath          string
	images           []string
	imageDir         string
	missingImages    string
	pageSize         string
	margin           float64
	fontFamily       string
	fontSize         float64
	themeName        string
	title            string
	listThemes       bool
	stripFrontMatter bool
	plainText        bool
	outline          bool
	htmlMode         bool
	width            int
	merge            bool
	crop             string
	quality          int
}

func main() {
	var opts options
	defaults := docx.DefaultConfig()
	flags := pflag.NewFlagSet("mddocx", pflag.ExitOnError)
	flags.StringVarP(&opts.outPath, "output", "o", "", "Output file instead of stdout")
	flags.StringArrayVarP(&opts.images, "image", "i", nil, "Image available to the document as name=path (repeatable)")
	flags.StringVar(&opts.imageDir, "image-dir", "", "Directory whose files are available as images by file name")
	flags.StringVar(&opts.missingImages, "missing-images", "omit", "Unresolved image references: omit|placeholder")
	flags.StringVar(&opts.pageSize, "page-size", defaults.PageSize, "Page size: "+strings.Join(docx.PageSizes(), "|"))
	flags.Float64Var(&opts.margin, "margin", defaults.MarginLeft, "Page margin in inches")
	flags.StringVar(&opts.fontFamily, "font", defaults.FontFamily, "Body font family")
	flags.Float64Var(&opts.fontSize, "font-size", defaults.FontSize, "Body font size in points")
	flags.StringVarP(&opts.themeName, "theme", "t", "", "Colour theme (default black)")
	flags.StringVar(&opts.title, "title", "", "Document title stored in the core properties")
	flags.BoolVar(&opts.listThemes, "list-themes", false, "List available themes")
	flags.BoolVar(&opts.stripFrontMatter, "strip-front-matter", false, "Drop a leading YAML/TOML/JSON front matter block")
	flags.BoolVar(&opts.plainText, "text", false, "Treat input as plain text (one paragraph)")
	flags.BoolVar(&opts.outline, "outline", false, "Print a plain-text outline instead of writing DOCX")
	flags.BoolVar(&opts.htmlMode, "html", false, "Write an HTML preview instead of DOCX")
	flags.IntVarP(&opts.width, "width", "w", 0, "Outline width override (0 uses terminal width if available)")
	flags.BoolVar(&opts.merge, "merge", false, "Merge .docx inputs in argument order")
	flags.StringVar(&opts.crop, "crop", "", "Crop the input image to x1,y1,x2,y2 and write JPEG")
	flags.IntVar(&opts.quality, "quality", imaging.DefaultJPEGQuality, "JPEG quality for --crop")

	flags.SetInterspersed(true)
	flags.Usage = func() {
		fmt.Fprintln(os.Stderr, version.Module(), version.Current())
		fmt.Fprintf(os.Stderr, "Usage: mddocx [flags] [inputs...]\n")
		fmt.Fprintln(os.Stderr, "\nIf no input is provided, Markdown is read from stdin.")
		fmt.Fprintln(os.Stderr, "With --merge, inputs are .docx files; with --crop, the single input is an image.")
		fmt.Fprintln(os.Stderr, "\nFlags:")
		flags.PrintDefaults()
	}

	if err := flags.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}

	if opts.listThemes {
		printThemes()
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	args := flags.Args()
	switch {
	case opts.merge && opts.crop != "":
		fmt.Fprintln(os.Stderr, "--merge and --crop are mutually exclusive")
		os.Exit(2)
	case opts.merge:
		if len(args) == 0 {
			fmt.Fprintln(os.Stderr, "--merge requires at least one .docx input")
			os.Exit(2)
		}
		exitOn(runMerge(args, opts))
	case opts.crop != "":
		if len(args) != 1 {
			fmt.Fprintln(os.Stderr, "--crop requires exactly one image input")
			os.Exit(2)
		}
		rect, err := parseRect(opts.crop)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid --crop %q: %v\n", opts.crop, err)
			os.Exit(2)
		}
		exitOn(runCrop(args[0], rect, opts))
	default:
		exitOn(runConvert(ctx, args, opts))
	}
}

// usageError marks failures that exit with status 2.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func exitOn(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, err)
	if _, ok := err.(usageError); ok {
		os.Exit(2)
	}
	os.Exit(1)
}

func runConvert(ctx context.Context, args []string, opts options) error {
	policy, err := mddocx.ParseMissingImagePolicy(opts.missingImages)
	if err != nil {
		return usageError{fmt.Errorf("invalid --missing-images: %w", err)}
	}
	theme, ok := docx.ThemeByName(opts.themeName)
	if !ok {
		printThemes()
		return usageError{fmt.Errorf("unknown theme %q", opts.themeName)}
	}
	images, err := loadImages(opts.images, opts.imageDir)
	if err != nil {
		return fmt.Errorf("load images: %w", err)
	}

	doc, err := readDocument(ctx, args, images, opts, policy)
	if err != nil {
		return err
	}

	writer, closeOut, err := resolveOutput(opts.outPath)
	if err != nil {
		return fmt.Errorf("open output: %w", err)
	}
	if closeOut != nil {
		defer func() { _ = closeOut.Close() }()
	}

	switch {
	case opts.outline:
		_, err := io.WriteString(writer, mddocx.Outline(doc, resolveWidth(opts.width)))
		return err
	case opts.htmlMode:
		if err := mddocx.RenderHTML(writer, doc); err != nil {
			return fmt.Errorf("render html: %w", err)
		}
		return nil
	}

	if isTerminal(writer) {
		return usageError{fmt.Errorf("refusing to write DOCX to terminal; use -o/--output")}
	}
	cfg := docx.Config{
		PageSize:   opts.pageSize,
		FontFamily: opts.fontFamily,
		FontSize:   opts.fontSize,
		Title:      opts.title,
	}
	cfg.SetMargins(opts.margin)
	if err := docx.Render(docx.RenderRequest{
		Document: doc,
		Writer:   writer,
		Theme:    theme,
		Config:   cfg,
	}); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return nil
}

func readDocument(ctx context.Context, args []string, images mddocx.Images, opts options, policy mddocx.MissingImagePolicy) (*mddocx.Document, error) {
	parseOpts := []mddocx.ParseOption{
		mddocx.WithMissingImages(policy),
		mddocx.WithStripFrontMatter(opts.stripFrontMatter),
	}
	if len(args) == 1 && isHTTPURL(args[0]) && !opts.plainText {
		doc, err := mddocx.HTTPParse(ctx, mddocx.HTTPParseRequest{
			URL:     strings.TrimSpace(args[0]),
			Images:  images,
			Options: parseOpts,
		})
		if err != nil {
			return nil, err
		}
		return doc, nil
	}

	reader, closer, err := openInputs(args)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}
	if opts.plainText {
		src, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("read input: %w", err)
		}
		if err := mddocx.ValidateInput(src); err != nil {
			return nil, fmt.Errorf("read input: %w", err)
		}
		return mddocx.PlainText(string(src)), nil
	}
	doc, err := mddocx.Parse(mddocx.ParseRequest{
		Reader:  reader,
		Images:  images,
		Options: parseOpts,
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func runMerge(args []string, opts options) error {
	docs := make([][]byte, 0, len(args))
	for _, raw := range args {
		data, err := readSource(raw)
		if err != nil {
			return fmt.Errorf("read %s: %w", raw, err)
		}
		docs = append(docs, data)
	}
	writer, closeOut, err := resolveOutput(opts.outPath)
	if err != nil {
		return fmt.Errorf("open output: %w", err)
	}
	if closeOut != nil {
		defer func() { _ = closeOut.Close() }()
	}
	if isTerminal(writer) {
		return usageError{fmt.Errorf("refusing to write DOCX to terminal; use -o/--output")}
	}
	return docx.Merge(writer, docs...)
}

func runCrop(raw string, rect imaging.Rect, opts options) error {
	data, err := readSource(raw)
	if err != nil {
		return fmt.Errorf("read %s: %w", raw, err)
	}
	out, err := imaging.Crop(data, rect, opts.quality)
	if err != nil {
		return err
	}
	writer, closeOut, err := resolveOutput(opts.outPath)
	if err != nil {
		return fmt.Errorf("open output: %w", err)
	}
	if closeOut != nil {
		defer func() { _ = closeOut.Close() }()
	}
	if isTerminal(writer) {
		return usageError{fmt.Errorf("refusing to write JPEG to terminal; use -o/--output")}
	}
	_, err = writer.Write(out)
	return err
}

// parseRect reads "x1,y1,x2,y2".
func parseRect(value string) (imaging.Rect, error) {
	parts := strings.Split(value, ",")
	if len(parts) != 4 {
		return imaging.Rect{}, fmt.Errorf("expected x1,y1,x2,y2")
	}
	var n [4]int
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return imaging.Rect{}, fmt.Errorf("coordinate %d: %w", i+1, err)
		}
		n[i] = v
	}
	return imaging.Rect{X1: n[0], Y1: n[1], X2: n[2], Y2: n[3]}, nil
}

// loadImages builds the image set from name=path pairs and a directory.
// Explicit pairs win over directory entries with the same name.
func loadImages(pairs []string, dir string) (mddocx.Images, error) {
	images := mddocx.Images{}
	if dir != "" {
		dir = normalizePath(dir)
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
			if err != nil {
				return nil, err
			}
			images[entry.Name()] = data
		}
	}
	for _, pair := range pairs {
		name, path, ok := strings.Cut(pair, "=")
		if !ok {
			path = pair
			name = filepath.Base(pair)
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("image %q: empty name", pair)
		}
		data, err := os.ReadFile(normalizePath(strings.TrimSpace(path)))
		if err != nil {
			return nil, fmt.Errorf("image %q: %w", name, err)
		}
		images[name] = data
	}
	return images, nil
}

func printThemes() {
	for _, name := range docx.AvailableThemes() {
		fmt.Fprintln(os.Stdout, name)
	}
}

func resolveWidth(width int) int {
	if width > 0 {
		return width
	}
	return terminalWidth(defaultWidth)
}

func terminalWidth(fallback int) int {
	fd := int(os.Stdout.Fd())
	if term.IsTerminal(fd) {
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			return w
		}
	}
	if value := os.Getenv("COLUMNS"); value != "" {
		if w, err := strconv.Atoi(value); err == nil && w > 0 {
			return w
		}
	}
	return fallback
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

type inputSource struct {
	open func() (io.Reader, io.Closer, error)
}

type multiInputReader struct {
	sources   []inputSource
	idx       int
	cur       io.Reader
	curCloser io.Closer
	closed    bool
}

func (m *multiInputReader) Read(p []byte) (int, error) {
	for {
		if m.closed {
			return 0, io.EOF
		}
		if m.cur == nil {
			if m.idx >= len(m.sources) {
				m.closed = true
				return 0, io.EOF
			}
			reader, closer, err := m.sources[m.idx].open()
			if err != nil {
				return 0, err
			}
			m.cur = reader
			m.curCloser = closer
			m.idx++
		}
		n, err := m.cur.Read(p)
		if n > 0 {
			return n, nil
		}
		if err == io.EOF {
			if m.curCloser != nil {
				_ = m.curCloser.Close()
			}
			m.cur = nil
			m.curCloser = nil
			continue
		}
		if err != nil {
			return 0, err
		}
	}
}

func (m *multiInputReader) Close() error {
	m.closed = true
	if m.curCloser != nil {
		return m.curCloser.Close()
	}
	return nil
}

// openInputs concatenates the inputs in order. Files are separated by a
// newline so the last line of one file never joins the first of the next.
func openInputs(args []string) (io.Reader, io.Closer, error) {
	if len(args) == 0 {
		return os.Stdin, nil, nil
	}
	sources := make([]inputSource, 0, len(args)*2)
	for i, raw := range args {
		src, err := makeInputSource(raw)
		if err != nil {
			return nil, nil, err
		}
		if i > 0 {
			sources = append(sources, inputSource{open: func() (io.Reader, io.Closer, error) {
				return strings.NewReader("\n"), nil, nil
			}})
		}
		sources = append(sources, src)
	}
	m := &multiInputReader{sources: sources}
	return m, m, nil
}

func readSource(raw string) ([]byte, error) {
	src, err := makeInputSource(raw)
	if err != nil {
		return nil, err
	}
	r, closer, err := src.open()
	if err != nil {
		return nil, err
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func makeInputSource(raw string) (inputSource, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return inputSource{}, fmt.Errorf("empty input argument")
	}
	if raw == "-" {
		return inputSource{open: func() (io.Reader, io.Closer, error) {
			return os.Stdin, nil, nil
		}}, nil
	}
	u, err := url.Parse(raw)
	if err == nil && u.Scheme != "" {
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return inputSource{open: func() (io.Reader, io.Closer, error) {
				return openURL(raw)
			}}, nil
		case "file":
			path := u.Path
			if path == "" {
				path = u.Host
			}
			if unescaped, err := url.PathUnescape(path); err == nil {
				path = unescaped
			}
			return inputSource{open: func() (io.Reader, io.Closer, error) {
				return openFile(path)
			}}, nil
		}
	}
	return inputSource{open: func() (io.Reader, io.Closer, error) {
		return openFile(raw)
	}}, nil
}

func openURL(raw string) (io.Reader, io.Closer, error) {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, raw, nil)
	if err != nil {
		return nil, nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_ = resp.Body.Close()
		return nil, nil, fmt.Errorf("http %s: %s", raw, resp.Status)
	}
	return resp.Body, resp.Body, nil
}

func openFile(path string) (io.Reader, io.Closer, error) {
	clean := normalizePath(path)
	f, err := os.Open(clean)
	if err != nil {
		return nil, nil, err
	}
	return f, f, nil
}

func resolveOutput(path string) (io.Writer, io.Closer, error) {
	if strings.TrimSpace(path) == "" {
		return os.Stdout, nil, nil
	}
	clean := normalizePath(path)
	dir := filepath.Dir(clean)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, err
		}
	}
	f, err := os.Create(clean)
	if err != nil {
		return nil, nil, err
	}
	return f, f, nil
}

func normalizePath(path string) string {
	if strings.HasPrefix(path, "~/") || path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			if path == "~" {
				path = home
			} else {
				path = filepath.Join(home, path[2:])
			}
		}
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		return abs
	}
	return path
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
