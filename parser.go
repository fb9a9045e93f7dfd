package mddocx

import (
	"fmt"
	"io"
	"strings"
)

// ParseRequest configures Parse.
type ParseRequest struct {
	Reader  io.Reader
	Images  Images
	Options []ParseOption
}

// Parse reads Markdown from req.Reader and builds a Document. It fails only
// when the input cannot be read or is not text; malformed Markdown degrades
// to plain paragraphs.
func Parse(req ParseRequest) (*Document, error) {
	if req.Reader == nil {
		return nil, fmt.Errorf("parse: reader is nil")
	}
	src, err := io.ReadAll(req.Reader)
	if err != nil {
		return nil, fmt.Errorf("parse: read: %w", err)
	}
	if err := ValidateInput(src); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	cfg := newParseConfig(req.Options)
	if cfg.stripFrontMatter {
		src = StripFrontMatter(src)
	}
	return parseLines(splitLines(string(src)), req.Images, cfg), nil
}

// ParseString parses an in-memory Markdown body against an image set.
func ParseString(src string, images Images, opts ...ParseOption) *Document {
	cfg := newParseConfig(opts)
	if cfg.stripFrontMatter {
		src = string(StripFrontMatter([]byte(src)))
	}
	return parseLines(splitLines(src), images, cfg)
}

func splitLines(src string) []string {
	src = strings.TrimPrefix(src, "\ufeff")
	if src == "" {
		return nil
	}
	lines := strings.Split(src, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// parseState holds the open buffers of the block fold.
type parseState struct {
	doc     *Document
	images  Images
	missing MissingImagePolicy

	para    []string
	list    *List
	table   []string
	inTable bool
}

func newParseState(images Images, cfg parseConfig) *parseState {
	return &parseState{
		doc:     &Document{},
		images:  images,
		missing: cfg.missing,
	}
}

func parseLines(lines []string, images Images, cfg parseConfig) *Document {
	st := newParseState(images, cfg)
	for _, raw := range lines {
		st.feed(ClassifyLine(raw))
	}
	st.flush()
	return st.doc
}

// flush closes whatever block is still open at end of input.
func (st *parseState) flush() {
	st.flushParagraph()
	st.flushList()
	st.flushTable()
}

func (st *parseState) feed(line Line) {
	if line.Kind == LineTableRow {
		if !st.inTable {
			st.flushParagraph()
			st.flushList()
			st.inTable = true
		}
		st.table = append(st.table, line.Text)
		return
	}
	if st.inTable {
		st.flushTable()
	}

	switch line.Kind {
	case LineHeading:
		st.flushParagraph()
		st.flushList()
		st.doc.append(&Heading{Level: line.Level, Text: line.Text})
	case LineUnorderedItem, LineOrderedItem:
		st.flushParagraph()
		ordered := line.Kind == LineOrderedItem
		if st.list != nil && st.list.Ordered != ordered {
			st.flushList()
		}
		if st.list == nil {
			st.list = &List{Ordered: ordered}
		}
		st.list.Items = append(st.list.Items, line.Text)
	case LineImage:
		st.flushParagraph()
		st.flushList()
		st.emitBlockImage(line.Name, line.Alt)
	case LineBlank:
		st.flushParagraph()
		st.flushList()
	default:
		st.para = append(st.para, line.Text)
	}
}

func (st *parseState) emitBlockImage(name, alt string) {
	if data, ok := st.images.Lookup(name); ok {
		st.doc.append(&Image{Name: name, Alt: alt, Data: data})
		return
	}
	if st.missing == MissingImagePlaceholder {
		st.doc.append(&Paragraph{Fragments: []Fragment{TextFragment(MissingImageText(name))}})
	}
}

func (st *parseState) flushParagraph() {
	if len(st.para) == 0 {
		return
	}
	text := strings.TrimSpace(strings.Join(st.para, " "))
	st.para = st.para[:0]
	if !HasInlineImage(text) {
		st.doc.append(newTextParagraph(text))
		return
	}
	frags := ResolveFragments(SplitFragments(text), st.images, st.missing)
	if len(frags) == 0 {
		return
	}
	st.doc.append(&Paragraph{Fragments: frags})
}

func (st *parseState) flushList() {
	if st.list == nil {
		return
	}
	if len(st.list.Items) > 0 {
		st.doc.append(st.list)
	}
	st.list = nil
}

func (st *parseState) flushTable() {
	rows := st.table
	st.table = nil
	st.inTable = false
	if t := buildTable(rows); t != nil {
		st.doc.append(t)
	}
}

// buildTable drops alignment rows and pads short rows with empty cells. It
// returns nil when no data rows remain.
func buildTable(rows []string) *Table {
	var matrix [][]string
	cols := 0
	for _, r := range rows {
		cells := splitTableRow(r)
		if isAlignmentRow(cells) {
			continue
		}
		if len(cells) > cols {
			cols = len(cells)
		}
		matrix = append(matrix, cells)
	}
	if len(matrix) == 0 {
		return nil
	}
	for i, row := range matrix {
		for len(row) < cols {
			row = append(row, "")
		}
		matrix[i] = row
	}
	return &Table{Rows: matrix}
}

func newTextParagraph(text string) *Paragraph {
	text = strings.TrimSpace(text)
	if text == "" {
		return &Paragraph{}
	}
	return &Paragraph{Fragments: []Fragment{TextFragment(text)}}
}
