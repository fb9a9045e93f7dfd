package mddocx

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/padding"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"

	"pkt.systems/mddocx/imaging"
)

const (
	defaultOutlineWidth = 80
	minOutlineWidth     = 20
	minCellWidth        = 3
	bulletMarker        = "• "
)

// Outline renders doc as wrapped plain text for previews. Blocks are
// separated by a blank line; images are shown as bracketed descriptions.
// A width <= 0 selects 80 columns.
func Outline(doc *Document, width int) string {
	width = outlineWidth(width)
	var b strings.Builder
	for i, blk := range doc.Blocks {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(outlineBlock(blk, width))
	}
	return b.String()
}

func outlineWidth(width int) int {
	if width <= 0 {
		width = defaultOutlineWidth
	}
	if width < minOutlineWidth {
		width = minOutlineWidth
	}
	return width
}

func outlineBlock(blk Block, width int) string {
	switch v := blk.(type) {
	case *Heading:
		return wordwrap.String(strings.Repeat("#", v.Level)+" "+v.Text, width) + "\n"
	case *Paragraph:
		return outlineParagraph(v, width)
	case *List:
		return outlineList(v, width)
	case *Table:
		return outlineTable(v, width)
	case *Image:
		return truncateWithEllipsis(describeImage(v.Name, v.Data), width) + "\n"
	default:
		return ""
	}
}

func outlineParagraph(p *Paragraph, width int) string {
	if p.Blank() {
		return "\n"
	}
	parts := make([]string, 0, len(p.Fragments))
	for _, f := range p.Fragments {
		if f.Kind == FragmentImage {
			parts = append(parts, describeImage(f.Name, f.Data))
			continue
		}
		parts = append(parts, f.Text)
	}
	return wordwrap.String(strings.Join(parts, " "), width) + "\n"
}

func outlineList(l *List, width int) string {
	var b strings.Builder
	for i, item := range l.Items {
		marker := bulletMarker
		if l.Ordered {
			marker = strconv.Itoa(i+1) + ". "
		}
		markerWidth := ansi.PrintableRuneWidth(marker)
		wrapped := wordwrap.String(item, width-markerWidth)
		first, rest, more := strings.Cut(wrapped, "\n")
		b.WriteString(marker)
		b.WriteString(first)
		b.WriteString("\n")
		if more {
			b.WriteString(indent.String(rest, uint(markerWidth)))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func outlineTable(t *Table, width int) string {
	cols := t.Columns()
	if cols == 0 {
		return ""
	}
	maxCell := (width - 1 - 3*cols) / cols
	if maxCell < minCellWidth {
		maxCell = minCellWidth
	}
	widths := make([]int, cols)
	cells := make([][]string, len(t.Rows))
	for r, row := range t.Rows {
		cells[r] = make([]string, cols)
		for c, cell := range row {
			cell = truncateWithEllipsis(cell, maxCell)
			cells[r][c] = cell
			if w := ansi.PrintableRuneWidth(cell); w > widths[c] {
				widths[c] = w
			}
		}
	}
	var b strings.Builder
	for _, row := range cells {
		b.WriteString("|")
		for c, cell := range row {
			b.WriteString(" ")
			b.WriteString(padding.String(cell, uint(widths[c])))
			b.WriteString(" |")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func describeImage(name string, data []byte) string {
	if len(data) == 0 {
		return fmt.Sprintf("[image: %s]", name)
	}
	info, err := imaging.Inspect(data)
	if err != nil {
		return fmt.Sprintf("[image: %s, %d bytes]", name, len(data))
	}
	return fmt.Sprintf("[image: %s, %dx%d %s]", name, info.Width, info.Height, info.Format)
}

func truncateWithEllipsis(text string, limit int) string {
	if ansi.PrintableRuneWidth(text) <= limit {
		return text
	}
	if limit <= 0 {
		return ""
	}
	return truncate.StringWithTail(text, uint(limit), "…")
}
