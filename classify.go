package mddocx

import (
	"regexp"
	"strings"
)

// LineKind classifies a single source line.
type LineKind uint8

const (
	LineText LineKind = iota
	LineTableRow
	LineHeading
	LineUnorderedItem
	LineOrderedItem
	LineImage
	LineBlank
)

func (k LineKind) String() string {
	switch k {
	case LineTableRow:
		return "table-row"
	case LineHeading:
		return "heading"
	case LineUnorderedItem:
		return "unordered-item"
	case LineOrderedItem:
		return "ordered-item"
	case LineImage:
		return "image"
	case LineBlank:
		return "blank"
	default:
		return "text"
	}
}

const (
	minHeadingLevel = 1
	maxHeadingLevel = 9
)

var (
	tableRowRE  = regexp.MustCompile(`^\|(.+)\|$`)
	headingRE   = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	unorderedRE = regexp.MustCompile(`^\s*[-*+]\s+(.+)$`)
	orderedRE   = regexp.MustCompile(`^\s*\d+\.\s+(.+)$`)
	blockImgRE  = regexp.MustCompile(`^!\[([^\]]*)\]\(([^)]+)\)$`)
	alignCellRE = regexp.MustCompile(`^:?-{3,}:?$`)
)

// Line is a classified source line with the parts each kind captures.
// Text is trimmed; for table rows it is the trimmed row including pipes.
type Line struct {
	Kind  LineKind
	Level int
	Text  string
	Alt   string
	Name  string
}

// Classify returns the kind of a raw line.
func Classify(line string) LineKind {
	return ClassifyLine(line).Kind
}

// ClassifyLine classifies a raw line. Rules are tried in order and the
// first match wins: table row, heading, unordered item, ordered item, block
// image, blank, text. A heading or list marker without content falls
// through to the next rule.
func ClassifyLine(line string) Line {
	trimmed := strings.TrimSpace(line)
	if tableRowRE.MatchString(trimmed) {
		return Line{Kind: LineTableRow, Text: trimmed}
	}
	if m := headingRE.FindStringSubmatch(line); m != nil {
		if text := strings.TrimSpace(m[2]); text != "" {
			return Line{Kind: LineHeading, Level: clampLevel(len(m[1])), Text: text}
		}
	}
	if m := unorderedRE.FindStringSubmatch(line); m != nil {
		if text := strings.TrimSpace(m[1]); text != "" {
			return Line{Kind: LineUnorderedItem, Text: text}
		}
	}
	if m := orderedRE.FindStringSubmatch(line); m != nil {
		if text := strings.TrimSpace(m[1]); text != "" {
			return Line{Kind: LineOrderedItem, Text: text}
		}
	}
	if m := blockImgRE.FindStringSubmatch(trimmed); m != nil {
		if name := strings.TrimSpace(m[2]); name != "" {
			return Line{Kind: LineImage, Alt: m[1], Name: name, Text: trimmed}
		}
	}
	if trimmed == "" {
		return Line{Kind: LineBlank}
	}
	return Line{Kind: LineText, Text: trimmed}
}

func clampLevel(level int) int {
	if level < minHeadingLevel {
		return minHeadingLevel
	}
	if level > maxHeadingLevel {
		return maxHeadingLevel
	}
	return level
}

// splitTableRow returns the trimmed cells of a table row with its outer
// pipes removed.
func splitTableRow(row string) []string {
	row = strings.TrimSpace(row)
	row = strings.TrimPrefix(row, "|")
	row = strings.TrimSuffix(row, "|")
	parts := strings.Split(row, "|")
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.TrimSpace(p)
	}
	return cells
}

// isAlignmentRow reports whether every cell is a dash/colon separator.
func isAlignmentRow(cells []string) bool {
	if len(cells) == 0 {
		return false
	}
	for _, c := range cells {
		if !alignCellRE.MatchString(c) {
			return false
		}
	}
	return true
}
