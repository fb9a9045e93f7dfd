package mddocx

// BlockKind identifies the concrete type behind a Block.
type BlockKind uint8

const (
	BlockHeading BlockKind = iota + 1
	BlockParagraph
	BlockList
	BlockTable
	BlockImage
)

func (k BlockKind) String() string {
	switch k {
	case BlockHeading:
		return "Heading"
	case BlockParagraph:
		return "Paragraph"
	case BlockList:
		return "List"
	case BlockTable:
		return "Table"
	case BlockImage:
		return "Image"
	default:
		return "Unknown"
	}
}

// Block is one semantic unit of a parsed document.
type Block interface {
	Kind() BlockKind
}

// Heading is an ATX heading. Level is within [1,9].
type Heading struct {
	Level int
	Text  string
}

func (*Heading) Kind() BlockKind { return BlockHeading }

// Paragraph holds text and inline image fragments in source order. A
// Paragraph without fragments is a deliberate blank line.
type Paragraph struct {
	Fragments []Fragment
}

func (*Paragraph) Kind() BlockKind { return BlockParagraph }

// Blank reports whether the paragraph is the empty placeholder.
func (p *Paragraph) Blank() bool { return len(p.Fragments) == 0 }

// Text returns the text fragments joined by a single space.
func (p *Paragraph) Text() string {
	var out []byte
	for _, f := range p.Fragments {
		if f.Kind != FragmentText {
			continue
		}
		if len(out) > 0 {
			out = append(out, ' ')
		}
		out = append(out, f.Text...)
	}
	return string(out)
}

// List is a flat ordered or unordered list. Ordered lists are numbered
// sequentially on output; source digits are not kept.
type List struct {
	Ordered bool
	Items   []string
}

func (*List) Kind() BlockKind { return BlockList }

// Table is a rectangular grid of cell text without alignment rows.
type Table struct {
	Rows [][]string
}

func (*Table) Kind() BlockKind { return BlockTable }

// Columns returns the number of cells per row.
func (t *Table) Columns() int {
	if len(t.Rows) == 0 {
		return 0
	}
	return len(t.Rows[0])
}

// Image is a block-level image whose bytes were resolved from the image set.
type Image struct {
	Name string
	Alt  string
	Data []byte
}

func (*Image) Kind() BlockKind { return BlockImage }

// FragmentKind distinguishes text from inline image references.
type FragmentKind uint8

const (
	FragmentText FragmentKind = iota
	FragmentImage
)

// Fragment is a contiguous span of a paragraph. Image fragments carry the
// referenced filename and, once resolved, the image bytes.
type Fragment struct {
	Kind FragmentKind
	Text string
	Name string
	Alt  string
	Data []byte
}

// TextFragment returns a text fragment.
func TextFragment(text string) Fragment {
	return Fragment{Kind: FragmentText, Text: text}
}

// ImageFragment returns an unresolved image reference.
func ImageFragment(name, alt string) Fragment {
	return Fragment{Kind: FragmentImage, Name: name, Alt: alt}
}

// Images maps image identifiers (usually filenames) to raw bytes.
type Images map[string][]byte

// Lookup returns the bytes stored under name. Empty payloads count as missing.
func (im Images) Lookup(name string) ([]byte, bool) {
	data, ok := im[name]
	if !ok || len(data) == 0 {
		return nil, false
	}
	return data, true
}

// Document is the ordered block sequence produced by a parse.
type Document struct {
	Blocks []Block
}

// Len returns the number of blocks.
func (d *Document) Len() int { return len(d.Blocks) }

// Headings returns all heading blocks in order.
func (d *Document) Headings() []*Heading {
	var out []*Heading
	for _, b := range d.Blocks {
		if h, ok := b.(*Heading); ok {
			out = append(out, h)
		}
	}
	return out
}

// ImageCount returns the number of resolved images, block and inline.
func (d *Document) ImageCount() int {
	n := 0
	for _, b := range d.Blocks {
		switch v := b.(type) {
		case *Image:
			n++
		case *Paragraph:
			for _, f := range v.Fragments {
				if f.Kind == FragmentImage && len(f.Data) > 0 {
					n++
				}
			}
		}
	}
	return n
}

func (d *Document) append(b Block) {
	d.Blocks = append(d.Blocks, b)
}

// PlainText returns a document holding text as one paragraph, or a blank
// paragraph when text is whitespace only.
func PlainText(text string) *Document {
	doc := &Document{}
	doc.append(newTextParagraph(text))
	return doc
}
