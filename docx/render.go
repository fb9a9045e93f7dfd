package docx

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"pkt.systems/mddocx"
	"pkt.systems/mddocx/imaging"
)

// RenderRequest contains inputs for DOCX rendering.
type RenderRequest struct {
	Document *mddocx.Document
	Writer   io.Writer
	Theme    Theme
	Config   Config
}

// Render serializes a document as a .docx package.
func Render(req RenderRequest) error {
	if req.Document == nil {
		return fmt.Errorf("docx render: document is nil")
	}
	if req.Writer == nil {
		return fmt.Errorf("docx render: writer is nil")
	}
	cfg := DefaultConfig()
	applyConfig(&cfg, req.Config)
	if err := cfg.resolve(); err != nil {
		return fmt.Errorf("docx render: %w", err)
	}
	theme := req.Theme
	if theme == nil {
		theme = DefaultTheme()
	}
	pkg, err := buildPackage(req.Document, cfg, theme.Styles())
	if err != nil {
		return fmt.Errorf("docx render: %w", err)
	}
	if err := pkg.writeTo(req.Writer); err != nil {
		return fmt.Errorf("docx render: output: %w", err)
	}
	return nil
}

// RenderBytes is Render into memory.
func RenderBytes(doc *mddocx.Document, theme Theme, cfg Config) ([]byte, error) {
	var buf bytes.Buffer
	if err := Render(RenderRequest{Document: doc, Writer: &buf, Theme: theme, Config: cfg}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

const (
	rIDStyles    = "rId1"
	rIDNumbering = "rId2"
	firstMediaID = 3

	bulletNumID     = 1
	firstOrderedNum = 2
)

// mediaPart is an embedded image and its relationship.
type mediaPart struct {
	relID string
	name  string
	data  []byte
	ext   string
}

// writer accumulates word/document.xml and the media it references.
type writer struct {
	cfg     Config
	styles  Styles
	buf     bytes.Buffer
	media   []*mediaPart
	byName  map[string]*mediaPart
	drawing int
	ordered int
}

func buildPackage(doc *mddocx.Document, cfg Config, styles Styles) (*opcPackage, error) {
	w := &writer{cfg: cfg, styles: styles, byName: map[string]*mediaPart{}}
	w.writeDocument(doc)

	ct := &contentTypes{
		Defaults: []ctDefault{
			{Extension: "rels", ContentType: ctRels},
			{Extension: "xml", ContentType: "application/xml"},
		},
	}
	ct.addOverride("/"+partDocument, ctDocument)
	ct.addOverride("/"+partStyles, ctStyles)
	ct.addOverride("/"+partNumbering, ctNumbering)
	ct.addOverride("/"+partCoreProps, ctCoreProps)

	docRels := &relationships{Rels: []relationship{
		{ID: rIDStyles, Type: relTypeStyles, Target: "styles.xml"},
		{ID: rIDNumbering, Type: relTypeNumbering, Target: "numbering.xml"},
	}}
	for _, m := range w.media {
		docRels.Rels = append(docRels.Rels, relationship{ID: m.relID, Type: relTypeImage, Target: "media/" + m.name})
		ct.addDefault(m.ext, mediaContentType(m.ext))
	}
	rootRels := &relationships{Rels: []relationship{
		{ID: "rId1", Type: relTypeOfficeDocument, Target: partDocument},
		{ID: "rId2", Type: relTypeCoreProps, Target: partCoreProps},
	}}

	pkg := &opcPackage{}
	for _, item := range []struct {
		name string
		v    any
	}{
		{partContentTypes, ct},
		{partRootRels, rootRels},
		{partDocumentRels, docRels},
	} {
		data, err := marshalPart(item.v)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", item.name, err)
		}
		pkg.put(item.name, data)
	}
	pkg.put(partDocument, w.buf.Bytes())
	pkg.put(partStyles, stylesXML(cfg, styles))
	pkg.put(partNumbering, numberingXML(w.ordered))
	pkg.put(partCoreProps, corePropsXML(cfg))
	for _, m := range w.media {
		pkg.put("word/media/"+m.name, m.data)
	}
	return pkg, nil
}

func (w *writer) writeDocument(doc *mddocx.Document) {
	w.buf.WriteString(xml.Header)
	w.buf.WriteString(`<w:document xmlns:w="` + nsW + `" xmlns:r="` + nsR + `" xmlns:wp="` + nsWP + `" xmlns:a="` + nsA + `" xmlns:pic="` + nsPic + `"><w:body>`)
	for _, blk := range doc.Blocks {
		switch v := blk.(type) {
		case *mddocx.Heading:
			w.paragraph("Heading"+strconv.Itoa(v.Level), func() { w.textRun(v.Text) })
		case *mddocx.Paragraph:
			w.writeParagraph(v)
		case *mddocx.List:
			w.writeList(v)
		case *mddocx.Table:
			w.writeTable(v)
		case *mddocx.Image:
			w.paragraph("", func() { w.imageRun(v.Name, v.Alt, v.Data) })
		}
	}
	w.writeSection()
	w.buf.WriteString(`</w:body></w:document>`)
}

func (w *writer) paragraph(style string, content func()) {
	w.paragraphWithNumbering(style, 0, content)
}

func (w *writer) paragraphWithNumbering(style string, numID int, content func()) {
	w.buf.WriteString("<w:p>")
	if style != "" || numID > 0 {
		w.buf.WriteString("<w:pPr>")
		if style != "" {
			w.buf.WriteString(`<w:pStyle w:val="` + style + `"/>`)
		}
		if numID > 0 {
			w.buf.WriteString(`<w:numPr><w:ilvl w:val="0"/><w:numId w:val="` + strconv.Itoa(numID) + `"/></w:numPr>`)
		}
		w.buf.WriteString("</w:pPr>")
	}
	if content != nil {
		content()
	}
	w.buf.WriteString("</w:p>")
}

func (w *writer) writeParagraph(p *mddocx.Paragraph) {
	if p.Blank() {
		w.buf.WriteString("<w:p/>")
		return
	}
	w.paragraph("", func() {
		for i, f := range p.Fragments {
			if i > 0 {
				w.textRun(" ")
			}
			if f.Kind == mddocx.FragmentImage {
				w.imageRun(f.Name, f.Alt, f.Data)
				continue
			}
			w.textRun(f.Text)
		}
	})
}

func (w *writer) writeList(l *mddocx.List) {
	style, numID := "ListBullet", bulletNumID
	if l.Ordered {
		style = "ListNumber"
		numID = firstOrderedNum + w.ordered
		w.ordered++
	}
	for _, item := range l.Items {
		item := item
		w.paragraphWithNumbering(style, numID, func() { w.textRun(item) })
	}
}

func (w *writer) writeTable(t *mddocx.Table) {
	cols := t.Columns()
	if cols == 0 {
		return
	}
	colWidth := toTwips(w.cfg.UsableWidth()) / cols
	w.buf.WriteString(`<w:tbl><w:tblPr><w:tblStyle w:val="TableGrid"/><w:tblW w:w="0" w:type="auto"/><w:tblLook w:val="04A0" w:firstRow="1" w:lastRow="0" w:firstColumn="1" w:lastColumn="0" w:noHBand="0" w:noVBand="1"/></w:tblPr><w:tblGrid>`)
	for i := 0; i < cols; i++ {
		w.buf.WriteString(`<w:gridCol w:w="` + strconv.Itoa(colWidth) + `"/>`)
	}
	w.buf.WriteString("</w:tblGrid>")
	for _, row := range t.Rows {
		w.buf.WriteString("<w:tr>")
		for _, cell := range row {
			w.buf.WriteString(`<w:tc><w:tcPr><w:tcW w:w="` + strconv.Itoa(colWidth) + `" w:type="dxa"/></w:tcPr>`)
			if cell == "" {
				w.buf.WriteString("<w:p/>")
			} else {
				cell := cell
				w.paragraph("", func() { w.textRun(cell) })
			}
			w.buf.WriteString("</w:tc>")
		}
		w.buf.WriteString("</w:tr>")
	}
	w.buf.WriteString("</w:tbl>")
}

func (w *writer) textRun(text string) {
	w.buf.WriteString(`<w:r><w:t xml:space="preserve">`)
	writeEscaped(&w.buf, text)
	w.buf.WriteString("</w:t></w:r>")
}

func (w *writer) imageRun(name, alt string, data []byte) {
	m := w.addMedia(name, data)
	place := mddocx.FitImage(m.data, w.cfg.UsableWidth())
	cx := strconv.FormatInt(toEMU(place.Width), 10)
	cy := strconv.FormatInt(toEMU(place.Height), 10)
	w.drawing++
	id := strconv.Itoa(w.drawing)
	w.buf.WriteString(`<w:r><w:drawing><wp:inline distT="0" distB="0" distL="0" distR="0">`)
	w.buf.WriteString(`<wp:extent cx="` + cx + `" cy="` + cy + `"/>`)
	w.buf.WriteString(`<wp:docPr id="` + id + `" name="Picture ` + id + `" descr="`)
	writeEscaped(&w.buf, alt)
	w.buf.WriteString(`"/><wp:cNvGraphicFramePr><a:graphicFrameLocks noChangeAspect="1"/></wp:cNvGraphicFramePr>`)
	w.buf.WriteString(`<a:graphic><a:graphicData uri="` + nsPic + `"><pic:pic>`)
	w.buf.WriteString(`<pic:nvPicPr><pic:cNvPr id="` + id + `" name="`)
	writeEscaped(&w.buf, m.name)
	w.buf.WriteString(`"/><pic:cNvPicPr/></pic:nvPicPr>`)
	w.buf.WriteString(`<pic:blipFill><a:blip r:embed="` + m.relID + `"/><a:stretch><a:fillRect/></a:stretch></pic:blipFill>`)
	w.buf.WriteString(`<pic:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="` + cx + `" cy="` + cy + `"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></pic:spPr>`)
	w.buf.WriteString(`</pic:pic></a:graphicData></a:graphic></wp:inline></w:drawing></w:r>`)
}

// addMedia registers image bytes once per source name. Formats Word cannot
// display are converted to PNG when they decode.
func (w *writer) addMedia(name string, data []byte) *mediaPart {
	if m, ok := w.byName[name]; ok && bytes.Equal(m.data, data) {
		return m
	}
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(name)), ".")
	if info, err := imaging.Inspect(data); err == nil {
		ext = imaging.Extension(info.Format)
		if !wordImageFormat(info.Format) {
			if converted, err := imaging.ToPNG(data); err == nil {
				data, ext = converted, "png"
			}
		}
	}
	if ext == "" {
		ext = "bin"
	}
	n := len(w.media) + 1
	m := &mediaPart{
		relID: "rId" + strconv.Itoa(firstMediaID+len(w.media)),
		name:  "image" + strconv.Itoa(n) + "." + ext,
		data:  data,
		ext:   ext,
	}
	w.media = append(w.media, m)
	w.byName[name] = m
	return m
}

func wordImageFormat(format string) bool {
	switch format {
	case "png", "jpeg", "gif", "bmp", "tiff":
		return true
	default:
		return false
	}
}

func mediaContentType(ext string) string {
	switch ext {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png", "gif", "bmp", "tiff", "webp":
		return "image/" + ext
	default:
		return "application/octet-stream"
	}
}

func (w *writer) writeSection() {
	c := w.cfg
	fmt.Fprintf(&w.buf, `<w:sectPr><w:pgSz w:w="%d" w:h="%d"/><w:pgMar w:top="%d" w:right="%d" w:bottom="%d" w:left="%d" w:header="720" w:footer="720" w:gutter="0"/><w:cols w:space="720"/></w:sectPr>`,
		toTwips(c.PageWidth), toTwips(c.PageHeight),
		toTwips(c.MarginTop), toTwips(c.MarginRight), toTwips(c.MarginBottom), toTwips(c.MarginLeft))
}

// writeEscaped writes NFC-normalised, XML-escaped text, dropping
// characters XML 1.0 cannot carry.
func writeEscaped(buf *bytes.Buffer, text string) {
	text = norm.NFC.String(text)
	clean := strings.Map(func(r rune) rune {
		if r == '\t' || r == '\n' || r == '\r' {
			return r
		}
		if r < 0x20 || r == 0xFFFE || r == 0xFFFF {
			return -1
		}
		return r
	}, text)
	_ = xml.EscapeText(buf, []byte(clean))
}

func corePropsXML(cfg Config) []byte {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.WriteString(`<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">`)
	if cfg.Title != "" {
		buf.WriteString("<dc:title>")
		writeEscaped(&buf, cfg.Title)
		buf.WriteString("</dc:title>")
	}
	if cfg.Creator != "" {
		buf.WriteString("<dc:creator>")
		writeEscaped(&buf, cfg.Creator)
		buf.WriteString("</dc:creator>")
	}
	if !cfg.Created.IsZero() {
		ts := cfg.Created.UTC().Format(time.RFC3339)
		buf.WriteString(`<dcterms:created xsi:type="dcterms:W3CDTF">` + ts + `</dcterms:created>`)
		buf.WriteString(`<dcterms:modified xsi:type="dcterms:W3CDTF">` + ts + `</dcterms:modified>`)
	}
	buf.WriteString("</cp:coreProperties>")
	return buf.Bytes()
}
