package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

// XML namespaces and relationship types used in DOCX packages.
const (
	nsW   = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	nsR   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsWP  = "http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"
	nsA   = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsPic = "http://schemas.openxmlformats.org/drawingml/2006/picture"

	relTypeOfficeDocument = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	relTypeCoreProps      = "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties"
	relTypeStyles         = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles"
	relTypeNumbering      = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/numbering"
	relTypeImage          = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
	relTypeHyperlink      = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink"

	ctDocument  = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
	ctStyles    = "application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"
	ctNumbering = "application/vnd.openxmlformats-officedocument.wordprocessingml.numbering+xml"
	ctCoreProps = "application/vnd.openxmlformats-package.core-properties+xml"
	ctRels      = "application/vnd.openxmlformats-package.relationships+xml"

	// ContentType is the MIME type of a .docx file.
	ContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

const (
	partContentTypes = "[Content_Types].xml"
	partRootRels     = "_rels/.rels"
	partDocument     = "word/document.xml"
	partDocumentRels = "word/_rels/document.xml.rels"
	partStyles       = "word/styles.xml"
	partNumbering    = "word/numbering.xml"
	partCoreProps    = "docProps/core.xml"
)

// ErrNotDOCX reports a package without a WordprocessingML main document.
var ErrNotDOCX = errors.New("not a docx package")

type relationships struct {
	XMLName xml.Name       `xml:"http://schemas.openxmlformats.org/package/2006/relationships Relationships"`
	Rels    []relationship `xml:"Relationship"`
}

type relationship struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr,omitempty"`
}

func (r *relationships) has(id string) bool {
	for _, rel := range r.Rels {
		if rel.ID == id {
			return true
		}
	}
	return false
}

func (r *relationships) byType(relType string) (relationship, bool) {
	for _, rel := range r.Rels {
		if rel.Type == relType {
			return rel, true
		}
	}
	return relationship{}, false
}

type contentTypes struct {
	XMLName   xml.Name     `xml:"http://schemas.openxmlformats.org/package/2006/content-types Types"`
	Defaults  []ctDefault  `xml:"Default"`
	Overrides []ctOverride `xml:"Override"`
}

type ctDefault struct {
	Extension   string `xml:"Extension,attr"`
	ContentType string `xml:"ContentType,attr"`
}

type ctOverride struct {
	PartName    string `xml:"PartName,attr"`
	ContentType string `xml:"ContentType,attr"`
}

func (c *contentTypes) defaultFor(ext string) (string, bool) {
	for _, d := range c.Defaults {
		if strings.EqualFold(d.Extension, ext) {
			return d.ContentType, true
		}
	}
	return "", false
}

func (c *contentTypes) addDefault(ext, contentType string) {
	if _, ok := c.defaultFor(ext); ok {
		return
	}
	c.Defaults = append(c.Defaults, ctDefault{Extension: ext, ContentType: contentType})
}

func (c *contentTypes) addOverride(partName, contentType string) {
	for _, o := range c.Overrides {
		if o.PartName == partName {
			return
		}
	}
	c.Overrides = append(c.Overrides, ctOverride{PartName: partName, ContentType: contentType})
}

func marshalPart(v any) ([]byte, error) {
	body, err := xml.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(xml.Header)+len(body))
	out = append(out, xml.Header...)
	return append(out, body...), nil
}

// part is one named entry of an OPC zip package.
type part struct {
	name string
	data []byte
}

// opcPackage keeps parts in their original order so rewritten packages
// stay close to their source.
type opcPackage struct {
	parts []part
}

func readPackage(data []byte) (*opcPackage, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotDOCX, err)
	}
	pkg := &opcPackage{}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", f.Name, err)
		}
		body, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Name, err)
		}
		pkg.parts = append(pkg.parts, part{name: f.Name, data: body})
	}
	if pkg.get(partDocument) == nil {
		return nil, ErrNotDOCX
	}
	return pkg, nil
}

func (p *opcPackage) get(name string) []byte {
	for _, pt := range p.parts {
		if pt.name == name {
			return pt.data
		}
	}
	return nil
}

func (p *opcPackage) has(name string) bool {
	for _, pt := range p.parts {
		if pt.name == name {
			return true
		}
	}
	return false
}

func (p *opcPackage) put(name string, data []byte) {
	for i, pt := range p.parts {
		if pt.name == name {
			p.parts[i].data = data
			return
		}
	}
	p.parts = append(p.parts, part{name: name, data: data})
}

func (p *opcPackage) relationships(name string) (*relationships, error) {
	rels := &relationships{}
	data := p.get(name)
	if data == nil {
		return rels, nil
	}
	if err := xml.Unmarshal(data, rels); err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	return rels, nil
}

func (p *opcPackage) contentTypes() (*contentTypes, error) {
	ct := &contentTypes{}
	data := p.get(partContentTypes)
	if data == nil {
		return nil, fmt.Errorf("%w: missing %s", ErrNotDOCX, partContentTypes)
	}
	if err := xml.Unmarshal(data, ct); err != nil {
		return nil, fmt.Errorf("parse %s: %w", partContentTypes, err)
	}
	return ct, nil
}

func (p *opcPackage) writeTo(w io.Writer) error {
	zw := zip.NewWriter(w)
	for _, pt := range p.parts {
		fw, err := zw.Create(pt.name)
		if err != nil {
			return fmt.Errorf("create %s: %w", pt.name, err)
		}
		if _, err := fw.Write(pt.data); err != nil {
			return fmt.Errorf("write %s: %w", pt.name, err)
		}
	}
	return zw.Close()
}

// resolveTarget maps a relationship target of the main document to a part
// name.
func resolveTarget(target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(path.Clean(target), "/")
	}
	return path.Clean(path.Join("word", target))
}
