package mddocx

import (
	"encoding/base64"
	"fmt"
	"io"
	"strconv"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"pkt.systems/mddocx/imaging"
)

// RenderHTML writes doc as an HTML fragment. Images are inlined as data
// URIs; images that cannot be decoded are rendered with their alt text only.
func RenderHTML(w io.Writer, doc *Document) error {
	if w == nil {
		return fmt.Errorf("render html: writer is nil")
	}
	for _, blk := range doc.Blocks {
		n := htmlBlock(blk)
		if n == nil {
			continue
		}
		if err := html.Render(w, n); err != nil {
			return fmt.Errorf("render html: %w", err)
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return fmt.Errorf("render html: %w", err)
		}
	}
	return nil
}

func htmlBlock(blk Block) *html.Node {
	switch v := blk.(type) {
	case *Heading:
		level := v.Level
		if level > 6 {
			level = 6
		}
		tag := "h" + strconv.Itoa(level)
		n := element(atom.Lookup([]byte(tag)), tag)
		n.AppendChild(textNode(v.Text))
		return n
	case *Paragraph:
		p := element(atom.P, "p")
		for i, f := range v.Fragments {
			if i > 0 {
				p.AppendChild(textNode(" "))
			}
			if f.Kind == FragmentImage {
				p.AppendChild(imgNode(f.Name, f.Alt, f.Data))
				continue
			}
			p.AppendChild(textNode(f.Text))
		}
		return p
	case *List:
		list := element(atom.Ul, "ul")
		if v.Ordered {
			list = element(atom.Ol, "ol")
		}
		for _, item := range v.Items {
			li := element(atom.Li, "li")
			li.AppendChild(textNode(item))
			list.AppendChild(li)
		}
		return list
	case *Table:
		table := element(atom.Table, "table")
		body := element(atom.Tbody, "tbody")
		table.AppendChild(body)
		for _, row := range v.Rows {
			tr := element(atom.Tr, "tr")
			for _, cell := range row {
				td := element(atom.Td, "td")
				td.AppendChild(textNode(cell))
				tr.AppendChild(td)
			}
			body.AppendChild(tr)
		}
		return table
	case *Image:
		fig := element(atom.Figure, "figure")
		fig.AppendChild(imgNode(v.Name, v.Alt, v.Data))
		return fig
	}
	return nil
}

func element(a atom.Atom, tag string) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: tag}
}

func textNode(text string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: text}
}

func imgNode(name, alt string, data []byte) *html.Node {
	n := element(atom.Img, "img")
	if alt == "" {
		alt = name
	}
	n.Attr = append(n.Attr, html.Attribute{Key: "alt", Val: alt})
	if info, err := imaging.Inspect(data); err == nil {
		src := "data:" + imaging.ContentType(info.Format) + ";base64," + base64.StdEncoding.EncodeToString(data)
		n.Attr = append(n.Attr,
			html.Attribute{Key: "src", Val: src},
			html.Attribute{Key: "width", Val: strconv.Itoa(info.Width)},
			html.Attribute{Key: "height", Val: strconv.Itoa(info.Height)},
		)
	}
	return n
}
