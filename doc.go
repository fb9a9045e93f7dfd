// Package mddocx converts a restricted Markdown dialect into a document
// model ready for word-processor serialization.
//
// The dialect covers ATX headings, paragraphs, flat ordered and unordered
// lists, pipe tables, and block or inline images written as
// ![alt](filename). Images are resolved by exact filename against a
// caller-supplied Images set; unresolved references are dropped or replaced
// with a visible placeholder depending on the MissingImagePolicy.
//
// Parsing is a single pass over the input lines. Each line is classified
// (see Classify), and a small state machine buffers paragraphs, lists and
// tables until a line of another kind, a blank line or the end of input
// closes them. Malformed constructs degrade to plain text; parsing never
// fails on valid UTF-8 text.
//
// Example:
//
//	doc := mddocx.ParseString("# Report\n\n![chart](chart.png)\n", mddocx.Images{
//		"chart.png": chartBytes,
//	}, mddocx.WithMissingImages(mddocx.MissingImagePlaceholder))
//	for _, b := range doc.Blocks {
//		fmt.Println(b.Kind())
//	}
//
// FitImage and FitWidth size images for a page's usable width while
// keeping their aspect ratio. The docx sub-package serializes a Document to
// a .docx file and merges several .docx files; the imaging sub-package
// inspects and crops images.
package mddocx
