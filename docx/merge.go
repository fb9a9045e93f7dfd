package docx

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"pkt.systems/mddocx/imaging"
)

// ErrNoDocuments reports a merge without inputs.
var ErrNoDocuments = errors.New("no documents to merge")

const pageBreakXML = `<w:p><w:r><w:br w:type="page"/></w:r></w:p>`

var (
	bodyOpenRE     = regexp.MustCompile(`<w:body(\s[^>]*)?>`)
	rootOpenRE     = regexp.MustCompile(`<w:document\b[^>]*>`)
	xmlnsRE        = regexp.MustCompile(`\sxmlns:([A-Za-z0-9_.-]+)="([^"]*)"`)
	relRefRE       = regexp.MustCompile(`(\br:(?:embed|id|link|pict|href)=")([^"]*)(")`)
	numIDRefRE     = regexp.MustCompile(`(<w:numId\s+w:val=")(\d+)(")`)
	abstractNumRE  = regexp.MustCompile(`(?s)<w:abstractNum\b.*?</w:abstractNum>`)
	numRE          = regexp.MustCompile(`(?s)<w:num\b[^>]*>.*?</w:num>`)
	abstractIDRE   = regexp.MustCompile(`(w:abstractNumId=")(\d+)(")`)
	abstractRefRE  = regexp.MustCompile(`(<w:abstractNumId\s+w:val=")(\d+)(")`)
	numDeclIDRE    = regexp.MustCompile(`(<w:num\s+w:numId=")(\d+)(")`)
	nsidRE         = regexp.MustCompile(`<w:nsid\b[^>]*/>`)
	numberingEndRE = regexp.MustCompile(`</w:numbering>`)
	ridNumberRE    = regexp.MustCompile(`^rId(\d+)$`)
	drawingIDRE    = regexp.MustCompile(`(<(?:wp:docPr|pic:cNvPr)\s+id=")(\d+)(")`)
)

// body is the main document split around its body content.
type body struct {
	head    string // up to and including <w:body>
	content string // block content without the final section properties
	sect    string // final <w:sectPr> element, possibly empty
	tail    string // </w:body> and after
}

func splitBody(doc []byte) (body, error) {
	s := string(doc)
	loc := bodyOpenRE.FindStringIndex(s)
	if loc == nil {
		return body{}, fmt.Errorf("%w: missing w:body", ErrNotDOCX)
	}
	end := strings.LastIndex(s, "</w:body>")
	if end < loc[1] {
		return body{}, fmt.Errorf("%w: unterminated w:body", ErrNotDOCX)
	}
	b := body{head: s[:loc[1]], tail: s[end:]}
	inner := s[loc[1]:end]
	if idx := strings.LastIndex(inner, "<w:sectPr"); idx >= 0 && strings.HasSuffix(strings.TrimSpace(inner), "</w:sectPr>") {
		b.content, b.sect = inner[:idx], inner[idx:]
	} else {
		b.content = inner
	}
	return b, nil
}

func (b body) join(content string) []byte {
	return []byte(b.head + content + b.sect + b.tail)
}

// merger appends documents onto a base package.
type merger struct {
	base      *opcPackage
	body      body
	rels      *relationships
	types     *contentTypes
	numbering string
	content   strings.Builder
	nextRel   int
	numBase   int // highest numId in use
	nextAbs   int // next free abstractNumId
	drawings  int // highest drawing object id in use
	index     int
	copied    int
}

// Merge writes a package whose body is the body of docs[0] followed by the
// bodies of the remaining documents, each preceded by a page break. The
// section properties, styles and headers of the first document apply to
// the result. Images, hyperlinks and list numbering of appended documents
// are carried over under fresh identifiers.
func Merge(w io.Writer, docs ...[]byte) error {
	if len(docs) == 0 {
		return fmt.Errorf("docx merge: %w", ErrNoDocuments)
	}
	if w == nil {
		return fmt.Errorf("docx merge: writer is nil")
	}
	m, err := newMerger(docs[0])
	if err != nil {
		return fmt.Errorf("docx merge: document 1: %w", err)
	}
	for i, doc := range docs[1:] {
		if err := m.append(doc); err != nil {
			return fmt.Errorf("docx merge: document %d: %w", i+2, err)
		}
	}
	if err := m.finish(); err != nil {
		return fmt.Errorf("docx merge: %w", err)
	}
	if err := m.base.writeTo(w); err != nil {
		return fmt.Errorf("docx merge: output: %w", err)
	}
	return nil
}

// MergeMap merges documents in numeric key order (see SortKeysNumeric).
func MergeMap(w io.Writer, docs map[string][]byte) error {
	keys := make([]string, 0, len(docs))
	for k := range docs {
		keys = append(keys, k)
	}
	ordered := make([][]byte, 0, len(keys))
	for _, k := range SortKeysNumeric(keys) {
		ordered = append(ordered, docs[k])
	}
	return Merge(w, ordered...)
}

// SortKeysNumeric returns keys ordered by integer value, so "10" follows
// "2". Keys that are not integers follow all numeric keys in lexical order.
func SortKeysNumeric(keys []string) []string {
	out := append([]string(nil), keys...)
	sort.SliceStable(out, func(i, j int) bool {
		a, aErr := strconv.ParseInt(strings.TrimSpace(out[i]), 10, 64)
		b, bErr := strconv.ParseInt(strings.TrimSpace(out[j]), 10, 64)
		switch {
		case aErr == nil && bErr == nil:
			if a != b {
				return a < b
			}
			return out[i] < out[j]
		case aErr == nil:
			return true
		case bErr == nil:
			return false
		default:
			return out[i] < out[j]
		}
	})
	return out
}

func newMerger(data []byte) (*merger, error) {
	pkg, err := readPackage(data)
	if err != nil {
		return nil, err
	}
	b, err := splitBody(pkg.get(partDocument))
	if err != nil {
		return nil, err
	}
	rels, err := pkg.relationships(partDocumentRels)
	if err != nil {
		return nil, err
	}
	types, err := pkg.contentTypes()
	if err != nil {
		return nil, err
	}
	m := &merger{base: pkg, body: b, rels: rels, types: types, index: 1}
	m.drawings = maxID(drawingIDRE, b.content)
	m.content.WriteString(b.content)
	for _, rel := range rels.Rels {
		if sm := ridNumberRE.FindStringSubmatch(rel.ID); sm != nil {
			if n, _ := strconv.Atoi(sm[1]); n >= m.nextRel {
				m.nextRel = n + 1
			}
		}
	}
	if m.nextRel == 0 {
		m.nextRel = len(rels.Rels) + 1
	}
	if rel, ok := rels.byType(relTypeNumbering); ok {
		m.numbering = string(pkg.get(resolveTarget(rel.Target)))
		if m.numbering != "" {
			m.numBase = maxID(numDeclIDRE, m.numbering)
			m.nextAbs = maxID(abstractIDRE, m.numbering) + 1
		}
	}
	return m, nil
}

func maxID(re *regexp.Regexp, s string) int {
	top := 0
	for _, sm := range re.FindAllStringSubmatch(s, -1) {
		if n, err := strconv.Atoi(sm[2]); err == nil && n > top {
			top = n
		}
	}
	return top
}

// shiftIDs adds offset to the numeric second group of every match of re.
func shiftIDs(re *regexp.Regexp, s string, offset int) string {
	if offset == 0 {
		return s
	}
	return re.ReplaceAllStringFunc(s, func(match string) string {
		sm := re.FindStringSubmatch(match)
		n, _ := strconv.Atoi(sm[2])
		return sm[1] + strconv.Itoa(n+offset) + sm[3]
	})
}

func (m *merger) append(data []byte) error {
	m.index++
	pkg, err := readPackage(data)
	if err != nil {
		return err
	}
	doc := pkg.get(partDocument)
	b, err := splitBody(doc)
	if err != nil {
		return err
	}
	rels, err := pkg.relationships(partDocumentRels)
	if err != nil {
		return err
	}
	types, err := pkg.contentTypes()
	if err != nil {
		return err
	}
	m.addNamespaces(b.head)

	content := b.content
	renamed := map[string]string{}
	for _, rel := range rels.Rels {
		switch rel.Type {
		case relTypeImage:
			newID, err := m.copyImage(pkg, types, rel)
			if err != nil {
				return err
			}
			renamed[rel.ID] = newID
		case relTypeHyperlink:
			newID := m.allocRel()
			m.rels.Rels = append(m.rels.Rels, relationship{ID: newID, Type: rel.Type, Target: rel.Target, TargetMode: rel.TargetMode})
			renamed[rel.ID] = newID
		}
	}
	content = relRefRE.ReplaceAllStringFunc(content, func(attr string) string {
		sm := relRefRE.FindStringSubmatch(attr)
		if id, ok := renamed[sm[2]]; ok {
			return sm[1] + id + sm[3]
		}
		return attr
	})

	if top := maxID(drawingIDRE, content); top > 0 {
		content = shiftIDs(drawingIDRE, content, m.drawings)
		m.drawings += top
	}

	if numRel, ok := rels.byType(relTypeNumbering); ok && numIDRefRE.MatchString(content) {
		content = m.mergeNumbering(string(pkg.get(resolveTarget(numRel.Target))), content)
	}

	m.content.WriteString(pageBreakXML)
	m.content.WriteString(content)
	return nil
}

func (m *merger) allocRel() string {
	id := "rId" + strconv.Itoa(m.nextRel)
	for m.rels.has(id) {
		m.nextRel++
		id = "rId" + strconv.Itoa(m.nextRel)
	}
	m.nextRel++
	return id
}

func (m *merger) copyImage(pkg *opcPackage, types *contentTypes, rel relationship) (string, error) {
	if rel.TargetMode == "External" {
		newID := m.allocRel()
		m.rels.Rels = append(m.rels.Rels, relationship{ID: newID, Type: rel.Type, Target: rel.Target, TargetMode: rel.TargetMode})
		return newID, nil
	}
	src := resolveTarget(rel.Target)
	data := pkg.get(src)
	if data == nil {
		return "", fmt.Errorf("missing image part %s", src)
	}
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(src)), ".")
	name := fmt.Sprintf("media/merged%d_%s", m.index, path.Base(src))
	for m.base.has("word/" + name) {
		m.copied++
		name = fmt.Sprintf("media/merged%d_%d_%s", m.index, m.copied, path.Base(src))
	}
	m.base.put("word/"+name, data)
	contentType, ok := types.defaultFor(ext)
	if !ok {
		if info, err := imaging.Inspect(data); err == nil {
			contentType = imaging.ContentType(info.Format)
		} else {
			contentType = mediaContentType(ext)
		}
	}
	if ext != "" {
		m.types.addDefault(ext, contentType)
	}
	newID := m.allocRel()
	m.rels.Rels = append(m.rels.Rels, relationship{ID: newID, Type: relTypeImage, Target: name})
	return newID, nil
}

// mergeNumbering copies the numbering definitions of an appended document
// under fresh ids and rewrites the list references in its content.
func (m *merger) mergeNumbering(numbering, content string) string {
	if numbering == "" {
		return content
	}
	if m.numbering == "" {
		m.numbering = xml.Header + `<w:numbering xmlns:w="` + nsW + `"></w:numbering>`
		m.numBase, m.nextAbs = 0, 0
		if _, ok := m.rels.byType(relTypeNumbering); !ok {
			m.rels.Rels = append(m.rels.Rels, relationship{ID: m.allocRel(), Type: relTypeNumbering, Target: "numbering.xml"})
			m.types.addOverride("/"+partNumbering, ctNumbering)
		}
	}
	absOffset := m.nextAbs
	numOffset := m.numBase

	var abstracts, nums strings.Builder
	for _, a := range abstractNumRE.FindAllString(numbering, -1) {
		a = nsidRE.ReplaceAllString(a, "")
		abstracts.WriteString(shiftIDs(abstractIDRE, a, absOffset))
	}
	for _, n := range numRE.FindAllString(numbering, -1) {
		n = shiftIDs(numDeclIDRE, n, numOffset)
		nums.WriteString(shiftIDs(abstractRefRE, n, absOffset))
	}
	m.nextAbs = absOffset + maxID(abstractIDRE, numbering) + 1
	m.numBase = numOffset + maxID(numDeclIDRE, numbering)

	// Abstract definitions must precede all instances.
	if idx := strings.Index(m.numbering, "<w:num "); idx >= 0 {
		m.numbering = m.numbering[:idx] + abstracts.String() + m.numbering[idx:]
	} else if loc := numberingEndRE.FindStringIndex(m.numbering); loc != nil {
		m.numbering = m.numbering[:loc[0]] + abstracts.String() + m.numbering[loc[0]:]
	}
	if loc := numberingEndRE.FindStringIndex(m.numbering); loc != nil {
		m.numbering = m.numbering[:loc[0]] + nums.String() + m.numbering[loc[0]:]
	}

	return numIDRefRE.ReplaceAllStringFunc(content, func(match string) string {
		sm := numIDRefRE.FindStringSubmatch(match)
		n, _ := strconv.Atoi(sm[2])
		if n == 0 {
			return match
		}
		return sm[1] + strconv.Itoa(n+numOffset) + sm[3]
	})
}

// addNamespaces declares on the base root element any prefix the appended
// document declares that the base does not.
func (m *merger) addNamespaces(head string) {
	root := rootOpenRE.FindString(head)
	baseRoot := rootOpenRE.FindString(m.body.head)
	if root == "" || baseRoot == "" {
		return
	}
	declared := map[string]bool{}
	for _, sm := range xmlnsRE.FindAllStringSubmatch(baseRoot, -1) {
		declared[sm[1]] = true
	}
	var extra strings.Builder
	for _, sm := range xmlnsRE.FindAllStringSubmatch(root, -1) {
		if !declared[sm[1]] {
			declared[sm[1]] = true
			extra.WriteString(sm[0])
		}
	}
	if extra.Len() == 0 {
		return
	}
	closeAt := len(baseRoot) - 1
	if strings.HasSuffix(baseRoot, "/>") {
		closeAt--
	}
	newRoot := baseRoot[:closeAt] + extra.String() + baseRoot[closeAt:]
	m.body.head = strings.Replace(m.body.head, baseRoot, newRoot, 1)
}

func (m *merger) finish() error {
	m.base.put(partDocument, m.body.join(m.content.String()))
	rels, err := marshalPart(m.rels)
	if err != nil {
		return fmt.Errorf("marshal relationships: %w", err)
	}
	m.base.put(partDocumentRels, rels)
	types, err := marshalPart(m.types)
	if err != nil {
		return fmt.Errorf("marshal content types: %w", err)
	}
	m.base.put(partContentTypes, types)
	if m.numbering != "" {
		target := partNumbering
		if rel, ok := m.rels.byType(relTypeNumbering); ok {
			target = resolveTarget(rel.Target)
		}
		m.base.put(target, []byte(m.numbering))
	}
	return nil
}
