package docx

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
)

// headingHalfPoints are heading font sizes in half-points, Heading1 first.
var headingHalfPoints = [9]int{32, 26, 24, 22, 22, 22, 22, 22, 22}

func stylesXML(cfg Config, styles Styles) []byte {
	var buf bytes.Buffer
	size := strconv.Itoa(int(cfg.FontSize*2 + 0.5))
	font := fontAttr(cfg.FontFamily)
	text := styles.Text.Hex()

	buf.WriteString(xml.Header)
	buf.WriteString(`<w:styles xmlns:w="` + nsW + `">`)
	buf.WriteString(`<w:docDefaults><w:rPrDefault><w:rPr>`)
	buf.WriteString(`<w:rFonts w:ascii="` + font + `" w:hAnsi="` + font + `" w:eastAsia="` + font + `" w:cs="` + font + `"/>`)
	buf.WriteString(`<w:color w:val="` + text + `"/><w:sz w:val="` + size + `"/><w:szCs w:val="` + size + `"/>`)
	buf.WriteString(`</w:rPr></w:rPrDefault><w:pPrDefault><w:pPr><w:spacing w:after="160" w:line="259" w:lineRule="auto"/></w:pPr></w:pPrDefault></w:docDefaults>`)

	buf.WriteString(`<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/><w:qFormat/>`)
	buf.WriteString(`<w:rPr><w:color w:val="` + text + `"/></w:rPr></w:style>`)

	for i := 0; i < len(headingHalfPoints); i++ {
		level := i + 1
		hs := strconv.Itoa(headingHalfPoints[i])
		fmt.Fprintf(&buf, `<w:style w:type="paragraph" w:styleId="Heading%d"><w:name w:val="heading %d"/><w:basedOn w:val="Normal"/><w:next w:val="Normal"/><w:uiPriority w:val="9"/><w:qFormat/>`, level, level)
		fmt.Fprintf(&buf, `<w:pPr><w:keepNext/><w:keepLines/><w:spacing w:before="%d" w:after="80"/><w:outlineLvl w:val="%d"/></w:pPr>`, headingSpacingBefore(level), i)
		buf.WriteString(`<w:rPr><w:b/><w:bCs/><w:color w:val="` + styles.Heading[i].Hex() + `"/><w:sz w:val="` + hs + `"/><w:szCs w:val="` + hs + `"/></w:rPr></w:style>`)
	}

	for _, id := range []string{"ListBullet", "ListNumber"} {
		name := "List Bullet"
		if id == "ListNumber" {
			name = "List Number"
		}
		buf.WriteString(`<w:style w:type="paragraph" w:styleId="` + id + `"><w:name w:val="` + name + `"/><w:basedOn w:val="Normal"/><w:uiPriority w:val="99"/>`)
		buf.WriteString(`<w:pPr><w:spacing w:after="60"/><w:ind w:left="720" w:hanging="360"/><w:contextualSpacing/></w:pPr></w:style>`)
	}

	border := styles.TableBorder.Hex()
	buf.WriteString(`<w:style w:type="table" w:default="1" w:styleId="TableNormal"><w:name w:val="Normal Table"/><w:uiPriority w:val="99"/><w:semiHidden/>`)
	buf.WriteString(`<w:tblPr><w:tblInd w:w="0" w:type="dxa"/><w:tblCellMar><w:top w:w="0" w:type="dxa"/><w:left w:w="108" w:type="dxa"/><w:bottom w:w="0" w:type="dxa"/><w:right w:w="108" w:type="dxa"/></w:tblCellMar></w:tblPr></w:style>`)
	buf.WriteString(`<w:style w:type="table" w:styleId="TableGrid"><w:name w:val="Table Grid"/><w:basedOn w:val="TableNormal"/><w:uiPriority w:val="39"/>`)
	buf.WriteString(`<w:pPr><w:spacing w:after="0" w:line="240" w:lineRule="auto"/></w:pPr><w:tblPr><w:tblBorders>`)
	for _, side := range []string{"top", "left", "bottom", "right", "insideH", "insideV"} {
		buf.WriteString(`<w:` + side + ` w:val="single" w:sz="4" w:space="0" w:color="` + border + `"/>`)
	}
	buf.WriteString(`</w:tblBorders></w:tblPr></w:style>`)
	buf.WriteString(`</w:styles>`)
	return buf.Bytes()
}

func headingSpacingBefore(level int) int {
	if level == 1 {
		return 360
	}
	return 160
}

func fontAttr(name string) string {
	var buf bytes.Buffer
	writeEscaped(&buf, name)
	return buf.String()
}

// numberingXML declares one bullet definition shared by all unordered
// lists and one decimal definition with a fresh instance per ordered list,
// so every ordered list restarts at 1.
func numberingXML(orderedLists int) []byte {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.WriteString(`<w:numbering xmlns:w="` + nsW + `">`)
	buf.WriteString(`<w:abstractNum w:abstractNumId="0"><w:multiLevelType w:val="singleLevel"/>`)
	buf.WriteString(`<w:lvl w:ilvl="0"><w:start w:val="1"/><w:numFmt w:val="bullet"/><w:lvlText w:val="•"/><w:lvlJc w:val="left"/><w:pPr><w:ind w:left="720" w:hanging="360"/></w:pPr></w:lvl></w:abstractNum>`)
	buf.WriteString(`<w:abstractNum w:abstractNumId="1"><w:multiLevelType w:val="singleLevel"/>`)
	buf.WriteString(`<w:lvl w:ilvl="0"><w:start w:val="1"/><w:numFmt w:val="decimal"/><w:lvlText w:val="%1."/><w:lvlJc w:val="left"/><w:pPr><w:ind w:left="720" w:hanging="360"/></w:pPr></w:lvl></w:abstractNum>`)
	fmt.Fprintf(&buf, `<w:num w:numId="%d"><w:abstractNumId w:val="0"/></w:num>`, bulletNumID)
	for i := 0; i < orderedLists; i++ {
		fmt.Fprintf(&buf, `<w:num w:numId="%d"><w:abstractNumId w:val="1"/><w:lvlOverride w:ilvl="0"><w:startOverride w:val="1"/></w:lvlOverride></w:num>`, firstOrderedNum+i)
	}
	buf.WriteString(`</w:numbering>`)
	return buf.Bytes()
}
