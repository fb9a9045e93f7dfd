package mddocx

import (
	"bytes"
	"strconv"
	"strings"
	"testing"
)

// benchmarkSource builds a document exercising every block kind.
func benchmarkSource(sections int) string {
	var b strings.Builder
	for i := 0; i < sections; i++ {
		n := strconv.Itoa(i)
		b.WriteString("# Section " + n + "\n\n")
		b.WriteString("Opening paragraph for section " + n + " with enough words to wrap a little.\n")
		b.WriteString("A second line joins the paragraph ![fig](fig.png) and an unknown ![x](missing.png).\n\n")
		b.WriteString("- first item\n- second item\n\n1. step one\n1. step two\n\n")
		b.WriteString("| key | value |\n|:---|---:|\n| a | " + n + " |\n| b |\n\n")
		b.WriteString("![fig](fig.png)\n\n")
	}
	return b.String()
}

func BenchmarkParse(b *testing.B) {
	data := []byte(benchmarkSource(200))
	images := Images{"fig.png": testPNG(b, 64, 32, 0)}
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	reader := bytes.NewReader(data)
	for i := 0; i < b.N; i++ {
		reader.Reset(data)
		if _, err := Parse(ParseRequest{Reader: reader, Images: images}); err != nil {
			b.Fatalf("Parse: %v", err)
		}
	}
}

func BenchmarkOutline(b *testing.B) {
	doc := ParseString(benchmarkSource(200), nil)
	for _, width := range []int{40, 80} {
		width := width
		b.Run(strconv.Itoa(width), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = Outline(doc, width)
			}
		})
	}
}

func BenchmarkClassifyLine(b *testing.B) {
	lines := strings.Split(benchmarkSource(10), "\n")
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		for _, l := range lines {
			_ = ClassifyLine(l)
		}
	}
}
