package mddocx

import (
	"strings"
	"testing"
)

func TestClassifyPrecedence(t *testing.T) {
	t.Parallel()
	tests := []struct {
		line string
		want LineKind
	}{
		{"| a | b |", LineTableRow},
		{"  | # not heading |  ", LineTableRow},
		{"|x|", LineTableRow},
		{"||", LineText},
		{"| open row", LineText},
		{"# Title", LineHeading},
		{"###### Six", LineHeading},
		{"####### Seven", LineText},
		{"#NoSpace", LineText},
		{"#   ", LineText},
		{"- item", LineUnorderedItem},
		{"  * item", LineUnorderedItem},
		{"+ item", LineUnorderedItem},
		{"-", LineText},
		{"- ", LineText},
		{"-item", LineText},
		{"1. one", LineOrderedItem},
		{"  42. answer", LineOrderedItem},
		{"1.", LineText},
		{"1.no space", LineText},
		{"![alt](pic.png)", LineImage},
		{"  ![](pic.png)  ", LineImage},
		{"![alt](pic.png) trailing", LineText},
		{"- ![alt](pic.png)", LineUnorderedItem},
		{"", LineBlank},
		{" \t ", LineBlank},
		{"Hello *world*", LineText},
	}
	for _, tc := range tests {
		if got := Classify(tc.line); got != tc.want {
			t.Fatalf("Classify(%q)=%s want %s", tc.line, got, tc.want)
		}
	}
}

func TestClassifyHeadingLevelMatchesHashes(t *testing.T) {
	t.Parallel()
	for level := 1; level <= 6; level++ {
		line := strings.Repeat("#", level) + " Heading"
		got := ClassifyLine(line)
		if got.Kind != LineHeading {
			t.Fatalf("%q: kind %s", line, got.Kind)
		}
		if got.Level != level {
			t.Fatalf("%q: level %d want %d", line, got.Level, level)
		}
		if got.Text != "Heading" {
			t.Fatalf("%q: text %q", line, got.Text)
		}
	}
}

func TestClassifyCaptures(t *testing.T) {
	t.Parallel()
	img := ClassifyLine("  ![A chart]( chart.png )")
	if img.Kind != LineImage || img.Alt != "A chart" || img.Name != "chart.png" {
		t.Fatalf("unexpected image capture %+v", img)
	}
	item := ClassifyLine("   7.   seventh  ")
	if item.Kind != LineOrderedItem || item.Text != "seventh" {
		t.Fatalf("unexpected ordered capture %+v", item)
	}
	row := ClassifyLine("  | a | b |  ")
	if row.Text != "| a | b |" {
		t.Fatalf("unexpected row capture %q", row.Text)
	}
	text := ClassifyLine("  plain  ")
	if text.Kind != LineText || text.Text != "plain" {
		t.Fatalf("unexpected text capture %+v", text)
	}
}

func TestClampLevel(t *testing.T) {
	t.Parallel()
	cases := map[int]int{-1: 1, 0: 1, 1: 1, 6: 6, 9: 9, 12: 9}
	for in, want := range cases {
		if got := clampLevel(in); got != want {
			t.Fatalf("clampLevel(%d)=%d want %d", in, got, want)
		}
	}
}

func TestAlignmentRow(t *testing.T) {
	t.Parallel()
	tests := []struct {
		row  string
		want bool
	}{
		{"|---|---|", true},
		{"| :--- | ---: | :---: |", true},
		{"|---|", true},
		{"|--|---|", false},
		{"| a | --- |", false},
		{"| --- | |", false},
	}
	for _, tc := range tests {
		if got := isAlignmentRow(splitTableRow(tc.row)); got != tc.want {
			t.Fatalf("isAlignmentRow(%q)=%v want %v", tc.row, got, tc.want)
		}
	}
}
