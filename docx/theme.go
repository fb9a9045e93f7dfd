package docx

import (
	"fmt"
	"sort"
	"strings"
)

// Color is an RGB colour.
type Color [3]uint8

// Hex returns the colour as six upper-case hex digits.
func (c Color) Hex() string {
	return fmt.Sprintf("%02X%02X%02X", c[0], c[1], c[2])
}

// Styles groups the colours used by the serializer.
type Styles struct {
	Text        Color
	Heading     [9]Color
	TableBorder Color
}

// Theme provides named styles for document rendering.
type Theme interface {
	Name() string
	Styles() Styles
}

type theme struct {
	name   string
	styles Styles
}

func (t theme) Name() string   { return t.name }
func (t theme) Styles() Styles { return t.styles }

// NewTheme returns a Theme from a Styles definition.
func NewTheme(name string, styles Styles) Theme {
	return theme{name: name, styles: styles}
}

func uniform(text Color, heading ...Color) Styles {
	s := Styles{Text: text, TableBorder: text}
	for i := range s.Heading {
		switch {
		case i < len(heading):
			s.Heading[i] = heading[i]
		case len(heading) > 0:
			s.Heading[i] = heading[len(heading)-1]
		default:
			s.Heading[i] = text
		}
	}
	return s
}

var builtinThemes = map[string]Theme{
	"black": theme{name: "black", styles: uniform(Color{0, 0, 0})},
	"word": theme{name: "word", styles: uniform(Color{0, 0, 0},
		Color{0x2F, 0x54, 0x96}, Color{0x2F, 0x54, 0x96}, Color{0x1F, 0x37, 0x63}, Color{0x2F, 0x54, 0x96})},
	"slate": theme{name: "slate", styles: uniform(Color{0x33, 0x3A, 0x44},
		Color{0x1E, 0x29, 0x3B}, Color{0x33, 0x41, 0x55}, Color{0x47, 0x55, 0x69})},
	"sepia": theme{name: "sepia", styles: uniform(Color{0x3B, 0x2F, 0x24},
		Color{0x70, 0x42, 0x14}, Color{0x8B, 0x5A, 0x2B})},
}

// AvailableThemes returns the names of built-in themes.
func AvailableThemes() []string {
	names := make([]string, 0, len(builtinThemes))
	for name := range builtinThemes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ThemeByName returns a built-in theme by name. The empty name selects the
// default theme.
func ThemeByName(name string) (Theme, bool) {
	if name == "" {
		return DefaultTheme(), true
	}
	t, ok := builtinThemes[strings.ToLower(strings.TrimSpace(name))]
	return t, ok
}

// DefaultTheme returns the all-black theme.
func DefaultTheme() Theme {
	return builtinThemes["black"]
}
