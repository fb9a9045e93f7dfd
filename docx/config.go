package docx

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Config holds page geometry and base typography. Lengths are in inches,
// font sizes in points.
type Config struct {
	PageSize     string
	PageWidth    float64
	PageHeight   float64
	MarginLeft   float64
	MarginRight  float64
	MarginTop    float64
	MarginBottom float64
	FontFamily   string
	FontSize     float64
	Title        string
	Creator      string
	// Created is written to the core properties when non-zero.
	Created time.Time

	// marginsSet makes applyConfig copy the margins even when zero.
	marginsSet bool
}

const (
	emuPerInch     = 914400
	twipsPerInch   = 1440
	customPageSize = "custom"
)

var pageSizes = map[string][2]float64{
	"letter": {8.5, 11},
	"legal":  {8.5, 14},
	"a4":     {8.27, 11.69},
	"a5":     {5.83, 8.27},
}

// PageSizes returns the names of the known page sizes.
func PageSizes() []string {
	names := make([]string, 0, len(pageSizes))
	for name := range pageSizes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultConfig returns US Letter with one inch margins, which leaves a
// usable width of 6.5 inches.
func DefaultConfig() Config {
	return Config{
		PageSize:     "Letter",
		PageWidth:    8.5,
		PageHeight:   11,
		MarginLeft:   1,
		MarginRight:  1,
		MarginTop:    1,
		MarginBottom: 1,
		FontFamily:   "Calibri",
		FontSize:     11,
		Creator:      "mddocx",
	}
}

// UsableWidth returns the page width minus the left and right margins.
func (c Config) UsableWidth() float64 {
	return c.PageWidth - c.MarginLeft - c.MarginRight
}

// resolve fills the page dimensions from PageSize and validates the
// geometry. A PageSize of "custom" (or empty) keeps PageWidth and PageHeight.
func (c *Config) resolve() error {
	name := strings.ToLower(strings.TrimSpace(c.PageSize))
	if name != "" && name != customPageSize {
		dims, ok := pageSizes[name]
		if !ok {
			return fmt.Errorf("unknown page size %q", c.PageSize)
		}
		c.PageWidth, c.PageHeight = dims[0], dims[1]
	}
	if c.PageWidth <= 0 || c.PageHeight <= 0 {
		return fmt.Errorf("custom page size requires width and height")
	}
	if c.MarginLeft < 0 || c.MarginRight < 0 || c.MarginTop < 0 || c.MarginBottom < 0 {
		return fmt.Errorf("margins must not be negative")
	}
	if c.UsableWidth() <= 0 {
		return fmt.Errorf("page too narrow for margins (usable width %.2fin)", c.UsableWidth())
	}
	if c.PageHeight-c.MarginTop-c.MarginBottom <= 0 {
		return fmt.Errorf("page too short for margins")
	}
	if c.FontFamily == "" || c.FontSize <= 0 {
		return fmt.Errorf("invalid font configuration")
	}
	return nil
}

// applyConfig overlays the non-zero fields of src onto dst. Margins set
// through SetMargins are copied as given, zero included. Explicit
// dimensions without a PageSize switch dst to a custom page size.
func applyConfig(dst *Config, src Config) {
	if src.PageSize != "" {
		dst.PageSize = src.PageSize
	} else if src.PageWidth > 0 && src.PageHeight > 0 {
		dst.PageSize = customPageSize
	}
	if src.PageWidth > 0 {
		dst.PageWidth = src.PageWidth
	}
	if src.PageHeight > 0 {
		dst.PageHeight = src.PageHeight
	}
	if src.marginsSet {
		dst.MarginLeft, dst.MarginRight = src.MarginLeft, src.MarginRight
		dst.MarginTop, dst.MarginBottom = src.MarginTop, src.MarginBottom
	} else {
		if src.MarginLeft != 0 {
			dst.MarginLeft = src.MarginLeft
		}
		if src.MarginRight != 0 {
			dst.MarginRight = src.MarginRight
		}
		if src.MarginTop != 0 {
			dst.MarginTop = src.MarginTop
		}
		if src.MarginBottom != 0 {
			dst.MarginBottom = src.MarginBottom
		}
	}
	if src.FontFamily != "" {
		dst.FontFamily = src.FontFamily
	}
	if src.FontSize > 0 {
		dst.FontSize = src.FontSize
	}
	if src.Title != "" {
		dst.Title = src.Title
	}
	if src.Creator != "" {
		dst.Creator = src.Creator
	}
	if !src.Created.IsZero() {
		dst.Created = src.Created
	}
}

// SetMargins sets all four margins. Zero is kept as zero rather than
// replaced by the default.
func (c *Config) SetMargins(inches float64) {
	c.MarginLeft = inches
	c.MarginRight = inches
	c.MarginTop = inches
	c.MarginBottom = inches
	c.marginsSet = true
}

func toTwips(inches float64) int {
	return int(inches*twipsPerInch + 0.5)
}

func toEMU(inches float64) int64 {
	return int64(inches*emuPerInch + 0.5)
}
