package imaging

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DefaultDPI is assumed when an image carries no usable resolution.
const DefaultDPI = 96.0

// ErrEmptyImage reports a zero-length payload.
var ErrEmptyImage = errors.New("empty image data")

// Info describes an image without its pixel data.
type Info struct {
	Format string
	Width  int
	Height int
	// DPIX and DPIY are zero when the file does not record a resolution.
	DPIX float64
	DPIY float64
}

// EffectiveDPI returns the horizontal resolution, or DefaultDPI when the
// image does not specify one.
func (i Info) EffectiveDPI() float64 {
	if i.DPIX > 0 {
		return i.DPIX
	}
	return DefaultDPI
}

// Inspect decodes the image header in data.
func Inspect(data []byte) (Info, error) {
	if len(data) == 0 {
		return Info{}, ErrEmptyImage
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Info{}, fmt.Errorf("inspect: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Info{}, fmt.Errorf("inspect: invalid dimensions %dx%d", cfg.Width, cfg.Height)
	}
	info := Info{Format: format, Width: cfg.Width, Height: cfg.Height}
	switch format {
	case "png":
		info.DPIX, info.DPIY = pngDPI(data)
	case "jpeg":
		info.DPIX, info.DPIY = jfifDPI(data)
	case "bmp":
		info.DPIX, info.DPIY = bmpDPI(data)
	}
	return info, nil
}

const (
	pngSignature   = "\x89PNG\r\n\x1a\n"
	metersPerInch  = 0.0254
	cmPerInch      = 2.54
	jfifIdentifier = "JFIF\x00"
)

// pngDPI reads the pHYs chunk. Only the metre unit carries a resolution.
func pngDPI(data []byte) (float64, float64) {
	if len(data) < len(pngSignature) || string(data[:len(pngSignature)]) != pngSignature {
		return 0, 0
	}
	i := len(pngSignature)
	for i+8 <= len(data) {
		length := int(binary.BigEndian.Uint32(data[i : i+4]))
		kind := string(data[i+4 : i+8])
		start := i + 8
		end := start + length
		if end+4 > len(data) {
			return 0, 0
		}
		switch kind {
		case "pHYs":
			if length < 9 || data[start+8] != 1 {
				return 0, 0
			}
			x := float64(binary.BigEndian.Uint32(data[start : start+4]))
			y := float64(binary.BigEndian.Uint32(data[start+4 : start+8]))
			return x * metersPerInch, y * metersPerInch
		case "IDAT", "IEND":
			return 0, 0
		}
		i = end + 4
	}
	return 0, 0
}

// jfifDPI reads the density fields of the JFIF APP0 segment.
func jfifDPI(data []byte) (float64, float64) {
	if len(data) < 4 || data[0] != 0xFF || data[1] != 0xD8 {
		return 0, 0
	}
	i := 2
	for i+4 <= len(data) {
		if data[i] != 0xFF {
			return 0, 0
		}
		marker := data[i+1]
		if marker == 0xD8 || (marker >= 0xD0 && marker <= 0xD7) || marker == 0x01 {
			i += 2
			continue
		}
		if marker == 0xDA || marker == 0xD9 {
			return 0, 0
		}
		length := int(binary.BigEndian.Uint16(data[i+2 : i+4]))
		start := i + 4
		end := i + 2 + length
		if length < 2 || end > len(data) {
			return 0, 0
		}
		if marker == 0xE0 && end-start >= 12 && string(data[start:start+5]) == jfifIdentifier {
			units := data[start+7]
			x := float64(binary.BigEndian.Uint16(data[start+8 : start+10]))
			y := float64(binary.BigEndian.Uint16(data[start+10 : start+12]))
			switch units {
			case 1:
				return x, y
			case 2:
				return x * cmPerInch, y * cmPerInch
			}
			return 0, 0
		}
		i = end
	}
	return 0, 0
}

// bmpDPI reads the pixels-per-metre fields of a BITMAPINFOHEADER.
func bmpDPI(data []byte) (float64, float64) {
	if len(data) < 46 || data[0] != 'B' || data[1] != 'M' {
		return 0, 0
	}
	if binary.LittleEndian.Uint32(data[14:18]) < 40 {
		return 0, 0
	}
	x := float64(int32(binary.LittleEndian.Uint32(data[38:42])))
	y := float64(int32(binary.LittleEndian.Uint32(data[42:46])))
	if x <= 0 || y <= 0 {
		return 0, 0
	}
	return x * metersPerInch, y * metersPerInch
}

// Extension returns the conventional file extension for a decoded format.
func Extension(format string) string {
	switch format {
	case "jpeg":
		return "jpeg"
	case "png", "gif", "bmp", "tiff", "webp":
		return format
	default:
		return "bin"
	}
}

// ContentType returns the MIME type for a decoded format.
func ContentType(format string) string {
	switch format {
	case "jpeg":
		return "image/jpeg"
	case "png", "gif", "bmp", "tiff", "webp":
		return "image/" + format
	default:
		return "application/octet-stream"
	}
}
