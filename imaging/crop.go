package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
)

// DefaultJPEGQuality is used by Crop when no quality is given.
const DefaultJPEGQuality = 90

// ErrEmptyCrop reports a rectangle that selects no pixels.
var ErrEmptyCrop = errors.New("crop rectangle is empty")

// Rect is a pixel rectangle with an inclusive top-left corner (X1,Y1) and
// an exclusive bottom-right corner (X2,Y2), relative to the image origin.
type Rect struct {
	X1, Y1, X2, Y2 int
}

func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d)-(%d,%d)", r.X1, r.Y1, r.X2, r.Y2)
}

// Crop decodes data, cuts out rect (clipped to the image bounds) and
// encodes the result as JPEG. Transparent pixels are flattened onto white.
// A quality <= 0 selects DefaultJPEGQuality.
func Crop(data []byte, rect Rect, quality int) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("crop: %w", ErrEmptyImage)
	}
	if rect.X2 <= rect.X1 || rect.Y2 <= rect.Y1 {
		return nil, fmt.Errorf("crop %s: %w", rect, ErrEmptyCrop)
	}
	if quality <= 0 {
		quality = DefaultJPEGQuality
	}
	if quality > 100 {
		quality = 100
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("crop: decode: %w", err)
	}
	bounds := src.Bounds()
	r := image.Rect(rect.X1, rect.Y1, rect.X2, rect.Y2).Add(bounds.Min).Intersect(bounds)
	if r.Empty() {
		return nil, fmt.Errorf("crop %s: %w", rect, ErrEmptyCrop)
	}
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, r.Min, draw.Over)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("crop: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// ToPNG re-encodes any decodable image as PNG.
func ToPNG(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("to png: decode: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		return nil, fmt.Errorf("to png: encode: %w", err)
	}
	return buf.Bytes(), nil
}
