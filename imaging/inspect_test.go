package imaging

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"math"
	"testing"

	"golang.org/x/image/bmp"
)

func solid(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: 10, G: 120, B: 200, A: 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// withPHYs inserts a pHYs chunk after IHDR.
func withPHYs(data []byte, ppm uint32, unit byte) []byte {
	body := []byte("pHYs")
	body = binary.BigEndian.AppendUint32(body, ppm)
	body = binary.BigEndian.AppendUint32(body, ppm)
	body = append(body, unit)
	chunk := binary.BigEndian.AppendUint32(nil, 9)
	chunk = append(chunk, body...)
	chunk = binary.BigEndian.AppendUint32(chunk, crc32.ChecksumIEEE(body))
	out := append([]byte{}, data[:33]...)
	out = append(out, chunk...)
	return append(out, data[33:]...)
}

// withJFIF inserts a JFIF APP0 segment after SOI.
func withJFIF(data []byte, units byte, x, y uint16) []byte {
	seg := []byte{0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, 0x01, 0x01, units}
	seg = binary.BigEndian.AppendUint16(seg, x)
	seg = binary.BigEndian.AppendUint16(seg, y)
	seg = append(seg, 0x00, 0x00)
	out := append([]byte{}, data[:2]...)
	out = append(out, seg...)
	return append(out, data[2:]...)
}

func near(a, b float64) bool { return math.Abs(a-b) < 0.01 }

func TestInspectFormats(t *testing.T) {
	t.Parallel()
	img := solid(7, 5)
	var jpg, gf, bm bytes.Buffer
	if err := jpeg.Encode(&jpg, img, nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	if err := gif.Encode(&gf, img, nil); err != nil {
		t.Fatalf("encode gif: %v", err)
	}
	if err := bmp.Encode(&bm, img); err != nil {
		t.Fatalf("encode bmp: %v", err)
	}
	tests := []struct {
		name   string
		data   []byte
		format string
	}{
		{"png", encodePNG(t, img), "png"},
		{"jpeg", jpg.Bytes(), "jpeg"},
		{"gif", gf.Bytes(), "gif"},
		{"bmp", bm.Bytes(), "bmp"},
	}
	for _, tc := range tests {
		info, err := Inspect(tc.data)
		if err != nil {
			t.Fatalf("%s: Inspect: %v", tc.name, err)
		}
		if info.Format != tc.format || info.Width != 7 || info.Height != 5 {
			t.Fatalf("%s: unexpected info %+v", tc.name, info)
		}
	}
}

func TestInspectPNGResolution(t *testing.T) {
	t.Parallel()
	base := encodePNG(t, solid(4, 4))
	info, err := Inspect(base)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if info.DPIX != 0 || info.EffectiveDPI() != DefaultDPI {
		t.Fatalf("expected no recorded resolution, got %+v", info)
	}

	info, err = Inspect(withPHYs(base, 11811, 1))
	if err != nil {
		t.Fatalf("Inspect pHYs: %v", err)
	}
	if !near(info.DPIX, 300) || !near(info.DPIY, 300) || !near(info.EffectiveDPI(), 300) {
		t.Fatalf("expected 300 dpi, got %+v", info)
	}

	info, _ = Inspect(withPHYs(base, 11811, 0))
	if info.DPIX != 0 {
		t.Fatalf("unknown unit must not yield a resolution, got %v", info.DPIX)
	}
}

func TestInspectJPEGResolution(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, solid(4, 4), nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	tests := []struct {
		units byte
		x     uint16
		want  float64
	}{
		{1, 200, 200},
		{2, 100, 254},
		{0, 1, 0},
	}
	for _, tc := range tests {
		info, err := Inspect(withJFIF(buf.Bytes(), tc.units, tc.x, tc.x))
		if err != nil {
			t.Fatalf("units %d: Inspect: %v", tc.units, err)
		}
		if !near(info.DPIX, tc.want) {
			t.Fatalf("units %d: dpi %v want %v", tc.units, info.DPIX, tc.want)
		}
	}
}

func TestInspectBMPResolution(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, solid(3, 3)); err != nil {
		t.Fatalf("encode bmp: %v", err)
	}
	data := buf.Bytes()
	binary.LittleEndian.PutUint32(data[38:42], 5906)
	binary.LittleEndian.PutUint32(data[42:46], 5906)
	info, err := Inspect(data)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if !near(info.DPIX, 150.01) {
		t.Fatalf("expected ~150 dpi, got %v", info.DPIX)
	}
}

func TestInspectErrors(t *testing.T) {
	t.Parallel()
	if _, err := Inspect(nil); !errors.Is(err, ErrEmptyImage) {
		t.Fatalf("expected ErrEmptyImage, got %v", err)
	}
	if _, err := Inspect([]byte("definitely not an image")); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestExtensionAndContentType(t *testing.T) {
	t.Parallel()
	cases := []struct {
		format, ext, ct string
	}{
		{"jpeg", "jpeg", "image/jpeg"},
		{"png", "png", "image/png"},
		{"webp", "webp", "image/webp"},
		{"weird", "bin", "application/octet-stream"},
	}
	for _, tc := range cases {
		if got := Extension(tc.format); got != tc.ext {
			t.Fatalf("Extension(%q)=%q want %q", tc.format, got, tc.ext)
		}
		if got := ContentType(tc.format); got != tc.ct {
			t.Fatalf("ContentType(%q)=%q want %q", tc.format, got, tc.ct)
		}
	}
}
