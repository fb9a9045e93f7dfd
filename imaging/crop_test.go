package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"golang.org/x/image/bmp"
)

func TestCrop(t *testing.T) {
	t.Parallel()
	src := encodePNG(t, solid(40, 30))
	tests := []struct {
		name         string
		rect         Rect
		wantW, wantH int
	}{
		{"inside", Rect{X1: 5, Y1: 5, X2: 25, Y2: 15}, 20, 10},
		{"clipped", Rect{X1: 30, Y1: 20, X2: 100, Y2: 100}, 10, 10},
		{"negative origin", Rect{X1: -10, Y1: -10, X2: 5, Y2: 5}, 5, 5},
		{"whole", Rect{X1: 0, Y1: 0, X2: 40, Y2: 30}, 40, 30},
	}
	for _, tc := range tests {
		out, err := Crop(src, tc.rect, 0)
		if err != nil {
			t.Fatalf("%s: Crop: %v", tc.name, err)
		}
		cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
		if err != nil {
			t.Fatalf("%s: decode: %v", tc.name, err)
		}
		if format != "jpeg" || cfg.Width != tc.wantW || cfg.Height != tc.wantH {
			t.Fatalf("%s: got %s %dx%d want jpeg %dx%d", tc.name, format, cfg.Width, cfg.Height, tc.wantW, tc.wantH)
		}
	}
}

func TestCropFlattensTransparency(t *testing.T) {
	t.Parallel()
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.NRGBA{})
		}
	}
	out, err := Crop(encodePNG(t, img), Rect{X2: 8, Y2: 8}, 95)
	if err != nil {
		t.Fatalf("Crop: %v", err)
	}
	dec, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	r, g, b, _ := dec.At(4, 4).RGBA()
	if r>>8 < 240 || g>>8 < 240 || b>>8 < 240 {
		t.Fatalf("expected white background, got %d,%d,%d", r>>8, g>>8, b>>8)
	}
}

func TestCropBMPInput(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, solid(10, 10)); err != nil {
		t.Fatalf("encode bmp: %v", err)
	}
	out, err := Crop(buf.Bytes(), Rect{X1: 2, Y1: 2, X2: 6, Y2: 8}, DefaultJPEGQuality)
	if err != nil {
		t.Fatalf("Crop: %v", err)
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(out))
	if err != nil || cfg.Width != 4 || cfg.Height != 6 {
		t.Fatalf("unexpected output %+v, %v", cfg, err)
	}
}

func TestCropErrors(t *testing.T) {
	t.Parallel()
	src := encodePNG(t, solid(10, 10))
	if _, err := Crop(nil, Rect{X2: 1, Y2: 1}, 0); !errors.Is(err, ErrEmptyImage) {
		t.Fatalf("expected ErrEmptyImage, got %v", err)
	}
	for _, r := range []Rect{
		{X1: 5, Y1: 0, X2: 5, Y2: 10},
		{X1: 0, Y1: 9, X2: 10, Y2: 3},
		{X1: 20, Y1: 20, X2: 30, Y2: 30},
	} {
		if _, err := Crop(src, r, 0); !errors.Is(err, ErrEmptyCrop) {
			t.Fatalf("%s: expected ErrEmptyCrop, got %v", r, err)
		}
	}
	if _, err := Crop([]byte("garbage"), Rect{X2: 1, Y2: 1}, 0); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestToPNG(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, solid(3, 2)); err != nil {
		t.Fatalf("encode bmp: %v", err)
	}
	out, err := ToPNG(buf.Bytes())
	if err != nil {
		t.Fatalf("ToPNG: %v", err)
	}
	info, err := Inspect(out)
	if err != nil || info.Format != "png" || info.Width != 3 || info.Height != 2 {
		t.Fatalf("unexpected png %+v, %v", info, err)
	}
}
