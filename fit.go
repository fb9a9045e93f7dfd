package mddocx

import "pkt.systems/mddocx/imaging"

// Placement is the size at which an image is embedded, in the same length
// unit as the usable width passed to FitImage (inches for docx).
type Placement struct {
	Width  float64
	Height float64
	Scale  float64
	// Fallback is set when the image could not be decoded and was placed at
	// the full usable width without aspect correction.
	Fallback bool
	Info     imaging.Info
}

// FitWidth returns the placement width of an image widthPx pixels wide at
// dpi, shrunk to usableWidth when larger. Images are never enlarged. A dpi
// <= 0 means imaging.DefaultDPI.
func FitWidth(widthPx int, dpi, usableWidth float64) float64 {
	w, _ := fitScale(widthPx, dpi, usableWidth)
	return w
}

func fitScale(widthPx int, dpi, usableWidth float64) (width, scale float64) {
	if dpi <= 0 {
		dpi = imaging.DefaultDPI
	}
	natural := float64(widthPx) / dpi
	scale = 1.0
	if natural > usableWidth {
		scale = usableWidth / natural
	}
	return natural * scale, scale
}

// FitImage sizes raw image bytes for a page whose usable width is
// usableWidth. Undecodable images degrade to a usableWidth square.
func FitImage(data []byte, usableWidth float64) Placement {
	info, err := imaging.Inspect(data)
	if err != nil {
		return Placement{Width: usableWidth, Height: usableWidth, Scale: 1, Fallback: true}
	}
	width, scale := fitScale(info.Width, info.EffectiveDPI(), usableWidth)
	return Placement{
		Width:  width,
		Height: width * float64(info.Height) / float64(info.Width),
		Scale:  scale,
		Info:   info,
	}
}
