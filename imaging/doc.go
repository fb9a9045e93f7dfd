// Package imaging inspects and crops raster images for document embedding.
//
// Inspect reports pixel dimensions, format and resolution without decoding
// pixel data. Resolution comes from the PNG pHYs chunk, the JPEG JFIF header
// or the BMP header; formats without one report zero DPI and callers fall
// back to DefaultDPI.
//
// Crop decodes an image, cuts out a pixel rectangle and re-encodes it as
// JPEG:
//
//	out, err := imaging.Crop(data, imaging.Rect{X1: 10, Y1: 10, X2: 210, Y2: 110}, 0)
//
// PNG, JPEG and GIF are decoded by the standard library; BMP, TIFF and WebP
// through golang.org/x/image.
package imaging
