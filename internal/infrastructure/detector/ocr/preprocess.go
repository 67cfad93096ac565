package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"golang.org/x/image/draw"
)

const (
	// Pixel values below this become black, the rest white.
	binarizeThreshold = 140

	upscaleFactor = 2
)

// preprocess prepares a page render for recognition: grayscale, hard
// binarization, then an upscale so small glyphs survive. Returns PNG bytes.
func preprocess(src image.Image) ([]byte, error) {
	if src == nil {
		return nil, fmt.Errorf("no page image")
	}
	bounds := src.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, fmt.Errorf("empty page image")
	}

	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			level := color.GrayModel.Convert(src.At(x, y)).(color.Gray).Y
			if level < binarizeThreshold {
				gray.SetGray(x, y, color.Gray{Y: 0})
			} else {
				gray.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}

	scaled := image.NewGray(image.Rect(0, 0, bounds.Dx()*upscaleFactor, bounds.Dy()*upscaleFactor))
	draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), gray, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
