// Package swatch samples the color of a photographed paint swatch.
package swatch

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/disintegration/imaging"

	"chromastudio/internal/colormath"
)

// ErrEmptyImage is returned for images with no pixels.
var ErrEmptyImage = errors.New("swatch: image has no pixels")

// AverageColor decodes an image and returns its mean color.
func AverageColor(r io.Reader) (colormath.RGB, error) {
	return CenterColor(r, 1)
}

// CenterColor averages only the centered region covering fraction of each
// dimension, which keeps card edges and shadows out of the sample. fraction
// is clamped to (0, 1].
func CenterColor(r io.Reader, fraction float64) (colormath.RGB, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return colormath.RGB{}, fmt.Errorf("decode swatch image: %w", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return colormath.RGB{}, ErrEmptyImage
	}

	if fraction > 0 && fraction < 1 {
		w := max(1, int(float64(bounds.Dx())*fraction))
		h := max(1, int(float64(bounds.Dy())*fraction))
		img = imaging.CropCenter(img, w, h)
	}
	return average(img), nil
}

func average(img image.Image) colormath.RGB {
	pixel := imaging.Resize(img, 1, 1, imaging.Box)
	return colormath.RGB{R: int(pixel.Pix[0]), G: int(pixel.Pix[1]), B: int(pixel.Pix[2])}
}
