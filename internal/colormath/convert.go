// Package colormath converts between RGB, HEX, CMYK, HSL and CIE LAB and
// measures perceptual distance between colors. Conversions report invalid
// or out-of-range input through a boolean instead of an error.
package colormath

import (
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// RGB is an sRGB color with integer channels in [0, 255].
type RGB struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// CMYK channels are percentages in [0, 100], kept to one decimal place.
type CMYK struct {
	C float64 `json:"c"`
	M float64 `json:"m"`
	Y float64 `json:"y"`
	K float64 `json:"k"`
}

// HSL holds hue in degrees [0, 360] and saturation/lightness in [0, 100].
type HSL struct {
	H float64 `json:"h"`
	S float64 `json:"s"`
	L float64 `json:"l"`
}

// Lab is a CIE L*a*b* color relative to the D65 white point.
type Lab struct {
	L float64 `json:"l"`
	A float64 `json:"a"`
	B float64 `json:"b"`
}

// WhiteD65 is the reference white used for XYZ normalisation.
var WhiteD65 = [3]float64{95.047, 100.0, 108.883}

const (
	labEpsilon = 0.008856
	labKappa   = 7.787
	// slack for float error at the black and white points
	labSlack = 1e-9
)

// Valid reports whether every channel is within [0, 255].
func (c RGB) Valid() bool {
	return inRange(float64(c.R), 0, 255) && inRange(float64(c.G), 0, 255) && inRange(float64(c.B), 0, 255)
}

func (c RGB) colorful() colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}

func fromColorful(c colorful.Color) RGB {
	return RGB{R: channel(c.R), G: channel(c.G), B: channel(c.B)}
}

// RGBToHex renders c as lowercase "#rrggbb".
func RGBToHex(c RGB) (string, bool) {
	if !c.Valid() {
		return "", false
	}
	return c.colorful().Hex(), true
}

// HexToRGB parses "#rgb" or "#rrggbb"; the leading '#' is optional.
func HexToRGB(hex string) (RGB, bool) {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) != 3 && len(hex) != 6 {
		return RGB{}, false
	}
	for _, r := range hex {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return RGB{}, false
		}
	}
	parsed, err := colorful.Hex("#" + strings.ToLower(hex))
	if err != nil {
		return RGB{}, false
	}
	return fromColorful(parsed), true
}

// RGBToCMYK converts to CMYK percentages rounded to one decimal.
func RGBToCMYK(c RGB) (CMYK, bool) {
	if !c.Valid() {
		return CMYK{}, false
	}
	r, g, b := float64(c.R)/255, float64(c.G)/255, float64(c.B)/255
	k := 1 - math.Max(r, math.Max(g, b))
	if k >= 1 {
		return CMYK{K: 100}, true
	}
	return CMYK{
		C: percent((1 - r - k) / (1 - k)),
		M: percent((1 - g - k) / (1 - k)),
		Y: percent((1 - b - k) / (1 - k)),
		K: percent(k),
	}, true
}

// CMYKToRGB converts CMYK percentages back to RGB.
func CMYKToRGB(c CMYK) (RGB, bool) {
	for _, v := range []float64{c.C, c.M, c.Y, c.K} {
		if !inRange(v, 0, 100) {
			return RGB{}, false
		}
	}
	k := 1 - c.K/100
	return RGB{
		R: int(math.Round(255 * (1 - c.C/100) * k)),
		G: int(math.Round(255 * (1 - c.M/100) * k)),
		B: int(math.Round(255 * (1 - c.Y/100) * k)),
	}, true
}

// RGBToHSL converts to integer hue, saturation and lightness.
func RGBToHSL(c RGB) (HSL, bool) {
	if !c.Valid() {
		return HSL{}, false
	}
	h, s, l := c.colorful().Hsl()
	hue := math.Round(h)
	if hue >= 360 {
		hue = 0
	}
	return HSL{H: hue, S: math.Round(s * 100), L: math.Round(l * 100)}, true
}

// HSLToRGB converts HSL back to RGB.
func HSLToRGB(c HSL) (RGB, bool) {
	if !inRange(c.H, 0, 360) || !inRange(c.S, 0, 100) || !inRange(c.L, 0, 100) {
		return RGB{}, false
	}
	return fromColorful(colorful.Hsl(math.Mod(c.H, 360), c.S/100, c.L/100)), true
}

// RGBToLab converts through linear sRGB and XYZ to CIE LAB (D65).
func RGBToLab(c RGB) (Lab, bool) {
	if !c.Valid() {
		return Lab{}, false
	}
	r := linearize(float64(c.R)/255) * 100
	g := linearize(float64(c.G)/255) * 100
	b := linearize(float64(c.B)/255) * 100

	x := (r*0.4124 + g*0.3576 + b*0.1805) / WhiteD65[0]
	y := (r*0.2126 + g*0.7152 + b*0.0722) / WhiteD65[1]
	z := (r*0.0193 + g*0.1192 + b*0.9505) / WhiteD65[2]

	fx, fy, fz := labF(x), labF(y), labF(z)
	return Lab{
		L: 116*fy - 16,
		A: 500 * (fx - fy),
		B: 200 * (fy - fz),
	}, true
}

// LabToRGB converts LAB back to RGB. Colors outside the sRGB gamut are
// clipped per channel.
func LabToRGB(c Lab) (RGB, bool) {
	if !inRange(c.L, -labSlack, 100+labSlack) || !inRange(c.A, -128, 128) || !inRange(c.B, -128, 128) {
		return RGB{}, false
	}
	fy := (c.L + 16) / 116
	fx := c.A/500 + fy
	fz := fy - c.B/200

	x := labFInv(fx) * WhiteD65[0] / 100
	y := labFInv(fy) * WhiteD65[1] / 100
	z := labFInv(fz) * WhiteD65[2] / 100

	r := x*3.2406 + y*-1.5372 + z*-0.4986
	g := x*-0.9689 + y*1.8758 + z*0.0415
	b := x*0.0557 + y*-0.2040 + z*1.0570

	return RGB{R: channel(compand(r)), G: channel(compand(g)), B: channel(compand(b))}, true
}

func linearize(v float64) float64 {
	if v > 0.04045 {
		return math.Pow((v+0.055)/1.055, 2.4)
	}
	return v / 12.92
}

func compand(v float64) float64 {
	if v > 0.0031308 {
		return 1.055*math.Pow(v, 1/2.4) - 0.055
	}
	return 12.92 * v
}

func labF(t float64) float64 {
	if t > labEpsilon {
		return math.Cbrt(t)
	}
	return labKappa*t + 16.0/116.0
}

func labFInv(t float64) float64 {
	if cube := t * t * t; cube > labEpsilon {
		return cube
	}
	return (t - 16.0/116.0) / labKappa
}

func percent(v float64) float64 {
	return math.Round(v*1000) / 10
}

func channel(v float64) int {
	return int(math.Round(math.Max(0, math.Min(1, v)) * 255))
}

func inRange(v, lo, hi float64) bool {
	return !math.IsNaN(v) && v >= lo && v <= hi
}
