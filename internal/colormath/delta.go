package colormath

import "math"

// Weights94 parameterises CIE94. The zero value selects the graphic-arts
// defaults.
type Weights94 struct {
	KL, KC, KH float64
	K1, K2     float64
}

// DefaultWeights94 are the graphic-arts CIE94 weights.
var DefaultWeights94 = Weights94{KL: 1, KC: 1, KH: 1, K1: 0.045, K2: 0.015}

// Weights2000 holds the CIEDE2000 parametric factors. The zero value means
// kL = kC = kH = 1.
type Weights2000 struct {
	KL, KC, KH float64
}

var defaultWeights2000 = Weights2000{KL: 1, KC: 1, KH: 1}

var pow25To7 = math.Pow(25, 7)

// DeltaE76 is the Euclidean distance in LAB space.
func DeltaE76(a, b Lab) float64 {
	if !a.finite() || !b.finite() {
		return math.Inf(1)
	}
	return math.Sqrt(sq(a.L-b.L) + sq(a.A-b.A) + sq(a.B-b.B))
}

// DeltaE94 is a symmetric variant of CIE94. The published formula weights
// chroma by the reference color's chroma alone; here SC and SH use the
// geometric mean of both chromas so the result does not depend on argument
// order. Values therefore differ slightly from published CIE94 tables (about
// 1% on near-neutral pairs); use DeltaE94Reference to reproduce them.
func DeltaE94(a, b Lab, w Weights94) float64 {
	if !a.finite() || !b.finite() {
		return math.Inf(1)
	}
	c1 := math.Hypot(a.A, a.B)
	c2 := math.Hypot(b.A, b.B)
	return deltaE94(a, b, w, math.Sqrt(c1*c2))
}

// DeltaE94Reference is CIE94 exactly as published, treating ref as the
// reference color whose chroma drives SC and SH. It is not symmetric.
func DeltaE94Reference(ref, sample Lab, w Weights94) float64 {
	if !ref.finite() || !sample.finite() {
		return math.Inf(1)
	}
	return deltaE94(ref, sample, w, math.Hypot(ref.A, ref.B))
}

func deltaE94(a, b Lab, w Weights94, weightChroma float64) float64 {
	if w == (Weights94{}) {
		w = DefaultWeights94
	}
	c1 := math.Hypot(a.A, a.B)
	c2 := math.Hypot(b.A, b.B)
	dL := a.L - b.L
	dC := c1 - c2
	dH2 := math.Max(0, sq(a.A-b.A)+sq(a.B-b.B)-sq(dC))

	sc := 1 + w.K1*weightChroma
	sh := 1 + w.K2*weightChroma
	return math.Sqrt(sq(dL/w.KL) + sq(dC/(w.KC*sc)) + dH2/sq(w.KH*sh))
}

// DeltaE2000 is the CIEDE2000 color difference as published by Sharma, Wu
// and Dalal.
func DeltaE2000(a, b Lab, w Weights2000) float64 {
	if !a.finite() || !b.finite() {
		return math.Inf(1)
	}
	if w == (Weights2000{}) {
		w = defaultWeights2000
	}

	c1 := math.Hypot(a.A, a.B)
	c2 := math.Hypot(b.A, b.B)
	cBar7 := math.Pow((c1+c2)/2, 7)
	g := 0.5 * (1 - math.Sqrt(cBar7/(cBar7+pow25To7)))

	a1 := (1 + g) * a.A
	a2 := (1 + g) * b.A
	c1p := math.Hypot(a1, a.B)
	c2p := math.Hypot(a2, b.B)
	h1p := hueAngle(a.B, a1)
	h2p := hueAngle(b.B, a2)

	dLp := b.L - a.L
	dCp := c2p - c1p

	dhp := 0.0
	if c1p*c2p != 0 {
		dhp = h2p - h1p
		switch {
		case dhp > 180:
			dhp -= 360
		case dhp < -180:
			dhp += 360
		}
	}
	dHp := 2 * math.Sqrt(c1p*c2p) * math.Sin(radians(dhp/2))

	lBarP := (a.L + b.L) / 2
	cBarP := (c1p + c2p) / 2

	var hBarP float64
	switch {
	case c1p*c2p == 0:
		hBarP = h1p + h2p
	case math.Abs(h1p-h2p) <= 180:
		hBarP = (h1p + h2p) / 2
	case h1p+h2p < 360:
		hBarP = (h1p + h2p + 360) / 2
	default:
		hBarP = (h1p + h2p - 360) / 2
	}

	t := 1 -
		0.17*math.Cos(radians(hBarP-30)) +
		0.24*math.Cos(radians(2*hBarP)) +
		0.32*math.Cos(radians(3*hBarP+6)) -
		0.20*math.Cos(radians(4*hBarP-63))

	dTheta := 30 * math.Exp(-sq((hBarP-275)/25))
	cBarP7 := math.Pow(cBarP, 7)
	rc := 2 * math.Sqrt(cBarP7/(cBarP7+pow25To7))

	lShift := sq(lBarP - 50)
	sl := 1 + 0.015*lShift/math.Sqrt(20+lShift)
	sc := 1 + 0.045*cBarP
	sh := 1 + 0.015*cBarP*t
	rt := -math.Sin(radians(2*dTheta)) * rc

	l := dLp / (w.KL * sl)
	c := dCp / (w.KC * sc)
	h := dHp / (w.KH * sh)
	return math.Sqrt(l*l + c*c + h*h + rt*c*h)
}

func hueAngle(b, a float64) float64 {
	if a == 0 && b == 0 {
		return 0
	}
	h := math.Atan2(b, a) * 180 / math.Pi
	if h < 0 {
		h += 360
	}
	return h
}

func (c Lab) finite() bool {
	for _, v := range []float64{c.L, c.A, c.B} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

func sq(v float64) float64 {
	return v * v
}
