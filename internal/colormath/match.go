package colormath

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Candidate is a named reference color, such as a Pantone swatch.
type Candidate struct {
	Code string `json:"code"`
	Name string `json:"name"`
	RGB  RGB    `json:"rgb"`
}

// Match is a candidate together with its distance from the query color.
type Match struct {
	Candidate
	Distance float64 `json:"distance"`
}

// FindClosest returns the candidate nearest to target by Euclidean RGB
// distance. Candidates with invalid channels are skipped.
func FindClosest(target RGB, candidates []Candidate) (Match, bool) {
	matches := FindClosestN(target, candidates, 1)
	if len(matches) == 0 {
		return Match{}, false
	}
	return matches[0], true
}

// FindClosestN returns up to n candidates ordered by ascending Euclidean RGB
// distance; equal distances are ordered by code.
func FindClosestN(target RGB, candidates []Candidate, n int) []Match {
	if !target.Valid() {
		return nil
	}
	query := rgbVector(target)
	return rank(candidates, n, func(c Candidate) float64 {
		return floats.Distance(query, rgbVector(c.RGB), 2)
	})
}

// RankByDeltaE orders candidates by CIEDE2000 difference from target, which
// tracks perceived similarity better than RGB distance.
func RankByDeltaE(target RGB, candidates []Candidate, n int) []Match {
	query, ok := RGBToLab(target)
	if !ok {
		return nil
	}
	return rank(candidates, n, func(c Candidate) float64 {
		lab, ok := RGBToLab(c.RGB)
		if !ok {
			return math.Inf(1)
		}
		return DeltaE2000(query, lab, Weights2000{})
	})
}

func rank(candidates []Candidate, n int, distance func(Candidate) float64) []Match {
	if n <= 0 {
		return nil
	}
	matches := make([]Match, 0, len(candidates))
	for _, c := range candidates {
		if !c.RGB.Valid() {
			continue
		}
		d := distance(c)
		if math.IsInf(d, 0) || math.IsNaN(d) {
			continue
		}
		matches = append(matches, Match{Candidate: c, Distance: d})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Distance != matches[j].Distance {
			return matches[i].Distance < matches[j].Distance
		}
		return matches[i].Code < matches[j].Code
	})
	if len(matches) > n {
		matches = matches[:n]
	}
	return matches
}

func rgbVector(c RGB) []float64 {
	return []float64{float64(c.R), float64(c.G), float64(c.B)}
}
