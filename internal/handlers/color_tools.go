package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"chromastudio/internal/colormath"
	applog "chromastudio/internal/log"
	"chromastudio/internal/swatch"
)

const defaultMatchCount = 5

type colorSummary struct {
	RGB     colormath.RGB    `json:"rgb"`
	Hex     string           `json:"hex"`
	CMYK    colormath.CMYK   `json:"cmyk"`
	HSL     colormath.HSL    `json:"hsl"`
	Lab     colormath.Lab    `json:"lab"`
	Pantone *colormath.Match `json:"pantone,omitempty"`
}

type colorRef struct {
	Hex string         `json:"hex"`
	Lab *colormath.Lab `json:"lab"`
}

type deltaRequest struct {
	A       colorRef `json:"a"`
	B       colorRef `json:"b"`
	Textile bool     `json:"textile"`
}

type deltaResponse struct {
	A      colormath.Lab `json:"a"`
	B      colormath.Lab `json:"b"`
	DE76   float64       `json:"de76"`
	DE94   float64       `json:"de94"`
	DE2000 float64       `json:"de2000"`
}

type matchResponse struct {
	Query   colorSummary      `json:"query"`
	Mode    string            `json:"mode"`
	Matches []colormath.Match `json:"matches"`
}

// ConvertColor converts a color given as one of the query parameters hex,
// rgb, hsl, cmyk or lab (comma separated components) into every space.
func ConvertColor(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	rgb, err := colorFromQuery(r.URL.Query())
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summarize(rgb))
}

// DeltaE reports the CIE76, CIE94 and CIEDE2000 differences between two colors.
func DeltaE(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var payload deltaRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	a, err := payload.A.lab()
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "a: "+err.Error())
		return
	}
	b, err := payload.B.lab()
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "b: "+err.Error())
		return
	}

	weights := colormath.Weights94{}
	if payload.Textile {
		weights = colormath.Weights94{KL: 2, KC: 1, KH: 1, K1: 0.048, K2: 0.014}
	}
	writeJSON(w, http.StatusOK, deltaResponse{
		A:      a,
		B:      b,
		DE76:   colormath.DeltaE76(a, b),
		DE94:   colormath.DeltaE94(a, b, weights),
		DE2000: colormath.DeltaE2000(a, b, colormath.Weights2000{}),
	})
}

// PantoneMatch looks up a swatch by ?code= or ranks the catalog against a
// query color. mode=perceptual ranks by CIEDE2000 instead of RGB distance.
func PantoneMatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if catalog == nil {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	query := r.URL.Query()
	if code := strings.TrimSpace(query.Get("code")); code != "" {
		entry, ok := catalog.Lookup(code)
		if !ok {
			writeJSONError(w, http.StatusNotFound, "unknown pantone code")
			return
		}
		writeJSON(w, http.StatusOK, entry)
		return
	}

	rgb, err := colorFromQuery(query)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	n, err := matchCount(query.Get("n"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rankMatches(rgb, query.Get("mode"), n))
}

// SwatchUpload samples an uploaded photo of a paint swatch and returns its
// average color with the nearest catalog swatches.
func SwatchUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, uploadLimit)
	if err := r.ParseMultipartForm(uploadLimit); err != nil {
		applog.Debug(r.Context(), "failed to parse swatch upload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "upload is too large or invalid")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	fraction := 1.0
	if raw := strings.TrimSpace(r.FormValue("center")); raw != "" {
		fraction, err = strconv.ParseFloat(raw, 64)
		if err != nil || fraction <= 0 || fraction > 1 {
			writeJSONError(w, http.StatusBadRequest, "center must be in (0, 1]")
			return
		}
	}

	rgb, err := swatch.CenterColor(file, fraction)
	if err != nil {
		applog.Debug(r.Context(), "swatch decode failed", "error", err, "file", header.Filename)
		writeJSONError(w, http.StatusUnprocessableEntity, "unable to read image")
		return
	}
	n, err := matchCount(r.FormValue("n"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	applog.Info(r.Context(), "swatch sampled", "file", header.Filename, "r", rgb.R, "g", rgb.G, "b", rgb.B)
	writeJSON(w, http.StatusOK, rankMatches(rgb, r.FormValue("mode"), n))
}

func summarize(rgb colormath.RGB) colorSummary {
	out := colorSummary{RGB: rgb}
	out.Hex, _ = colormath.RGBToHex(rgb)
	out.CMYK, _ = colormath.RGBToCMYK(rgb)
	out.HSL, _ = colormath.RGBToHSL(rgb)
	out.Lab, _ = colormath.RGBToLab(rgb)
	if catalog != nil {
		if match, ok := catalog.Closest(rgb); ok {
			out.Pantone = &match
		}
	}
	return out
}

func rankMatches(rgb colormath.RGB, mode string, n int) matchResponse {
	resp := matchResponse{Query: summarize(rgb), Mode: "rgb"}
	if catalog == nil {
		resp.Matches = []colormath.Match{}
		return resp
	}
	if strings.EqualFold(strings.TrimSpace(mode), "perceptual") {
		resp.Mode = "perceptual"
		resp.Matches = catalog.Similar(rgb, n)
	} else {
		resp.Matches = catalog.ClosestN(rgb, n)
	}
	if resp.Matches == nil {
		resp.Matches = []colormath.Match{}
	}
	return resp
}

func matchCount(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return defaultMatchCount, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > 50 {
		return 0, errors.New("n must be between 1 and 50")
	}
	return n, nil
}

func colorFromQuery(query url.Values) (colormath.RGB, error) {
	switch {
	case query.Get("hex") != "":
		rgb, ok := colormath.HexToRGB(query.Get("hex"))
		if !ok {
			return rgb, errors.New("hex must be #rgb or #rrggbb")
		}
		return rgb, nil
	case query.Get("rgb") != "":
		v, err := components(query.Get("rgb"), 3)
		if err != nil {
			return colormath.RGB{}, err
		}
		rgb := colormath.RGB{R: int(v[0]), G: int(v[1]), B: int(v[2])}
		if !rgb.Valid() || v[0] != float64(rgb.R) || v[1] != float64(rgb.G) || v[2] != float64(rgb.B) {
			return rgb, errors.New("rgb channels must be integers in [0, 255]")
		}
		return rgb, nil
	case query.Get("hsl") != "":
		v, err := components(query.Get("hsl"), 3)
		if err != nil {
			return colormath.RGB{}, err
		}
		return convertOK(colormath.HSLToRGB(colormath.HSL{H: v[0], S: v[1], L: v[2]}))
	case query.Get("cmyk") != "":
		v, err := components(query.Get("cmyk"), 4)
		if err != nil {
			return colormath.RGB{}, err
		}
		return convertOK(colormath.CMYKToRGB(colormath.CMYK{C: v[0], M: v[1], Y: v[2], K: v[3]}))
	case query.Get("lab") != "":
		v, err := components(query.Get("lab"), 3)
		if err != nil {
			return colormath.RGB{}, err
		}
		return convertOK(colormath.LabToRGB(colormath.Lab{L: v[0], A: v[1], B: v[2]}))
	}
	return colormath.RGB{}, errors.New("provide one of hex, rgb, hsl, cmyk or lab")
}

func convertOK(rgb colormath.RGB, ok bool) (colormath.RGB, error) {
	if !ok {
		return rgb, errors.New("color components are out of range")
	}
	return rgb, nil
}

func components(raw string, want int) ([]float64, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != want {
		return nil, fmt.Errorf("expected %d comma separated components", want)
	}
	out := make([]float64, want)
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("component %d is not a number", i+1)
		}
		out[i] = v
	}
	return out, nil
}

func (c colorRef) lab() (colormath.Lab, error) {
	if c.Lab != nil {
		if _, ok := colormath.LabToRGB(*c.Lab); !ok {
			return colormath.Lab{}, errors.New("lab components are out of range")
		}
		return *c.Lab, nil
	}
	rgb, ok := colormath.HexToRGB(c.Hex)
	if !ok {
		return colormath.Lab{}, errors.New("hex must be #rgb or #rrggbb")
	}
	lab, _ := colormath.RGBToLab(rgb)
	return lab, nil
}
