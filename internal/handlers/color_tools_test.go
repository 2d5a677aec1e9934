package handlers

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"chromastudio/internal/colormath"
)

func TestConvertColor(t *testing.T) {
	withTestStudio(t)

	tests := []struct {
		name  string
		query string
		want  colormath.RGB
	}{
		{name: "hex", query: "hex=%23c8102e", want: colormath.RGB{R: 200, G: 16, B: 46}},
		{name: "rgb", query: "rgb=0,51,160", want: colormath.RGB{R: 0, G: 51, B: 160}},
		{name: "hsl", query: "hsl=0,100,50", want: colormath.RGB{R: 255}},
		{name: "cmyk", query: "cmyk=0,0,0,100", want: colormath.RGB{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, ConvertColor, http.MethodGet, "/app/api/color/convert?"+tt.query, nil)
			if w.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
			}
			got := decodeBody[colorSummary](t, w)
			if got.RGB != tt.want {
				t.Fatalf("rgb = %+v, want %+v", got.RGB, tt.want)
			}
			if got.Pantone == nil {
				t.Fatal("expected a closest pantone swatch")
			}
		})
	}

	exact := decodeBody[colorSummary](t, doJSON(t, ConvertColor, http.MethodGet, "/app/api/color/convert?hex=C8102E", nil))
	if exact.Hex != "#c8102e" || exact.Pantone.Code != "PANTONE 186 C" || exact.Pantone.Distance != 0 {
		t.Fatalf("unexpected summary for PANTONE 186 C: %+v", exact)
	}

	for _, bad := range []string{"", "hex=zz", "rgb=1,2", "rgb=1.5,2,3", "rgb=256,0,0", "lab=120,0,0"} {
		if w := doJSON(t, ConvertColor, http.MethodGet, "/app/api/color/convert?"+bad, nil); w.Code != http.StatusBadRequest {
			t.Fatalf("%q: expected status 400, got %d", bad, w.Code)
		}
	}
}

func TestDeltaE(t *testing.T) {
	withTestStudio(t)

	w := doJSON(t, DeltaE, http.MethodPost, "/app/api/color/delta", map[string]any{
		"a": map[string]any{"lab": map[string]float64{"l": 50, "a": 2.6772, "b": -79.7751}},
		"b": map[string]any{"lab": map[string]float64{"l": 50, "a": 0, "b": -82.7485}},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	got := decodeBody[deltaResponse](t, w)
	if got.DE2000 < 2.0424 || got.DE2000 > 2.0426 {
		t.Fatalf("de2000 = %v, want about 2.0425", got.DE2000)
	}

	same := decodeBody[deltaResponse](t, doJSON(t, DeltaE, http.MethodPost, "/app/api/color/delta", map[string]any{
		"a": map[string]any{"hex": "#336699"},
		"b": map[string]any{"hex": "#369"},
	}))
	if same.DE76 != 0 || same.DE94 != 0 || same.DE2000 != 0 {
		t.Fatalf("expected identical colors to have zero difference, got %+v", same)
	}

	if w := doJSON(t, DeltaE, http.MethodPost, "/app/api/color/delta", map[string]any{"a": map[string]any{"hex": "#12"}, "b": map[string]any{"hex": "#000"}}); w.Code != http.StatusBadRequest {
		t.Fatalf("expected invalid hex to 400, got %d", w.Code)
	}
}

func TestPantoneMatch(t *testing.T) {
	withTestStudio(t)

	w := doJSON(t, PantoneMatch, http.MethodGet, "/app/api/color/pantone?hex=%23C8102E&n=3", nil)
	resp := decodeBody[matchResponse](t, w)
	if len(resp.Matches) != 3 || resp.Matches[0].Code != "PANTONE 186 C" || resp.Mode != "rgb" {
		t.Fatalf("unexpected rgb matches: %+v", resp)
	}

	w = doJSON(t, PantoneMatch, http.MethodGet, "/app/api/color/pantone?hex=%230033A0&mode=perceptual&n=1", nil)
	resp = decodeBody[matchResponse](t, w)
	if resp.Mode != "perceptual" || len(resp.Matches) != 1 || resp.Matches[0].Code != "PANTONE 286 C" {
		t.Fatalf("unexpected perceptual matches: %+v", resp)
	}

	if w := doJSON(t, PantoneMatch, http.MethodGet, "/app/api/color/pantone?code=pantone%20355%20c", nil); w.Code != http.StatusOK {
		t.Fatalf("expected lookup by code to succeed, got %d", w.Code)
	}
	if w := doJSON(t, PantoneMatch, http.MethodGet, "/app/api/color/pantone?code=nope", nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected unknown code to 404, got %d", w.Code)
	}
	if w := doJSON(t, PantoneMatch, http.MethodGet, "/app/api/color/pantone?hex=%23000&n=0", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("expected n=0 to 400, got %d", w.Code)
	}
}

func swatchUpload(t *testing.T, fill color.Color, fields map[string]string) *http.Request {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, fill)
		}
	}
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", "swatch.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if err := png.Encode(part, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/app/api/color/swatch", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestSwatchUpload(t *testing.T) {
	withTestStudio(t)

	w := httptest.NewRecorder()
	SwatchUpload(w, swatchUpload(t, color.RGBA{R: 0, G: 150, B: 57, A: 255}, map[string]string{"n": "2", "center": "0.5"}))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decodeBody[matchResponse](t, w)
	if resp.Query.RGB != (colormath.RGB{R: 0, G: 150, B: 57}) {
		t.Fatalf("sampled %+v, want the fill color", resp.Query.RGB)
	}
	if len(resp.Matches) != 2 || resp.Matches[0].Code != "PANTONE 355 C" {
		t.Fatalf("unexpected matches: %+v", resp.Matches)
	}

	w = httptest.NewRecorder()
	SwatchUpload(w, swatchUpload(t, color.Black, map[string]string{"center": "2"}))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected invalid center to 400, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/app/api/color/swatch", bytes.NewBufferString("nope"))
	req.Header.Set("Content-Type", "text/plain")
	SwatchUpload(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected non-multipart upload to 400, got %d", w.Code)
	}
}
