package cli

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd("test")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestConvert(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		hex  string
	}{
		{name: "hex", args: []string{"convert", "#C8102E"}, hex: "#c8102e"},
		{name: "rgb with commas", args: []string{"convert", "--from", "rgb", "200,16,46"}, hex: "#c8102e"},
		{name: "rgb with spaces", args: []string{"convert", "--from", "rgb", "200", "16", "46"}, hex: "#c8102e"},
		{name: "cmyk", args: []string{"convert", "--from", "cmyk", "0", "0", "0", "100"}, hex: "#000000"},
		{name: "hsl", args: []string{"convert", "--from", "hsl", "240,100,50"}, hex: "#0000ff"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			out, err := execute(t, "", append(tt.args, "--json")...)
			if err != nil {
				t.Fatalf("convert failed: %v", err)
			}
			var got conversion
			if err := json.Unmarshal([]byte(out), &got); err != nil {
				t.Fatalf("decode output: %v\n%s", err, out)
			}
			if got.Hex != tt.hex {
				t.Fatalf("hex = %q, want %q", got.Hex, tt.hex)
			}
			if got.Pantone == nil {
				t.Fatal("expected a Pantone match")
			}
		})
	}
}

func TestConvertPlainOutput(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "", "convert", "#c8102e")
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}
	for _, want := range []string{"#c8102e", "RGB   200, 16, 46", "PANTONE 186 C"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("expected no escape sequences when writing to a buffer:\n%q", out)
	}
}

func TestConvertRejectsBadInput(t *testing.T) {
	t.Parallel()

	cases := [][]string{
		{"convert", "#12345"},
		{"convert", "--from", "rgb", "300,0,0"},
		{"convert", "--from", "rgb", "1.5,0,0"},
		{"convert", "--from", "cmyk", "0,0,0"},
		{"convert", "--from", "lab", "120,0,0"},
		{"convert", "--from", "xyz", "1,2,3"},
		{"convert", "--from", "hsl", "a,b,c"},
	}
	for _, args := range cases {
		if _, err := execute(t, "", args...); err == nil {
			t.Fatalf("expected %v to fail", args)
		}
	}
}

func TestDelta(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "", "delta", "#c8102e", "#c8102e", "--json")
	if err != nil {
		t.Fatalf("delta failed: %v", err)
	}
	var same map[string]float64
	if err := json.Unmarshal([]byte(out), &same); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(map[string]float64{"de76": 0, "de94": 0, "de2000": 0}, same); diff != "" {
		t.Fatalf("identical colors (-want +got):\n%s", diff)
	}

	plain, err := execute(t, "", "delta", "#000000", "#ffffff")
	if err != nil {
		t.Fatalf("delta failed: %v", err)
	}
	if !strings.Contains(plain, "ΔE76    100.0000") || !strings.Contains(plain, "nearly opposite") {
		t.Fatalf("unexpected output:\n%s", plain)
	}

	graphic, _ := execute(t, "", "delta", "#808080", "#000000", "--json")
	textile, _ := execute(t, "", "delta", "#808080", "#000000", "--json", "--textile")
	var g, x map[string]float64
	_ = json.Unmarshal([]byte(graphic), &g)
	_ = json.Unmarshal([]byte(textile), &x)
	if !(x["de94"] < g["de94"]) {
		t.Fatalf("expected textile weights to halve lightness difference, got %v vs %v", x["de94"], g["de94"])
	}

	if _, err := execute(t, "", "delta", "#000"); err == nil {
		t.Fatal("expected a missing argument to fail")
	}
}

func TestMatch(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "", "match", "#c8102e", "-n", "3", "--json")
	if err != nil {
		t.Fatalf("match failed: %v", err)
	}
	var got struct {
		Query   string `json:"query"`
		Matches []struct {
			Code     string  `json:"code"`
			Distance float64 `json:"distance"`
		} `json:"matches"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Matches) != 3 || got.Matches[0].Code != "PANTONE 186 C" || got.Matches[0].Distance != 0 {
		t.Fatalf("unexpected matches: %+v", got.Matches)
	}

	perceptual, err := execute(t, "", "match", "#c8102e", "--perceptual", "-n", "1")
	if err != nil {
		t.Fatalf("perceptual match failed: %v", err)
	}
	if !strings.Contains(perceptual, "PANTONE 186 C") {
		t.Fatalf("unexpected perceptual output:\n%s", perceptual)
	}

	if _, err := execute(t, "", "match"); err == nil {
		t.Fatal("expected match without input to fail")
	}
	if _, err := execute(t, "", "match", "#fff", "-n", "0"); err == nil {
		t.Fatal("expected zero count to fail")
	}
}

func TestMatchImage(t *testing.T) {
	t.Parallel()

	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			img.Set(x, y, color.RGBA{R: 0, G: 51, B: 160, A: 255})
		}
	}
	path := filepath.Join(t.TempDir(), "swatch.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	f.Close()

	out, err := execute(t, "", "match", "--image", path, "--center", "0.5", "-n", "1")
	if err != nil {
		t.Fatalf("match image failed: %v", err)
	}
	if !strings.Contains(out, "#0033a0") || !strings.Contains(out, "PANTONE 286 C") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "", "parse", "钛白 5g 群青 3滴 赭石 abc", "--json")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	var got struct {
		Ingredients []struct {
			Name    string  `json:"name"`
			Base    float64 `json:"base"`
			Unit    string  `json:"unit"`
			Invalid bool    `json:"invalid"`
		} `json:"ingredients"`
		Usable bool   `json:"usable"`
		Hash   string `json:"hash"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Ingredients) != 3 || !got.Ingredients[2].Invalid || got.Ingredients[1].Unit != "滴" {
		t.Fatalf("unexpected ingredients: %+v", got.Ingredients)
	}
	if !got.Usable || got.Hash == "" {
		t.Fatalf("expected usable formula with hash, got %+v", got)
	}

	stdin, err := execute(t, "钛白 5g\n群青 3滴\n", "parse", "-")
	if err != nil {
		t.Fatalf("parse from stdin failed: %v", err)
	}
	for _, want := range []string{"钛白", "群青", "group g", "group 滴", "hash "} {
		if !strings.Contains(stdin, want) {
			t.Fatalf("output missing %q:\n%s", want, stdin)
		}
	}

	if _, err := execute(t, "", "parse"); err == nil {
		t.Fatal("expected parse without a formula to fail")
	}
}

func TestScale(t *testing.T) {
	t.Parallel()

	const text = "钛白 5g 群青 3滴 赭石 15g"
	targets := func(t *testing.T, args ...string) []float64 {
		t.Helper()
		out, err := execute(t, "", append([]string{"scale", text, "--json"}, args...)...)
		if err != nil {
			t.Fatalf("scale %v failed: %v", args, err)
		}
		var got struct {
			State struct {
				Targets []*float64 `json:"targets"`
			} `json:"state"`
		}
		if err := json.Unmarshal([]byte(out), &got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		vals := make([]float64, len(got.State.Targets))
		for i, v := range got.State.Targets {
			if v != nil {
				vals[i] = *v
			}
		}
		return vals
	}

	tests := []struct {
		name string
		args []string
		want []float64
	}{
		{name: "row target", args: []string{"--row", "0", "--target", "10"}, want: []float64{10, 6, 30}},
		{name: "factor", args: []string{"--factor", "3"}, want: []float64{15, 9, 45}},
		{name: "group total", args: []string{"--group", "g", "--total", "40"}, want: []float64{10, 6, 30}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if diff := cmp.Diff(tt.want, targets(t, tt.args...)); diff != "" {
				t.Fatalf("targets mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestScaleDeliveredRebalances(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "", "scale", "钛白 5g 赭石 15g", "--factor", "2", "--delivered", "0=12", "--delivered", "1=3")
	if err != nil {
		t.Fatalf("scale failed: %v", err)
	}
	if !strings.Contains(out, "rebalanced to 12") || !strings.Contains(out, "rebalanced to 36") {
		t.Fatalf("expected rebalanced rows:\n%s", out)
	}
	if !strings.Contains(out, "scale x2") {
		t.Fatalf("expected scale factor line:\n%s", out)
	}
}

func TestScaleRejections(t *testing.T) {
	t.Parallel()

	cases := [][]string{
		{"scale", "钛白 5g"},
		{"scale", "钛白 5g", "--factor", "2", "--target", "3"},
		{"scale", "钛白 5g", "--factor", "-1"},
		{"scale", "钛白 5g", "--row", "4", "--target", "3"},
		{"scale", "钛白 5g", "--total", "10"},
		{"scale", "钛白 5g", "--group", "kg", "--total", "10"},
		{"scale", "钛白 abc", "--factor", "2"},
		{"scale", "钛白 5g", "--factor", "2", "--delivered", "zero"},
	}
	for _, args := range cases {
		if _, err := execute(t, "", args...); err == nil {
			t.Fatalf("expected %v to fail", args)
		}
	}
}
