// Package pantone holds the reference swatch catalog used for nearest-color
// lookups. The catalog ships embedded and can be replaced by a JSON file that
// is reloaded when it changes on disk.
package pantone

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"chromastudio/internal/colormath"
	applog "chromastudio/internal/log"
)

//go:embed catalog.json
var defaultCatalog []byte

// Entry is one swatch as stored in the catalog document.
type Entry struct {
	Code string        `json:"code"`
	Name string        `json:"name"`
	Hex  string        `json:"hex"`
	RGB  colormath.RGB `json:"rgb"`
}

// Catalog is safe for concurrent use. Lookups always see a complete catalog;
// a failed reload keeps the previous entries.
type Catalog struct {
	path string

	mu         sync.RWMutex
	entries    []Entry
	byCode     map[string]Entry
	candidates []colormath.Candidate
}

// New loads the catalog from path, or the embedded default when path is empty.
func New(path string) (*Catalog, error) {
	c := &Catalog{path: strings.TrimSpace(path)}
	if err := c.Reload(context.Background()); err != nil {
		return nil, err
	}
	return c, nil
}

// Path returns the backing file, or "" for the embedded catalog.
func (c *Catalog) Path() string {
	return c.path
}

// Reload re-reads the catalog source.
func (c *Catalog) Reload(ctx context.Context) error {
	data := defaultCatalog
	if c.path != "" {
		b, err := os.ReadFile(c.path)
		if err != nil {
			return fmt.Errorf("read pantone catalog: %w", err)
		}
		data = b
	}

	entries, err := parse(ctx, data)
	if err != nil {
		return err
	}

	byCode := make(map[string]Entry, len(entries))
	candidates := make([]colormath.Candidate, 0, len(entries))
	for _, e := range entries {
		byCode[normalizeCode(e.Code)] = e
		candidates = append(candidates, colormath.Candidate{Code: e.Code, Name: e.Name, RGB: e.RGB})
	}

	c.mu.Lock()
	c.entries = entries
	c.byCode = byCode
	c.candidates = candidates
	c.mu.Unlock()

	applog.Debug(ctx, "pantone catalog loaded", "entries", len(entries), "path", c.path)
	return nil
}

func parse(ctx context.Context, data []byte) ([]Entry, error) {
	var raw []Entry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode pantone catalog: %w", err)
	}

	entries := make([]Entry, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, e := range raw {
		e.Code = strings.TrimSpace(e.Code)
		if e.Code == "" {
			continue
		}
		rgb, ok := colormath.HexToRGB(e.Hex)
		if !ok {
			applog.Warn(ctx, "skipping pantone entry with invalid hex", "code", e.Code, "hex", e.Hex)
			continue
		}
		key := normalizeCode(e.Code)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		e.RGB = rgb
		e.Hex, _ = colormath.RGBToHex(rgb)
		entries = append(entries, e)
	}
	if len(entries) == 0 {
		return nil, errors.New("pantone catalog has no usable entries")
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Code < entries[j].Code })
	return entries, nil
}

// Entries returns a copy of the catalog ordered by code.
func (c *Catalog) Entries() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Entry(nil), c.entries...)
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Lookup finds an entry by code, ignoring case and surrounding space.
func (c *Catalog) Lookup(code string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.byCode[normalizeCode(code)]
	return e, ok
}

// Closest returns the swatch nearest to rgb by RGB distance.
func (c *Catalog) Closest(rgb colormath.RGB) (colormath.Match, bool) {
	return colormath.FindClosest(rgb, c.snapshot())
}

// ClosestN returns the n swatches nearest to rgb by RGB distance.
func (c *Catalog) ClosestN(rgb colormath.RGB, n int) []colormath.Match {
	return colormath.FindClosestN(rgb, c.snapshot(), n)
}

// Similar ranks swatches by CIEDE2000 difference from rgb.
func (c *Catalog) Similar(rgb colormath.RGB, n int) []colormath.Match {
	return colormath.RankByDeltaE(rgb, c.snapshot(), n)
}

func (c *Catalog) snapshot() []colormath.Candidate {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.candidates
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.Join(strings.Fields(code), " "))
}
