package calc

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"chromastudio/internal/formula"
	applog "chromastudio/internal/log"
)

// DefaultDebounce is how long the store waits after the last mutation before
// writing to its Persister.
const DefaultDebounce = 300 * time.Millisecond

// EventKind names the mutation that produced an Event.
type EventKind string

const (
	EventScaled    EventKind = "scaled"
	EventDelivered EventKind = "delivered"
	EventCleared   EventKind = "cleared"
	EventRebuilt   EventKind = "rebuilt"
)

// Event is delivered to OnChange listeners after a mutation is applied.
type Event struct {
	Kind  EventKind
	Code  string
	State State
}

// Option configures a Store.
type Option func(*Store)

// WithDebounce overrides the persistence debounce delay.
func WithDebounce(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.debounce = d
		}
	}
}

// WithClock overrides the time source used for UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Store keeps one State per color code. All operations are safe for
// concurrent use; reads always observe the latest in-memory state whether or
// not a write is pending.
type Store struct {
	mu        sync.Mutex
	states    map[string]*State
	persisted map[string]Snapshot
	listeners []func(Event)

	persister Persister
	debounce  time.Duration
	now       func() time.Time

	timer  *time.Timer
	dirty  bool
	closed bool

	// saveMu orders writes so an older payload never lands after a newer one.
	saveMu sync.Mutex
}

// NewStore builds an empty Store. A nil persister keeps state in memory only.
func NewStore(persister Persister, opts ...Option) *Store {
	s := &Store{
		states:    make(map[string]*State),
		persisted: make(map[string]Snapshot),
		persister: persister,
		debounce:  DefaultDebounce,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnChange registers a listener invoked after every applied mutation and
// every formula rebuild. Listeners run on the caller's goroutine.
func (s *Store) OnChange(fn func(Event)) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Codes lists every color code the store knows about, including persisted
// codes that have not been opened in this process.
func (s *Store) Codes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]struct{}, len(s.states)+len(s.persisted))
	for code := range s.states {
		seen[code] = struct{}{}
	}
	for code := range s.persisted {
		seen[code] = struct{}{}
	}
	codes := make([]string, 0, len(seen))
	for code := range seen {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// State returns the calculator state for code built against formulaText. The
// state is created on first access; when the formula's hash no longer
// matches, numeric fields are reset.
func (s *Store) State(code, formulaText string) State {
	s.mu.Lock()
	st, rebuilt := s.resolveLocked(code, formulaText)
	out := st.Clone()
	s.scheduleLocked()
	listeners := s.listenersLocked(rebuilt)
	s.mu.Unlock()

	if rebuilt {
		applog.Debug(context.Background(), "calculator state rebuilt for formula change", "code", code, "hash", out.VersionHash)
		notify(listeners, Event{Kind: EventRebuilt, Code: code, State: out.Clone()})
	}
	return out
}

// SyncFormulaChange re-evaluates the state for code against new formula text.
func (s *Store) SyncFormulaChange(code, formulaText string) State {
	return s.State(code, formulaText)
}

// resolveLocked returns the state for code, building it when missing or when
// the formula hash changed. The boolean reports a rebuild of an existing
// in-memory state.
func (s *Store) resolveLocked(code, formulaText string) (*State, bool) {
	ingredients := formula.Parse(formulaText)
	hash := formula.Hash(ingredients)

	existing, ok := s.states[code]
	if ok && existing.VersionHash == hash {
		return existing, false
	}

	st := newState(code, hash, ingredients, s.now().UTC())
	if !ok {
		// Persisted snapshots only seed a state that has not been opened yet.
		// A prior ingredient list is not stored, so a mismatched hash cannot
		// be migrated row by row and resets instead.
		if snap, found := s.persisted[code]; found && snap.VersionHash == hash {
			st.hydrate(snap)
		}
	}
	s.states[code] = st
	return st, ok
}

// ApplyScale treats raw as the new target for row and rescales every other
// valid ingredient proportionally.
func (s *Store) ApplyScale(code string, row int, raw string) Outcome {
	return s.mutate(code, EventScaled, func(st *State) error {
		if err := checkRow(st, row); err != nil {
			return err
		}
		value, ok := parseCell(raw)
		if !ok {
			return ErrInvalidNumber
		}
		base := st.Ingredients[row].Base
		if base <= 0 {
			return ErrZeroBase
		}
		st.setFactor(value/base, row)
		return nil
	})
}

// ApplyScaleFactor applies factor directly. anchorHint is kept when it names
// a valid ingredient; otherwise the first valid ingredient with a positive
// base becomes the anchor.
func (s *Store) ApplyScaleFactor(code string, factor float64, anchorHint int) Outcome {
	return s.mutate(code, EventScaled, func(st *State) error {
		if math.IsNaN(factor) || math.IsInf(factor, 0) || factor <= 0 || factor > MaxSafeNumber {
			return ErrInvalidFactor
		}
		anchor := anchorHint
		if anchor < 0 || anchor >= len(st.Ingredients) || st.Ingredients[anchor].Invalid {
			anchor = firstAnchor(st.Ingredients, func(formula.Ingredient) bool { return true })
		}
		if anchor < 0 {
			return ErrNoAnchor
		}
		st.setFactor(factor, anchor)
		return nil
	})
}

// ApplyGroupTotal rescales the formula so the valid ingredients sharing unit
// add up to raw.
func (s *Store) ApplyGroupTotal(code, unit, raw string) Outcome {
	return s.mutate(code, EventScaled, func(st *State) error {
		value, ok := parseSafe(raw)
		if !ok {
			return ErrInvalidNumber
		}
		total := 0.0
		members := 0
		for _, ing := range st.Ingredients {
			if ing.Invalid || ing.Unit != unit {
				continue
			}
			members++
			total += ing.Base
		}
		if members == 0 {
			return ErrUnknownUnitGroup
		}
		if total <= 0 {
			return ErrZeroBase
		}
		factor := value / total
		if factor <= 0 {
			return ErrInvalidFactor
		}
		anchor := firstAnchor(st.Ingredients, func(ing formula.Ingredient) bool { return ing.Unit == unit })
		if anchor < 0 {
			return ErrNoAnchor
		}
		st.setFactor(factor, anchor)
		return nil
	})
}

// UpdateDelivered records the measured quantity for row. An empty value
// resets the cell to zero.
func (s *Store) UpdateDelivered(code string, row int, raw string) Outcome {
	return s.mutate(code, EventDelivered, func(st *State) error {
		if err := checkRow(st, row); err != nil {
			return err
		}
		value := 0.0
		if strings.TrimSpace(raw) != "" {
			parsed, ok := parseCell(raw)
			if !ok {
				return ErrInvalidNumber
			}
			value = parsed
		}
		st.Delivered[row] = floatPtr(value)
		return nil
	})
}

// Clear resets the numeric fields of code's state, keeping its ingredients
// and version hash.
func (s *Store) Clear(code string) Outcome {
	return s.mutate(code, EventCleared, func(st *State) error {
		st.resetNumbers()
		return nil
	})
}

func (s *Store) mutate(code string, kind EventKind, apply func(*State) error) Outcome {
	s.mu.Lock()
	st, ok := s.states[code]
	if !ok {
		s.mu.Unlock()
		applog.Debug(context.Background(), "calculator mutation for unknown code", "code", code, "kind", string(kind))
		return Outcome{Reason: ErrUnknownCode}
	}
	if err := apply(st); err != nil {
		out := Outcome{State: st.Clone(), Reason: err}
		s.mu.Unlock()
		applog.Debug(context.Background(), "calculator mutation ignored", "code", code, "kind", string(kind), "reason", err)
		return out
	}
	st.UpdatedAt = s.now().UTC()
	out := Outcome{State: st.Clone(), Applied: true}
	s.scheduleLocked()
	listeners := s.listenersLocked(true)
	s.mu.Unlock()

	notify(listeners, Event{Kind: kind, Code: code, State: out.State.Clone()})
	return out
}

func (s *Store) listenersLocked(want bool) []func(Event) {
	if !want || len(s.listeners) == 0 {
		return nil
	}
	return append(make([]func(Event), 0, len(s.listeners)), s.listeners...)
}

func notify(listeners []func(Event), evt Event) {
	for _, fn := range listeners {
		fn(evt)
	}
}

func checkRow(st *State, row int) error {
	if row < 0 || row >= len(st.Ingredients) {
		return ErrRowOutOfRange
	}
	if st.Ingredients[row].Invalid {
		return ErrInvalidIngredient
	}
	return nil
}

func firstAnchor(ingredients []formula.Ingredient, match func(formula.Ingredient) bool) int {
	for i, ing := range ingredients {
		if !ing.Invalid && ing.Base > 0 && match(ing) {
			return i
		}
	}
	return -1
}
