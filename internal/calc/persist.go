package calc

import (
	"context"
	"fmt"
	"time"

	applog "chromastudio/internal/log"
)

// Persister stores the numeric calculator state for every color code as a
// single document.
type Persister interface {
	Load(ctx context.Context) (map[string]Snapshot, error)
	Save(ctx context.Context, snapshots map[string]Snapshot) error
}

// Load seeds the store with previously persisted snapshots. States already
// opened in memory are not affected.
func (s *Store) Load(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	snapshots, err := s.persister.Load(ctx)
	if err != nil {
		return fmt.Errorf("load calculator state: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for code, snap := range snapshots {
		s.persisted[code] = snap
	}
	applog.Debug(ctx, "calculator state loaded", "codes", len(snapshots))
	return nil
}

// scheduleLocked marks the store dirty and (re)arms the debounce timer.
func (s *Store) scheduleLocked() {
	s.dirty = true
	if s.persister == nil || s.closed {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, func() {
		ctx := context.Background()
		if err := s.Flush(ctx); err != nil {
			applog.Error(ctx, "debounced calculator persistence failed", "error", err)
		}
	})
}

// Flush writes the current state immediately, cancelling any pending
// debounced write. It is a no-op when nothing changed since the last write.
func (s *Store) Flush(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}

	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if !s.dirty {
		s.mu.Unlock()
		return nil
	}
	for code, st := range s.states {
		s.persisted[code] = st.snapshot()
	}
	payload := make(map[string]Snapshot, len(s.persisted))
	for code, snap := range s.persisted {
		payload[code] = snap
	}
	s.dirty = false
	s.mu.Unlock()

	if err := s.persister.Save(ctx, payload); err != nil {
		s.mu.Lock()
		s.dirty = true
		s.mu.Unlock()
		return fmt.Errorf("persist calculator state: %w", err)
	}
	applog.Debug(ctx, "calculator state persisted", "codes", len(payload))
	return nil
}

// Close stops the debounce timer and writes any pending state. Mutations
// after Close are kept in memory but no longer scheduled.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()
	return s.Flush(ctx)
}
