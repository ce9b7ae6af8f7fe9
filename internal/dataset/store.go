package dataset

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"chemviz/internal/api"
)

// ErrNotFound reports selection of an id that is not in the collection.
var ErrNotFound = errors.New("dataset: no such id in the current listing")

// Lister is the slice of the API client the store needs for refreshes.
type Lister interface {
	ListDatasets(ctx context.Context, cred api.Credential) ([]api.Dataset, error)
}

// Store owns the ordered dataset collection and the selection pointer.
// Order is the server response order. Every refresh replaces the
// collection wholesale; presentation always sees a consistent snapshot.
//
// Refreshes can overlap (a manual refresh racing an upload-triggered one),
// so each one claims a generation before its network call and its result
// is applied only while that generation is still the latest. Clear bumps
// the generation too, which makes responses for a logged-out session fall
// on the floor.
type Store struct {
	mu       sync.Mutex
	gen      uint64
	items    []api.Dataset
	selected int
	hasSel   bool

	lister Lister
	log    *zap.Logger
}

func NewStore(lister Lister, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{lister: lister, log: log}
}

// Begin claims a new generation for a refresh that is about to start.
func (s *Store) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	return s.gen
}

// Apply installs a listing fetched under gen. Returns false (and changes
// nothing) when a newer refresh or a Clear has superseded it.
func (s *Store) Apply(gen uint64, items []api.Dataset) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		s.log.Info("discarding stale listing",
			zap.Uint64("response_gen", gen),
			zap.Uint64("current_gen", s.gen))
		return false
	}
	s.items = items
	s.resetSelectionLocked()
	return true
}

// Refresh fetches the listing and replaces the collection. On failure the
// previous collection stays untouched: unlike login, refresh fails open to
// the last known good state, and the error is the caller's to surface.
func (s *Store) Refresh(ctx context.Context, cred api.Credential) error {
	gen := s.Begin()
	items, err := s.lister.ListDatasets(ctx, cred)
	if err != nil {
		return err
	}
	s.Apply(gen, items)
	return nil
}

// Select moves the pointer to id if it is present in the collection.
func (s *Store) Select(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.items {
		if d.ID == id {
			s.selected = id
			s.hasSel = true
			return nil
		}
	}
	return ErrNotFound
}

// Selected returns the currently selected dataset, if any.
func (s *Store) Selected() (api.Dataset, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasSel {
		return api.Dataset{}, false
	}
	for _, d := range s.items {
		if d.ID == s.selected {
			return d, true
		}
	}
	return api.Dataset{}, false
}

// Snapshot returns a copy of the collection plus the selected id.
func (s *Store) Snapshot() ([]api.Dataset, int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]api.Dataset, len(s.items))
	copy(items, s.items)
	return items, s.selected, s.hasSel
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Clear empties the store and invalidates any in-flight refresh.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.items = nil
	s.selected = 0
	s.hasSel = false
}

// resetSelectionLocked points the selection at the first element of a
// freshly installed listing, or clears it when the listing is empty. The
// server lists newest first, so after an upload-triggered refresh the new
// dataset becomes the selected one. A selection can never dangle: it is
// rebuilt from the new collection on every apply.
func (s *Store) resetSelectionLocked() {
	if len(s.items) > 0 {
		s.selected = s.items[0].ID
		s.hasSel = true
		return
	}
	s.selected = 0
	s.hasSel = false
}
