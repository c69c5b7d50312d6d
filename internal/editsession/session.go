// Package editsession implements the per-collection row-editing protocol:
// at most one record is ever being edited, with a draft buffer that leaves
// the cached record untouched until a successful save.
package editsession

import (
	"context"
	"log/slog"
	"sync"

	"github.com/corvand/remedy/internal/blob"
	"github.com/corvand/remedy/internal/record"
)

// CommitFunc persists a draft. It is supplied by the caller at save time and
// normally delegates to the mutation coordinator.
type CommitFunc[T record.Record] func(ctx context.Context, id string, draft T, asset *blob.File) error

// Session cycles between Idle and Editing for the lifetime of the component.
// There is no terminal state.
type Session[T record.Record] struct {
	mu      sync.Mutex
	editing bool
	id      string
	draft   T
	asset   *blob.File
}

// New returns a session in the Idle state.
func New[T record.Record]() *Session[T] {
	return &Session[T]{}
}

// Begin starts editing rec. If another record is already being edited its
// draft is discarded first, forcing a clean transition through Idle: two
// drafts are never live at once. Beginning on the record already being
// edited resets the draft from rec.
func (s *Session[T]) Begin(rec T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editing && s.id != rec.RecordID() {
		slog.Debug("editsession: discarding draft for new edit",
			slog.String("previous", s.id), slog.String("next", rec.RecordID()))
		s.reset()
	}
	s.editing = true
	s.id = rec.RecordID()
	s.draft = rec
	s.asset = nil
}

// Editing returns the identifier under edit, if any.
func (s *Session[T]) Editing() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id, s.editing
}

// Set applies a field-level mutation to the draft. The underlying record is
// untouched until save. Calls while Idle are ignored.
func (s *Session[T]) Set(mutate func(*T)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.editing {
		slog.Warn("editsession: set draft field while idle")
		return
	}
	mutate(&s.draft)
}

// SelectAsset stores a pending file for the draft. No upload happens here;
// it is deferred to save time and handled by the mutation coordinator.
func (s *Session[T]) SelectAsset(f *blob.File) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.editing {
		slog.Warn("editsession: select asset while idle")
		return
	}
	s.asset = f
}

// Draft returns a copy of the current draft and pending asset.
func (s *Session[T]) Draft() (T, *blob.File, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft, s.asset, s.editing
}

// Save commits the draft. On commit success the session transitions to Idle;
// on failure it stays in Editing with the draft intact so the caller can
// correct input and retry. The commit itself runs without the session lock
// held, so a save in flight does not block inspection.
func (s *Session[T]) Save(ctx context.Context, commit CommitFunc[T]) error {
	s.mu.Lock()
	if !s.editing {
		s.mu.Unlock()
		return nil
	}
	id, draft, asset := s.id, s.draft, s.asset
	s.mu.Unlock()

	if err := commit(ctx, id, draft, asset); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Only clear if the session still belongs to the saved record; a
	// concurrent Begin must not lose its fresh draft.
	if s.editing && s.id == id {
		s.reset()
	}
	return nil
}

// Cancel discards the draft unconditionally with no store calls.
func (s *Session[T]) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

func (s *Session[T]) reset() {
	var zero T
	s.editing = false
	s.id = ""
	s.draft = zero
	s.asset = nil
}
