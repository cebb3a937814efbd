// Package forms implements edit-modal reconciliation: a transient shadow
// copy of a record, a normalized dirty diff against the original, and the
// save lifecycle around a submit call.
package forms

import (
	"context"
	"errors"
)

var (
	// ErrNotEditing means the form is not open for edits.
	ErrNotEditing = errors.New("forms: not editing")
	// ErrNotDirty means save was requested with an empty diff; the save
	// affordance should have been disabled.
	ErrNotDirty = errors.New("forms: no changes to save")
	// ErrSaving means a save is already in flight.
	ErrSaving = errors.New("forms: save in flight")
)

// State is the form lifecycle. Closed → Loading → Editing → Saving and
// back to Closed on success; a failed save returns to Editing with the
// shadow intact.
type State int

const (
	Closed State = iota
	Loading
	Editing
	Saving
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Loading:
		return "loading"
	case Editing:
		return "editing"
	case Saving:
		return "saving"
	default:
		return "unknown"
	}
}

// SubmitFunc sends the diff payload to the backend.
type SubmitFunc func(ctx context.Context, diff map[string]any) error

// Form tracks one modal's shadow copy. It models the single-threaded UI
// and is not safe for concurrent use.
type Form struct {
	state   State
	idField string
	origin  map[string]any
	shadow  map[string]any
	touched map[string]bool
}

// New creates a closed form. idField names the identity key always
// included in a non-empty diff; empty means "id".
func New(idField string) *Form {
	if idField == "" {
		idField = "id"
	}
	return &Form{state: Closed, idField: idField}
}

// State returns the current lifecycle state.
func (f *Form) State() State {
	return f.state
}

// Begin marks the form as loading its canonical record.
func (f *Form) Begin() {
	f.state = Loading
	f.origin = nil
	f.shadow = nil
	f.touched = nil
}

// Open initializes the shadow from the canonical record (or defaults for
// add flows) and enters Editing.
func (f *Form) Open(origin map[string]any) {
	f.origin = copyRecord(origin)
	f.shadow = copyRecord(origin)
	f.touched = make(map[string]bool)
	f.state = Editing
}

// Close discards the shadow. Nothing is ever partially persisted.
func (f *Form) Close() {
	f.state = Closed
	f.origin = nil
	f.shadow = nil
	f.touched = nil
}

// Set records a user edit. The shadow is replaced, not mutated, so an
// aborted save can never leak a partial state.
func (f *Form) Set(field string, value any) error {
	if f.state != Editing {
		return ErrNotEditing
	}
	next := copyRecord(f.shadow)
	next[field] = value
	f.shadow = next
	f.touched[field] = true
	return nil
}

// SetDerived fills a computed field, but never over a value the user
// typed: explicit input always wins over recomputation.
func (f *Form) SetDerived(field string, value any) error {
	if f.state != Editing {
		return ErrNotEditing
	}
	if f.touched[field] {
		return nil
	}
	next := copyRecord(f.shadow)
	next[field] = value
	f.shadow = next
	return nil
}

// Get returns the current shadow value for field.
func (f *Form) Get(field string) any {
	return f.shadow[field]
}

// Touched reports whether the user explicitly edited field.
func (f *Form) Touched(field string) bool {
	return f.touched[field]
}

// Dirty reports whether the shadow differs from the origin after
// normalization.
func (f *Form) Dirty() bool {
	return len(f.changes()) > 0
}

// Diff returns the changed fields plus the identity field, or an empty
// map when nothing changed. Values are the shadow's, unnormalized.
func (f *Form) Diff() map[string]any {
	diff := f.changes()
	if len(diff) == 0 {
		return diff
	}
	if id, ok := f.origin[f.idField]; ok {
		diff[f.idField] = id
	}
	return diff
}

// Save submits the diff and closes the form on success. On failure the
// form returns to Editing with the shadow intact so the user can retry
// without re-entering anything.
func (f *Form) Save(ctx context.Context, submit SubmitFunc) error {
	switch f.state {
	case Saving:
		return ErrSaving
	case Editing:
	default:
		return ErrNotEditing
	}
	diff := f.Diff()
	if len(diff) == 0 {
		return ErrNotDirty
	}
	f.state = Saving
	if err := submit(ctx, diff); err != nil {
		f.state = Editing
		return err
	}
	f.Close()
	return nil
}

func (f *Form) changes() map[string]any {
	diff := make(map[string]any)
	for field, value := range f.shadow {
		if field == f.idField {
			continue
		}
		if !equalNormalized(f.origin[field], value) {
			diff[field] = value
		}
	}
	return diff
}

func copyRecord(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
