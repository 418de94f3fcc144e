// Package editor implements the load / edit / commit / remove workflow the
// dashboard managers share. A Workbench keeps a local copy of every row of
// one record kind, lets fields change locally, and pushes a row to its Store
// only when the row is committed.
package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// NewID is the id of the unsaved draft row.
const NewID = "new"

var (
	// ErrNotConfirmed is returned by Remove when the caller did not confirm.
	ErrNotConfirmed = errors.New("editor: removal not confirmed")
	// ErrRowNotFound is returned for ids the workbench does not hold.
	ErrRowNotFound = errors.New("editor: row not found")
	// ErrUnknownField is returned by setters for fields they do not edit.
	ErrUnknownField = errors.New("editor: unknown field")
)

// Store is the remote side of a workbench.
type Store[T any] interface {
	List(ctx context.Context) ([]T, error)
	Insert(ctx context.Context, row T) (T, error)
	Update(ctx context.Context, row T) error
	Delete(ctx context.Context, id string) error
}

// FieldSetter applies one form field to a row.
type FieldSetter[T any] func(row *T, field, value string) error

// Schema describes how a workbench handles one record kind.
type Schema[T any] struct {
	// ID reads a row's identifier.
	ID func(T) string
	// SetID assigns an identifier; used for drafts.
	SetID func(*T, string)
	// Set edits one field.
	Set FieldSetter[T]
	// Validate runs before a commit reaches the store. Optional.
	Validate func(T) error
	// Cleanup runs after a successful delete. Failures are logged and ignored.
	Cleanup func(ctx context.Context, row T) error
	// Messages are the notifications shown for each outcome.
	Messages Messages
}

// Messages holds the notification copy of one record kind.
type Messages struct {
	LoadError   string
	SaveTitle   string
	SaveBody    string
	SaveError   string
	DeleteTitle string
	DeleteBody  string
	DeleteError string
}

// State is where a row is in its save cycle.
type State int

const (
	StateSaved State = iota
	StateNew
	StateEdited
	StateSaving
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateEdited:
		return "edited"
	case StateSaving:
		return "saving"
	default:
		return "saved"
	}
}

// Row is a local row plus its save state. Err holds the last failed commit.
type Row[T any] struct {
	Value T
	State State
	Err   error
}

// Logger receives best-effort failures.
type Logger func(ctx context.Context, event string, fields map[string]any)

// Option customises a workbench.
type Option[T any] func(*Workbench[T])

// WithLogger sets the logger used for ignored cleanup failures.
func WithLogger[T any](logger Logger) Option[T] {
	return func(w *Workbench[T]) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// Workbench is the local editing copy of one record kind.
type Workbench[T any] struct {
	store  Store[T]
	schema Schema[T]
	notify Notifier
	logger Logger

	mu    sync.RWMutex
	rows  []Row[T]
	locks keyedMutex
}

// New builds a workbench. The schema must provide ID, SetID and Set.
func New[T any](store Store[T], schema Schema[T], notify Notifier, opts ...Option[T]) (*Workbench[T], error) {
	if store == nil {
		return nil, errors.New("editor: store is required")
	}
	if schema.ID == nil || schema.SetID == nil || schema.Set == nil {
		return nil, errors.New("editor: schema requires ID, SetID and Set")
	}
	if notify == nil {
		notify = Discard
	}
	w := &Workbench[T]{
		store:  store,
		schema: schema,
		notify: notify,
		logger: func(context.Context, string, map[string]any) {},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w, nil
}

// Load replaces the local rows with the store's rows. An unsaved draft is
// local only and stays at the end of the list. On failure the previous rows
// are kept and an error notice is sent.
func (w *Workbench[T]) Load(ctx context.Context) error {
	fetched, err := w.store.List(ctx)
	if err != nil {
		w.notify.Notify(ctx, Failure(w.schema.Messages.LoadError, err))
		return fmt.Errorf("editor: load: %w", err)
	}
	rows := make([]Row[T], 0, len(fetched)+1)
	for _, v := range fetched {
		rows = append(rows, Row[T]{Value: v, State: StateSaved})
	}
	w.mu.Lock()
	if i := w.indexLocked(NewID); i >= 0 {
		rows = append(rows, w.rows[i])
	}
	w.rows = rows
	w.mu.Unlock()
	return nil
}

// Rows returns a copy of the local rows in display order.
func (w *Workbench[T]) Rows() []Row[T] {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]Row[T](nil), w.rows...)
}

// Values returns the row values in display order.
func (w *Workbench[T]) Values() []T {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]T, 0, len(w.rows))
	for _, r := range w.rows {
		out = append(out, r.Value)
	}
	return out
}

// Len is the number of local rows, draft included.
func (w *Workbench[T]) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.rows)
}

// Get returns the local row with id.
func (w *Workbench[T]) Get(id string) (Row[T], bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if i := w.indexLocked(id); i >= 0 {
		return w.rows[i], true
	}
	return Row[T]{}, false
}

// HasDraft reports whether an unsaved draft row exists.
func (w *Workbench[T]) HasDraft() bool {
	_, ok := w.Get(NewID)
	return ok
}

// EditField changes one field of a local row. The store is not touched.
func (w *Workbench[T]) EditField(id, field, value string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	i := w.indexLocked(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrRowNotFound, id)
	}
	row := w.rows[i]
	if err := w.schema.Set(&row.Value, field, value); err != nil {
		return err
	}
	if row.State != StateNew {
		row.State = StateEdited
	}
	w.rows[i] = row
	return nil
}

// CreateDraft appends a local row with the draft id. Only one draft exists
// at a time; a second call returns the existing draft.
func (w *Workbench[T]) CreateDraft(seed T) T {
	w.mu.Lock()
	defer w.mu.Unlock()
	if i := w.indexLocked(NewID); i >= 0 {
		return w.rows[i].Value
	}
	w.schema.SetID(&seed, NewID)
	w.rows = append(w.rows, Row[T]{Value: seed, State: StateNew})
	return seed
}

// Commit saves one row. The draft is inserted and the list reloaded so the
// server-assigned id replaces the draft id; other rows are updated in place.
func (w *Workbench[T]) Commit(ctx context.Context, id string) error {
	unlock := w.locks.Lock(id)
	defer unlock()

	w.mu.Lock()
	i := w.indexLocked(id)
	if i < 0 {
		w.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrRowNotFound, id)
	}
	previous := w.rows[i].State
	value := w.rows[i].Value
	if w.schema.Validate != nil {
		if err := w.schema.Validate(value); err != nil {
			w.rows[i].Err = err
			w.mu.Unlock()
			w.notify.Notify(ctx, Failure(w.schema.Messages.SaveError, err))
			return fmt.Errorf("editor: commit %s: %w", id, err)
		}
	}
	w.rows[i].State = StateSaving
	w.mu.Unlock()

	var err error
	if id == NewID {
		_, err = w.store.Insert(ctx, value)
	} else {
		err = w.store.Update(ctx, value)
	}
	if err != nil {
		w.settle(id, previous, err)
		w.notify.Notify(ctx, Failure(w.schema.Messages.SaveError, err))
		return fmt.Errorf("editor: commit %s: %w", id, err)
	}

	w.notify.Notify(ctx, Success(w.schema.Messages.SaveTitle, w.schema.Messages.SaveBody))
	if id == NewID {
		// The draft is stored now; it must not survive a failed reload.
		w.drop(NewID)
		return w.Load(ctx)
	}
	w.settle(id, StateSaved, nil)
	return nil
}

// Remove deletes a row remotely and then locally. Without confirmation it
// returns ErrNotConfirmed and does nothing. The draft is dropped locally.
func (w *Workbench[T]) Remove(ctx context.Context, id string, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}
	unlock := w.locks.Lock(id)
	defer unlock()

	row, ok := w.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrRowNotFound, id)
	}
	if id == NewID {
		w.drop(id)
		return nil
	}
	if err := w.store.Delete(ctx, id); err != nil {
		w.notify.Notify(ctx, Failure(w.schema.Messages.DeleteError, err))
		return fmt.Errorf("editor: remove %s: %w", id, err)
	}
	w.drop(id)
	if w.schema.Cleanup != nil {
		if err := w.schema.Cleanup(ctx, row.Value); err != nil {
			w.logger(ctx, "editor.cleanup.failed", map[string]any{"id": id, "error": err.Error()})
		}
	}
	w.notify.Notify(ctx, Success(w.schema.Messages.DeleteTitle, w.schema.Messages.DeleteBody))
	return nil
}

func (w *Workbench[T]) settle(id string, state State, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if i := w.indexLocked(id); i >= 0 {
		w.rows[i].State = state
		w.rows[i].Err = err
	}
}

func (w *Workbench[T]) drop(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if i := w.indexLocked(id); i >= 0 {
		w.rows = append(w.rows[:i], w.rows[i+1:]...)
	}
}

func (w *Workbench[T]) indexLocked(id string) int {
	for i, r := range w.rows {
		if w.schema.ID(r.Value) == id {
			return i
		}
	}
	return -1
}
