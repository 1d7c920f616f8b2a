package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/0m3kk/registrar/domain/command"
	"github.com/0m3kk/registrar/eventsrc"
	"github.com/0m3kk/registrar/readmodel"
)

// ErrDuplicateKey is returned by a KeyIndex when a business key has already
// been reserved.
var ErrDuplicateKey = errors.New("duplicate business key")

// KeyIndex is the opt-in uniqueness extension. The base workflow is a plain
// query-then-dispatch with no atomicity guarantee; wiring an index closes
// the window by reserving the key before dispatch. Deleting an entity
// releases its reservation, so delete-then-reregister behaves the same
// with and without the index.
type KeyIndex interface {
	// Reserve claims a business key for the given entity kind. It returns
	// ErrDuplicateKey if the key is already taken.
	Reserve(ctx context.Context, kind, key string) error
	// Release frees a reserved key. Releasing a key that was never
	// reserved is a no-op.
	Release(ctx context.Context, kind, key string) error
}

// Result is the outcome of a duplicate-checked registration. IsDuplicate
// rejections are result values, not errors: only collaborator failures
// surface through the error return.
type Result struct {
	IsDuplicate  bool
	ErrorMessage string
	Event        eventsrc.Event
}

// DuplicateCheck runs an existence query against the current read model and
// dispatches the registration command only when the business key is free.
//
// The two steps are NOT atomic: between the existence check and the append,
// a concurrent registration with the same key may be accepted, leaving two
// active aggregates sharing one business key. That window is inherited
// behavior and is kept; the optional KeyIndex is the documented way to
// close it.
type DuplicateCheck[C any] struct {
	kind     string
	key      func(C) string
	exists   func(ctx context.Context, key string) (bool, error)
	register func(ctx context.Context, cmd C) (eventsrc.Event, error)
	index    KeyIndex
	observe  func(kind, outcome string)
}

// DuplicateCheckOption configures a DuplicateCheck.
type DuplicateCheckOption[C any] func(*DuplicateCheck[C])

// WithKeyIndex enables the uniqueness-enforcing extension.
func WithKeyIndex[C any](index KeyIndex) DuplicateCheckOption[C] {
	return func(w *DuplicateCheck[C]) {
		w.index = index
	}
}

// WithObserver reports workflow outcomes ("registered", "duplicate" or
// "error") per entity kind.
func WithObserver[C any](observe func(kind, outcome string)) DuplicateCheckOption[C] {
	return func(w *DuplicateCheck[C]) {
		w.observe = observe
	}
}

// NewDuplicateCheck wires an existence query and a registration dispatch
// into a duplicate-checked workflow.
func NewDuplicateCheck[C any](
	kind string,
	key func(C) string,
	exists func(ctx context.Context, key string) (bool, error),
	register func(ctx context.Context, cmd C) (eventsrc.Event, error),
	opts ...DuplicateCheckOption[C],
) *DuplicateCheck[C] {
	w := &DuplicateCheck[C]{kind: kind, key: key, exists: exists, register: register}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// CheckDuplicateThenRegister runs the query-then-dispatch sequence.
func (w *DuplicateCheck[C]) CheckDuplicateThenRegister(ctx context.Context, cmd C) (Result, error) {
	key := w.key(cmd)

	taken, err := w.exists(ctx, key)
	if err != nil {
		w.observed("error")
		return Result{}, fmt.Errorf("duplicate check for %s %q failed: %w", w.kind, key, err)
	}
	if taken {
		slog.InfoContext(ctx, "Registration rejected as duplicate", "kind", w.kind, "key", key)
		w.observed("duplicate")
		return Result{
			IsDuplicate:  true,
			ErrorMessage: fmt.Sprintf("%s with key %q is already registered", w.kind, key),
		}, nil
	}

	if w.index != nil {
		if err := w.index.Reserve(ctx, w.kind, key); err != nil {
			if errors.Is(err, ErrDuplicateKey) {
				slog.InfoContext(ctx, "Registration rejected by key index", "kind", w.kind, "key", key)
				w.observed("duplicate")
				return Result{
					IsDuplicate:  true,
					ErrorMessage: fmt.Sprintf("%s with key %q is already registered", w.kind, key),
				}, nil
			}
			w.observed("error")
			return Result{}, fmt.Errorf("key reservation for %s %q failed: %w", w.kind, key, err)
		}
	}

	evt, err := w.register(ctx, cmd)
	if err != nil {
		w.observed("error")
		return Result{}, err
	}
	w.observed("registered")
	return Result{Event: evt}, nil
}

func (w *DuplicateCheck[C]) observed(outcome string) {
	if w.observe != nil {
		w.observe(w.kind, outcome)
	}
}

// NewStudentDuplicateCheck builds the workflow for student registrations.
func NewStudentDuplicateCheck(
	engine *readmodel.Engine,
	handler *command.RegisterStudentHandler,
	opts ...DuplicateCheckOption[command.RegisterStudent],
) *DuplicateCheck[command.RegisterStudent] {
	return NewDuplicateCheck(
		"student",
		func(cmd command.RegisterStudent) string { return cmd.StudentNumber },
		engine.StudentNumberExists,
		handler.Handle,
		opts...,
	)
}

// NewTeacherDuplicateCheck builds the workflow for teacher registrations.
func NewTeacherDuplicateCheck(
	engine *readmodel.Engine,
	handler *command.RegisterTeacherHandler,
	opts ...DuplicateCheckOption[command.RegisterTeacher],
) *DuplicateCheck[command.RegisterTeacher] {
	return NewDuplicateCheck(
		"teacher",
		func(cmd command.RegisterTeacher) string { return cmd.TeacherNumber },
		engine.TeacherNumberExists,
		handler.Handle,
		opts...,
	)
}
