// Package app assembles the command handlers, workflows and query engine
// into a single façade. Callers (main, transports, tests) depend on this
// package instead of wiring the pieces themselves.
package app

import (
	"github.com/0m3kk/registrar/cqrs"
	"github.com/0m3kk/registrar/domain/command"
	"github.com/0m3kk/registrar/domain/repository"
	"github.com/0m3kk/registrar/eventsrc"
	"github.com/0m3kk/registrar/readmodel"
	"github.com/0m3kk/registrar/workflow"
)

// EventSource is the read side of the event store: everything the replay
// query engine needs.
type EventSource = readmodel.EventSource

// Store combines the write and read sides of the event store.
type Store interface {
	eventsrc.Store
	readmodel.EventSource
}

// App bundles every operation the service exposes: command handlers per
// aggregate, the relationship and registration workflows, and the replay
// query engine.
type App struct {
	// Student commands.
	RegisterStudent        *command.RegisterStudentHandler
	UpdateStudent          *command.UpdateStudentHandler
	DeleteStudent          *command.DeleteStudentHandler
	AssignStudentToClass   *command.AssignStudentToClassHandler
	RemoveStudentFromClass *command.RemoveStudentFromClassHandler

	// Teacher commands.
	RegisterTeacher        *command.RegisterTeacherHandler
	UpdateTeacher          *command.UpdateTeacherHandler
	DeleteTeacher          *command.DeleteTeacherHandler
	AssignClassToTeacher   *command.AssignClassToTeacherHandler
	RemoveClassFromTeacher *command.RemoveClassFromTeacherHandler

	// Class commands.
	CreateClass                  *command.CreateClassHandler
	UpdateClass                  *command.UpdateClassHandler
	DeleteClass                  *command.DeleteClassHandler
	AddStudentToClass            *command.AddStudentToClassHandler
	RemoveStudentFromClassRoster *command.RemoveStudentFromClassRosterHandler
	AssignTeacherToClass         *command.AssignTeacherToClassHandler
	RemoveTeacherFromClass       *command.RemoveTeacherFromClassHandler

	// Workflows.
	StudentRegistration *workflow.DuplicateCheck[command.RegisterStudent]
	TeacherRegistration *workflow.DuplicateCheck[command.RegisterTeacher]
	Enrollment          *workflow.Enrollment

	// Queries.
	Queries *readmodel.Engine
}

// Option configures optional App behavior.
type Option func(*options)

type options struct {
	keyIndex workflow.KeyIndex
	observe  func(kind, outcome string)
}

// WithKeyIndex enables the uniqueness-enforcing extension on both
// registration workflows.
func WithKeyIndex(index workflow.KeyIndex) Option {
	return func(o *options) {
		o.keyIndex = index
	}
}

// WithRegistrationObserver reports registration outcomes per entity kind,
// typically into the metrics service.
func WithRegistrationObserver(observe func(kind, outcome string)) Option {
	return func(o *options) {
		o.observe = observe
	}
}

// New wires the full application against an event store and transactor.
func New(store Store, transactor cqrs.Transactor, opts ...Option) *App {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	studentRepo := repository.NewStudentRepository(store)
	teacherRepo := repository.NewTeacherRepository(store)
	classRepo := repository.NewClassRepository(store)

	engine := readmodel.NewEngine(store)

	// Deletes release the business key so it can be registered again.
	var studentDeleteOpts []command.DeleteStudentOption
	var teacherDeleteOpts []command.DeleteTeacherOption
	if o.keyIndex != nil {
		studentDeleteOpts = append(studentDeleteOpts, command.WithStudentKeyRelease(o.keyIndex))
		teacherDeleteOpts = append(teacherDeleteOpts, command.WithTeacherKeyRelease(o.keyIndex))
	}

	a := &App{
		RegisterStudent:        command.NewRegisterStudentHandler(studentRepo, transactor),
		UpdateStudent:          command.NewUpdateStudentHandler(studentRepo, transactor),
		DeleteStudent:          command.NewDeleteStudentHandler(studentRepo, transactor, studentDeleteOpts...),
		AssignStudentToClass:   command.NewAssignStudentToClassHandler(studentRepo, transactor),
		RemoveStudentFromClass: command.NewRemoveStudentFromClassHandler(studentRepo, transactor),

		RegisterTeacher:        command.NewRegisterTeacherHandler(teacherRepo, transactor),
		UpdateTeacher:          command.NewUpdateTeacherHandler(teacherRepo, transactor),
		DeleteTeacher:          command.NewDeleteTeacherHandler(teacherRepo, transactor, teacherDeleteOpts...),
		AssignClassToTeacher:   command.NewAssignClassToTeacherHandler(teacherRepo, transactor),
		RemoveClassFromTeacher: command.NewRemoveClassFromTeacherHandler(teacherRepo, transactor),

		CreateClass:                  command.NewCreateClassHandler(classRepo, transactor),
		UpdateClass:                  command.NewUpdateClassHandler(classRepo, transactor),
		DeleteClass:                  command.NewDeleteClassHandler(classRepo, transactor),
		AddStudentToClass:            command.NewAddStudentToClassHandler(classRepo, transactor),
		RemoveStudentFromClassRoster: command.NewRemoveStudentFromClassRosterHandler(classRepo, transactor),
		AssignTeacherToClass:         command.NewAssignTeacherToClassHandler(classRepo, transactor),
		RemoveTeacherFromClass:       command.NewRemoveTeacherFromClassHandler(classRepo, transactor),

		Queries: engine,
	}

	var regOpts []workflow.DuplicateCheckOption[command.RegisterStudent]
	var teachOpts []workflow.DuplicateCheckOption[command.RegisterTeacher]
	if o.keyIndex != nil {
		regOpts = append(regOpts, workflow.WithKeyIndex[command.RegisterStudent](o.keyIndex))
		teachOpts = append(teachOpts, workflow.WithKeyIndex[command.RegisterTeacher](o.keyIndex))
	}
	if o.observe != nil {
		regOpts = append(regOpts, workflow.WithObserver[command.RegisterStudent](o.observe))
		teachOpts = append(teachOpts, workflow.WithObserver[command.RegisterTeacher](o.observe))
	}
	a.StudentRegistration = workflow.NewStudentDuplicateCheck(engine, a.RegisterStudent, regOpts...)
	a.TeacherRegistration = workflow.NewTeacherDuplicateCheck(engine, a.RegisterTeacher, teachOpts...)

	a.Enrollment = workflow.NewEnrollment(
		a.AssignStudentToClass,
		a.RemoveStudentFromClass,
		a.AddStudentToClass,
		a.RemoveStudentFromClassRoster,
		a.AssignClassToTeacher,
		a.RemoveClassFromTeacher,
		a.AssignTeacherToClass,
		a.RemoveTeacherFromClass,
	)

	return a
}
