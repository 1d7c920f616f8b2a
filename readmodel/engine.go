package readmodel

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/0m3kk/registrar/domain/model"
)

// Engine answers queries by folding the event log into current aggregate
// states on every call. It holds no cache: results are exactly as fresh as
// the source's read-after-append visibility. Callers needing cheaper reads
// should use the view projections instead.
type Engine struct {
	source EventSource
}

// NewEngine creates a query engine over the given event source.
func NewEngine(source EventSource) *Engine {
	return &Engine{source: source}
}

// StudentRecord is a point-lookup result: the projected state plus its
// lifecycle and stream version, so callers can detect staleness.
type StudentRecord struct {
	model.Student
	State   model.Lifecycle
	Version int
}

// TeacherRecord is the teacher point-lookup result.
type TeacherRecord struct {
	model.Teacher
	State   model.Lifecycle
	Version int
}

// ClassRecord is the class point-lookup result.
type ClassRecord struct {
	model.Class
	State   model.Lifecycle
	Version int
}

// StudentFilter narrows ListStudents. Empty fields match everything; set
// fields are case-insensitive substring matches.
type StudentFilter struct {
	Name  string
	Email string
}

// TeacherFilter narrows ListTeachers.
type TeacherFilter struct {
	Name    string
	Subject string
}

// ClassFilter narrows ListClasses.
type ClassFilter struct {
	Name string
	Code string
}

// matches reports whether value contains the filter substring, ignoring
// case. An empty filter matches everything.
func matches(value, filter string) bool {
	if filter == "" {
		return true
	}
	return strings.Contains(strings.ToLower(value), strings.ToLower(filter))
}

// StudentNumberExists reports whether any active student carries the given
// business key. The comparison is exact and case-sensitive, unlike the
// substring matching used for list filters.
func (e *Engine) StudentNumberExists(ctx context.Context, studentNumber string) (bool, error) {
	aggs, err := e.rebuildStudents(ctx)
	if err != nil {
		return false, err
	}
	for _, s := range activeStudents(aggs) {
		if s.StudentNumber == studentNumber {
			return true, nil
		}
	}
	return false, nil
}

// TeacherNumberExists reports whether any active teacher carries the given
// business key.
func (e *Engine) TeacherNumberExists(ctx context.Context, teacherNumber string) (bool, error) {
	aggs, err := e.rebuildTeachers(ctx)
	if err != nil {
		return false, err
	}
	for _, t := range activeTeachers(aggs) {
		if t.TeacherNumber == teacherNumber {
			return true, nil
		}
	}
	return false, nil
}

// ClassCodeExists reports whether any active class carries the given code.
func (e *Engine) ClassCodeExists(ctx context.Context, code string) (bool, error) {
	aggs, err := e.rebuildClasses(ctx)
	if err != nil {
		return false, err
	}
	for _, c := range activeClasses(aggs) {
		if c.Code == code {
			return true, nil
		}
	}
	return false, nil
}

// ListStudents returns active students matching the filter, sorted
// ascending by name. An empty result is not an error.
func (e *Engine) ListStudents(ctx context.Context, filter StudentFilter) ([]model.Student, error) {
	aggs, err := e.rebuildStudents(ctx)
	if err != nil {
		return nil, err
	}
	var out []model.Student
	for _, s := range activeStudents(aggs) {
		if matches(s.Name, filter.Name) && matches(s.Email, filter.Email) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ListTeachers returns active teachers matching the filter, sorted
// ascending by name.
func (e *Engine) ListTeachers(ctx context.Context, filter TeacherFilter) ([]model.Teacher, error) {
	aggs, err := e.rebuildTeachers(ctx)
	if err != nil {
		return nil, err
	}
	var out []model.Teacher
	for _, t := range activeTeachers(aggs) {
		if matches(t.Name, filter.Name) && matches(t.Subject, filter.Subject) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ListClasses returns active classes matching the filter, sorted ascending
// by name.
func (e *Engine) ListClasses(ctx context.Context, filter ClassFilter) ([]model.Class, error) {
	aggs, err := e.rebuildClasses(ctx)
	if err != nil {
		return nil, err
	}
	var out []model.Class
	for _, c := range activeClasses(aggs) {
		if matches(c.Name, filter.Name) && matches(c.Code, filter.Code) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// StudentByID returns the projected student, deleted ones included for
// audit reads. A stream with no events yields NotFoundError.
func (e *Engine) StudentByID(ctx context.Context, id uuid.UUID) (StudentRecord, error) {
	aggs, err := e.rebuildStudents(ctx)
	if err != nil {
		return StudentRecord{}, err
	}
	for _, a := range aggs {
		if a.State != model.LifecycleEmpty && a.Student.ID == id {
			return StudentRecord{Student: a.Student, State: a.State, Version: a.Version()}, nil
		}
	}
	return StudentRecord{}, NotFoundError{Entity: "student", ID: id}
}

// TeacherByID returns the projected teacher, deleted ones included.
func (e *Engine) TeacherByID(ctx context.Context, id uuid.UUID) (TeacherRecord, error) {
	aggs, err := e.rebuildTeachers(ctx)
	if err != nil {
		return TeacherRecord{}, err
	}
	for _, a := range aggs {
		if a.State != model.LifecycleEmpty && a.Teacher.ID == id {
			return TeacherRecord{Teacher: a.Teacher, State: a.State, Version: a.Version()}, nil
		}
	}
	return TeacherRecord{}, NotFoundError{Entity: "teacher", ID: id}
}

// ClassByID returns the projected class, deleted ones included.
func (e *Engine) ClassByID(ctx context.Context, id uuid.UUID) (ClassRecord, error) {
	aggs, err := e.rebuildClasses(ctx)
	if err != nil {
		return ClassRecord{}, err
	}
	for _, a := range aggs {
		if a.State != model.LifecycleEmpty && a.Class.ID == id {
			return ClassRecord{Class: a.Class, State: a.State, Version: a.Version()}, nil
		}
	}
	return ClassRecord{}, NotFoundError{Entity: "class", ID: id}
}

// StudentsByClass scans active students for those whose class pointer
// equals the given class, sorted ascending by name.
func (e *Engine) StudentsByClass(ctx context.Context, classID uuid.UUID) ([]model.Student, error) {
	aggs, err := e.rebuildStudents(ctx)
	if err != nil {
		return nil, err
	}
	var out []model.Student
	for _, s := range activeStudents(aggs) {
		if s.ClassID != nil && *s.ClassID == classID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ClassesByTeacher scans active classes for those whose teacher pointer
// equals the given teacher, sorted ascending by name.
func (e *Engine) ClassesByTeacher(ctx context.Context, teacherID uuid.UUID) ([]model.Class, error) {
	aggs, err := e.rebuildClasses(ctx)
	if err != nil {
		return nil, err
	}
	var out []model.Class
	for _, c := range activeClasses(aggs) {
		if c.TeacherID != nil && *c.TeacherID == teacherID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// TeachersByClass scans active teachers for those whose class set contains
// the given class, sorted ascending by name.
func (e *Engine) TeachersByClass(ctx context.Context, classID uuid.UUID) ([]model.Teacher, error) {
	aggs, err := e.rebuildTeachers(ctx)
	if err != nil {
		return nil, err
	}
	var out []model.Teacher
	for _, t := range activeTeachers(aggs) {
		if t.HasClass(classID) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
