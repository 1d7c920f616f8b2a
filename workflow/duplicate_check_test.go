package workflow_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0m3kk/registrar/domain/command"
	"github.com/0m3kk/registrar/domain/repository"
	"github.com/0m3kk/registrar/infra/memory"
	"github.com/0m3kk/registrar/readmodel"
	"github.com/0m3kk/registrar/workflow"
)

func newStudentWorkflow(
	store *memory.Store,
	opts ...workflow.DuplicateCheckOption[command.RegisterStudent],
) *workflow.DuplicateCheck[command.RegisterStudent] {
	repo := repository.NewStudentRepository(store)
	handler := command.NewRegisterStudentHandler(repo, store)
	engine := readmodel.NewEngine(store)
	return workflow.NewStudentDuplicateCheck(engine, handler, opts...)
}

func registerCmd(number string) command.RegisterStudent {
	return command.RegisterStudent{
		ID:            uuid.New(),
		Name:          "Ada Lovelace",
		StudentNumber: number,
		DateOfBirth:   time.Date(2008, 3, 14, 0, 0, 0, 0, time.UTC),
	}
}

func TestDuplicateCheck_RegistersWhenKeyIsFree(t *testing.T) {
	store := memory.NewStore()
	wf := newStudentWorkflow(store)

	result, err := wf.CheckDuplicateThenRegister(context.Background(), registerCmd("S-1001"))
	require.NoError(t, err)
	assert.False(t, result.IsDuplicate)
	require.NotNil(t, result.Event)
	assert.Equal(t, "StudentRegistered", result.Event.EventType())
}

func TestDuplicateCheck_RejectsDuplicateAsResultValue(t *testing.T) {
	store := memory.NewStore()
	wf := newStudentWorkflow(store)

	_, err := wf.CheckDuplicateThenRegister(context.Background(), registerCmd("S-1001"))
	require.NoError(t, err)

	result, err := wf.CheckDuplicateThenRegister(context.Background(), registerCmd("S-1001"))
	require.NoError(t, err, "a duplicate is a result value, not an error")
	assert.True(t, result.IsDuplicate)
	assert.Contains(t, result.ErrorMessage, "S-1001")
	assert.Nil(t, result.Event)
}

func TestDuplicateCheck_DifferentCaseIsNotADuplicate(t *testing.T) {
	store := memory.NewStore()
	wf := newStudentWorkflow(store)

	_, err := wf.CheckDuplicateThenRegister(context.Background(), registerCmd("S-1001"))
	require.NoError(t, err)

	result, err := wf.CheckDuplicateThenRegister(context.Background(), registerCmd("s-1001"))
	require.NoError(t, err)
	assert.False(t, result.IsDuplicate, "key comparison is case-sensitive")
}

// TestDuplicateCheck_RaceWindowAllowsBothToRegister pins the inherited
// behavior: with no key index, two concurrent registrations that both pass
// the existence check before either appends will both be accepted.
func TestDuplicateCheck_RaceWindowAllowsBothToRegister(t *testing.T) {
	store := memory.NewStore()
	repo := repository.NewStudentRepository(store)
	handler := command.NewRegisterStudentHandler(repo, store)

	// Gate the existence check so both goroutines observe "free" before
	// either one dispatches.
	checked := make(chan struct{}, 2)
	proceed := make(chan struct{})
	wf := workflow.NewDuplicateCheck(
		"student",
		func(cmd command.RegisterStudent) string { return cmd.StudentNumber },
		func(ctx context.Context, key string) (bool, error) {
			checked <- struct{}{}
			<-proceed
			return false, nil
		},
		handler.Handle,
	)

	var wg sync.WaitGroup
	results := make([]workflow.Result, 2)
	errs := make([]error, 2)
	for i := range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = wf.CheckDuplicateThenRegister(context.Background(), registerCmd("S-1001"))
		}()
	}

	// Wait until both passed the existence check, then release them.
	<-checked
	<-checked
	close(proceed)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.False(t, results[0].IsDuplicate)
	assert.False(t, results[1].IsDuplicate)
	require.NotNil(t, results[0].Event)
	require.NotNil(t, results[1].Event, "both registrations land: the check-then-act window is real")

	// Both aggregates now share the business key.
	engine := readmodel.NewEngine(store)
	students, err := engine.ListStudents(context.Background(), readmodel.StudentFilter{})
	require.NoError(t, err)
	assert.Len(t, students, 2)
}

// TestDuplicateCheck_KeyIndexClosesTheRace shows the opt-in extension: with
// a key index wired, exactly one of the concurrent registrations wins.
func TestDuplicateCheck_KeyIndexClosesTheRace(t *testing.T) {
	store := memory.NewStore()
	repo := repository.NewStudentRepository(store)
	handler := command.NewRegisterStudentHandler(repo, store)

	checked := make(chan struct{}, 2)
	proceed := make(chan struct{})
	wf := workflow.NewDuplicateCheck(
		"student",
		func(cmd command.RegisterStudent) string { return cmd.StudentNumber },
		func(ctx context.Context, key string) (bool, error) {
			checked <- struct{}{}
			<-proceed
			return false, nil
		},
		handler.Handle,
		workflow.WithKeyIndex[command.RegisterStudent](store),
	)

	var wg sync.WaitGroup
	results := make([]workflow.Result, 2)
	errs := make([]error, 2)
	for i := range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = wf.CheckDuplicateThenRegister(context.Background(), registerCmd("S-1001"))
		}()
	}

	<-checked
	<-checked
	close(proceed)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	accepted := 0
	rejected := 0
	for _, r := range results {
		if r.IsDuplicate {
			rejected++
		} else {
			accepted++
			assert.NotNil(t, r.Event)
		}
	}
	assert.Equal(t, 1, accepted, "exactly one registration reserves the key")
	assert.Equal(t, 1, rejected)
}

func TestDuplicateCheck_EmittedEventCarriesRegistrationData(t *testing.T) {
	store := memory.NewStore()
	wf := newStudentWorkflow(store)

	cmd := registerCmd("S-1001")
	result, err := wf.CheckDuplicateThenRegister(context.Background(), cmd)
	require.NoError(t, err)

	require.NotNil(t, result.Event)
	assert.Equal(t, cmd.ID, result.Event.AggregateID())
	assert.Equal(t, 1, result.Event.Version(), "registration is the first event of the stream")
}
