package cqrs_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/0m3kk/registrar/cqrs"
	"github.com/0m3kk/registrar/eventsrc"
	"github.com/0m3kk/registrar/infra/postgres"
	"github.com/0m3kk/registrar/testutil"
)

type ProjectionSuite struct {
	testutil.DBIntegrationSuite
	idempotencyStore *postgres.IdempotencyStore
	versionedRepo    *testutil.VersionedRepository
	db               *postgres.DB
}

func TestProjectionSuite(t *testing.T) {
	suite.Run(t, new(ProjectionSuite))
}

func (s *ProjectionSuite) SetupTest() {
	s.db = &postgres.DB{Pool: s.Pool}
	s.idempotencyStore = postgres.NewIdempotencyStore(s.db)
	s.versionedRepo = testutil.NewVersionedRepository(s.Pool)
	s.Require().NoError(s.versionedRepo.CreateTable())
	s.TruncateTables("processed_events", "versioned_views")
}

// countingHandler returns a handler that tallies calls and fails until the
// given attempt number (0 = never fail).
func countingHandler(calls *int, failUntil int) cqrs.ProjectionHandler {
	return func(ctx context.Context, evt eventsrc.OutboxEvent) error {
		*calls++
		if failUntil > 0 && *calls < failUntil {
			return errors.New("transient failure")
		}
		return nil
	}
}

func studentEvent(aggregateID uuid.UUID, version int) eventsrc.OutboxEvent {
	return eventsrc.OutboxEvent{
		EventID:       uuid.New(),
		AggregateID:   aggregateID,
		AggregateType: "students",
		EventType:     "StudentRegistered",
		Version:       version,
	}
}

func (s *ProjectionSuite) TestAppliesAndRecordsEvent() {
	ctx := context.Background()
	calls := 0
	projection := cqrs.NewProjection("apply-once", s.idempotencyStore, s.versionedRepo, s.db,
		countingHandler(&calls, 0))

	evt := studentEvent(uuid.New(), 1)
	s.Require().NoError(projection.Handle(ctx, evt))
	s.Equal(1, calls)

	done, err := s.idempotencyStore.IsProcessed(ctx, evt.EventID, "apply-once")
	s.NoError(err)
	s.True(done)
}

func (s *ProjectionSuite) TestRedeliveryIsDropped() {
	ctx := context.Background()
	calls := 0
	projection := cqrs.NewProjection("redelivery", s.idempotencyStore, s.versionedRepo, s.db,
		countingHandler(&calls, 0))

	evt := studentEvent(uuid.New(), 1)
	s.Require().NoError(projection.Handle(ctx, evt))
	s.Require().Equal(1, calls)

	// The broker redelivers the identical message.
	s.NoError(projection.Handle(ctx, evt))
	s.Equal(1, calls, "the handler must not run twice for one event")
}

func (s *ProjectionSuite) TestHandlerFailureRollsBackMarker() {
	ctx := context.Background()
	calls := 0
	alwaysFail := func(ctx context.Context, evt eventsrc.OutboxEvent) error {
		calls++
		return errors.New("view write failed")
	}
	projection := cqrs.NewProjection("rollback", s.idempotencyStore, s.versionedRepo, s.db,
		alwaysFail, cqrs.WithMaxElapsedTime(5*time.Second))

	evt := studentEvent(uuid.New(), 1)
	s.Error(projection.Handle(ctx, evt))
	s.Greater(calls, 0)

	// The processed marker lives in the same transaction as the handler, so
	// a failed apply leaves the event claimable.
	done, err := s.idempotencyStore.IsProcessed(ctx, evt.EventID, "rollback")
	s.NoError(err)
	s.False(done)
}

func (s *ProjectionSuite) TestTransientFailureIsRetried() {
	ctx := context.Background()
	calls := 0
	projection := cqrs.NewProjection("retry", s.idempotencyStore, s.versionedRepo, s.db,
		countingHandler(&calls, 2), cqrs.WithMaxElapsedTime(2*time.Second))

	evt := studentEvent(uuid.New(), 1)
	s.NoError(projection.Handle(ctx, evt))
	s.Equal(2, calls, "first attempt fails, second succeeds")

	done, err := s.idempotencyStore.IsProcessed(ctx, evt.EventID, "retry")
	s.NoError(err)
	s.True(done)
}

func (s *ProjectionSuite) TestGapLeavesEventForRedelivery() {
	ctx := context.Background()
	aggregateID := uuid.New()
	calls := 0
	projection := cqrs.NewProjection("ordering", s.idempotencyStore, s.versionedRepo, s.db,
		countingHandler(&calls, 0))

	// Version 2 arrives while the view is still at 0.
	evt := studentEvent(aggregateID, 2)
	err := projection.Handle(ctx, evt)

	s.Require().Error(err)
	s.ErrorIs(err, cqrs.ErrOutOfOrderEvent)
	s.Equal(0, calls, "the view handler must not see a gapped event")

	done, dbErr := s.idempotencyStore.IsProcessed(ctx, evt.EventID, "ordering")
	s.NoError(dbErr)
	s.False(done, "a gapped event stays unprocessed so the redelivery can land")

	version, dbErr := s.versionedRepo.GetVersion(ctx, aggregateID)
	s.NoError(dbErr)
	s.Equal(0, version)
}

func (s *ProjectionSuite) TestStaleVersionIsSkippedButRecorded() {
	ctx := context.Background()
	aggregateID := uuid.New()
	calls := 0
	projection := cqrs.NewProjection("stale", s.idempotencyStore, s.versionedRepo, s.db,
		countingHandler(&calls, 0))

	// View already reflects version 3.
	_, err := s.Pool.Exec(ctx, `INSERT INTO versioned_views (id, version) VALUES ($1, 3)`, aggregateID)
	s.Require().NoError(err)

	evt := studentEvent(aggregateID, 2)
	s.NoError(projection.Handle(ctx, evt))
	s.Equal(0, calls, "a stale event must not touch the view")

	// But it is recorded, so a redelivery short-circuits at the
	// idempotency check.
	done, err := s.idempotencyStore.IsProcessed(ctx, evt.EventID, "stale")
	s.NoError(err)
	s.True(done)
}
