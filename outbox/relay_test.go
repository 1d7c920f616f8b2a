package outbox_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/0m3kk/registrar/domain/aggregate"
	"github.com/0m3kk/registrar/domain/event"
	"github.com/0m3kk/registrar/eventsrc"
	"github.com/0m3kk/registrar/infra/postgres"
	"github.com/0m3kk/registrar/outbox"
	"github.com/0m3kk/registrar/testutil"
)

// captureBroker collects published events on a channel.
type captureBroker struct {
	published chan eventsrc.OutboxEvent
}

func newCaptureBroker(capacity int) *captureBroker {
	return &captureBroker{published: make(chan eventsrc.OutboxEvent, capacity)}
}

func (b *captureBroker) Publish(ctx context.Context, topic string, evt eventsrc.OutboxEvent) error {
	b.published <- evt
	return nil
}

func (b *captureBroker) Subscribe(
	ctx context.Context,
	topic, subscriberID string,
	handler func(context.Context, eventsrc.OutboxEvent) error,
) error {
	return nil
}

func (b *captureBroker) Close() {}

// publishCounter satisfies outbox.Observer.
type publishCounter struct {
	ok int64
}

func (c *publishCounter) ObserveOutboxPublish(ok bool) {
	if ok {
		atomic.AddInt64(&c.ok, 1)
	}
}

type RelaySuite struct {
	testutil.DBIntegrationSuite
	store *postgres.OutboxStore
	db    *postgres.DB
}

func TestRelaySuite(t *testing.T) {
	suite.Run(t, new(RelaySuite))
}

func (s *RelaySuite) SetupTest() {
	s.db = &postgres.DB{Pool: s.Pool}
	s.store = postgres.NewOutboxStore(s.db)
	s.TruncateTables("outbox")
}

func studentTopic(string) string {
	return string(aggregate.StudentAggregateType)
}

func (s *RelaySuite) publishedCount(ctx context.Context) int {
	var count int
	err := s.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM outbox WHERE published = TRUE").Scan(&count)
	s.Require().NoError(err)
	return count
}

func (s *RelaySuite) TestSaveEventsRequiresTransaction() {
	evt := registrationEvent(uuid.New(), 1)
	err := s.store.SaveEvents(context.Background(), []eventsrc.Event{evt})
	s.Error(err, "outbox rows must commit with the event_store rows")
}

func (s *RelaySuite) TestDrainsOutboxAndMarksPublished() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	broker := newCaptureBroker(5)
	counter := &publishCounter{}
	s.insertEvents(3)

	relay := outbox.NewRelay(s.store, broker, studentTopic, 2, 50*time.Millisecond,
		outbox.WithObserver(counter))
	relay.Start(ctx)
	defer relay.Stop()

	for range 3 {
		select {
		case <-broker.published:
		case <-ctx.Done():
			s.FailNow("timed out waiting for published events")
		}
	}

	s.Equal(3, s.publishedCount(ctx))
	s.EqualValues(3, atomic.LoadInt64(&counter.ok))
}

func (s *RelaySuite) TestWorkersNeverPublishOneEventTwice() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	const numEvents = 15
	broker := newCaptureBroker(numEvents + 5)
	s.insertEvents(numEvents)

	// Three workers poll the same table; SKIP LOCKED must partition the
	// batches between them.
	relays := make([]*outbox.Relay, 3)
	for i := range relays {
		relays[i] = outbox.NewRelay(s.store, broker, studentTopic, 5, 50*time.Millisecond)
		relays[i].Start(ctx)
	}
	defer func() {
		for _, r := range relays {
			r.Stop()
		}
	}()

	seen := make(map[uuid.UUID]int)
	for range numEvents {
		select {
		case evt := <-broker.published:
			seen[evt.EventID]++
		case <-time.After(10 * time.Second):
			s.FailNow("timed out waiting for published events")
		}
	}

	s.Len(seen, numEvents)
	for id, n := range seen {
		s.Equal(1, n, "event %s published %d times", id, n)
	}

	s.Require().Eventually(func() bool {
		return s.publishedCount(ctx) == numEvents
	}, 5*time.Second, 100*time.Millisecond)
}

func registrationEvent(studentID uuid.UUID, version int) event.StudentRegistered {
	return event.StudentRegistered{
		BaseEvent: eventsrc.BaseEvent{
			ID:      uuid.New(),
			AggID:   studentID,
			AggType: aggregate.StudentAggregateType,
			Ver:     version,
			Ts:      time.Now().UTC(),
		},
		Name:          "Ada Lovelace",
		StudentNumber: "S-1001",
	}
}

func (s *RelaySuite) insertEvents(count int) {
	studentID := uuid.New()
	for i := range count {
		evt := registrationEvent(studentID, i+1)
		err := s.db.WithTransaction(context.Background(), func(txCtx context.Context) error {
			return s.store.SaveEvents(txCtx, []eventsrc.Event{evt})
		})
		s.Require().NoError(err)
	}
}
