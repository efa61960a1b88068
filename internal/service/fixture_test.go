package service

import (
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/event-seat-reservation/internal/model"
	"github.com/iliyamo/event-seat-reservation/internal/pkg/metrics"
)

var t0 = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

// testClock is a settable clock.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	store    *memStore
	pub      *recordingPublisher
	clock    *testClock
	metrics  *metrics.Metrics
	reserve  *ReservationService
	cancel   *CancellationService
	payments *PaymentService
	events   *EventService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:   newMemStore(),
		pub:     &recordingPublisher{},
		clock:   &testClock{now: t0},
		metrics: metrics.NewNop(),
	}
	events := memEvents{f.store}
	f.reserve = NewReservationService(f.store, f.store, f.store, events, f.store, f.pub, f.clock, f.metrics)
	f.cancel = NewCancellationService(f.store, f.store, f.store, f.pub, f.clock, 0, f.metrics)
	f.payments = NewPaymentService(f.store, f.store, f.store, memPayments{f.store}, NewCardGateway(), f.clock, f.metrics)
	f.payments.hashCost = bcrypt.MinCost
	f.events = NewEventService(f.store, events, f.store, f.store, f.clock)
	return f
}

// seedEvent adds an event starting in startsIn with one category.
func (f *fixture) seedEvent(startsIn time.Duration, category string, priceCents int64, capacity int) (eventID, categoryID uint64) {
	ev := f.store.addEvent(model.Event{
		OrganizerID: 900,
		Name:        "Summer Festival",
		Kind:        model.EventConcert,
		StartsAt:    t0.Add(startsIn),
		Location:    "Main Arena",
	})
	return ev.ID, f.store.addCategory(ev.ID, category, priceCents, capacity)
}
