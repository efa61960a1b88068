package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/event-seat-reservation/internal/apperr"
	"github.com/iliyamo/event-seat-reservation/internal/database"
	"github.com/iliyamo/event-seat-reservation/internal/model"
	"github.com/iliyamo/event-seat-reservation/internal/queue"
)

// memState is the whole database. Transactions snapshot it on begin and put
// the snapshot back on rollback.
type memState struct {
	nextID       uint64
	events       map[uint64]model.Event
	categories   map[uint64]string
	eventCats    map[[2]uint64]int64 // (event, category) -> price
	seats        map[uint64]model.Seat
	reservations map[uint64]model.Reservation // Seats hold ids only
	links        map[uint64]uint64            // seat -> reservation
	payments     map[uint64]model.Payment     // reservation -> payment
}

func newMemState() *memState {
	return &memState{
		events:       map[uint64]model.Event{},
		categories:   map[uint64]string{},
		eventCats:    map[[2]uint64]int64{},
		seats:        map[uint64]model.Seat{},
		reservations: map[uint64]model.Reservation{},
		links:        map[uint64]uint64{},
		payments:     map[uint64]model.Payment{},
	}
}

func (s *memState) clone() *memState {
	c := newMemState()
	c.nextID = s.nextID
	for k, v := range s.events {
		c.events[k] = v
	}
	for k, v := range s.categories {
		c.categories[k] = v
	}
	for k, v := range s.eventCats {
		c.eventCats[k] = v
	}
	for k, v := range s.seats {
		c.seats[k] = v
	}
	for k, v := range s.reservations {
		v.Seats = append([]model.Seat(nil), v.Seats...)
		c.reservations[k] = v
	}
	for k, v := range s.links {
		c.links[k] = v
	}
	for k, v := range s.payments {
		c.payments[k] = v
	}
	return c
}

func (s *memState) id() uint64 {
	s.nextID++
	return s.nextID
}

// memStore implements every store port. A transaction holds txMu until it
// ends, which serializes writers the way row locks serialize them on one
// category.
type memStore struct {
	txMu  sync.Mutex
	mu    sync.Mutex
	state *memState

	// failures injected by operation name, e.g. "reservation.create"
	fail map[string]error
	// commits counts successful commits
	commits int
}

func newMemStore() *memStore {
	return &memStore{state: newMemState(), fail: map[string]error{}}
}

type memTx struct {
	store    *memStore
	snapshot *memState
	done     bool
}

func (t *memTx) Commit() error {
	if t.done {
		return errors.New("transaction already done")
	}
	if err := t.store.fail["commit"]; err != nil {
		return err
	}
	t.done = true
	t.store.mu.Lock()
	t.store.commits++
	t.store.mu.Unlock()
	t.store.txMu.Unlock()
	return nil
}

func (t *memTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.mu.Lock()
	t.store.state = t.snapshot
	t.store.mu.Unlock()
	t.store.txMu.Unlock()
	return nil
}

func (m *memStore) Begin(ctx context.Context) (database.Tx, error) {
	if err := m.fail["begin"]; err != nil {
		return nil, err
	}
	m.txMu.Lock()
	m.mu.Lock()
	snap := m.state.clone()
	m.mu.Unlock()
	return &memTx{store: m, snapshot: snap}, nil
}

func (m *memStore) check(tx database.Tx, op string) error {
	t, ok := tx.(*memTx)
	if !ok || t.store != m || t.done {
		return database.ErrForeignTx
	}
	return m.fail[op]
}

// ---- seed helpers ----

func (m *memStore) addEvent(ev model.Event) model.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev.ID = m.state.id()
	m.state.events[ev.ID] = ev
	return ev
}

// addCategory creates a category with capacity FREE seats at price.
func (m *memStore) addCategory(eventID uint64, name string, priceCents int64, capacity int) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	catID := m.state.id()
	m.state.categories[catID] = name
	m.state.eventCats[[2]uint64{eventID, catID}] = priceCents
	for i := 0; i < capacity; i++ {
		id := m.state.id()
		m.state.seats[id] = model.Seat{ID: id, EventID: eventID, CategoryID: catID, PriceCents: priceCents, Status: model.SeatFree}
	}
	return catID
}

func (m *memStore) seatCounts(eventID, categoryID uint64) (free, reserved int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.state.seats {
		if s.EventID != eventID || s.CategoryID != categoryID {
			continue
		}
		switch s.Status {
		case model.SeatFree:
			free++
		case model.SeatReserved:
			reserved++
		}
	}
	return free, reserved
}

func (m *memStore) reservationCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.reservations)
}

func (m *memStore) hasPayment(reservationID uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.state.payments[reservationID]
	return ok
}

func (m *memStore) seatStatus(id uint64) model.SeatStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.seats[id].Status
}

// linkConsistency verifies every RESERVED seat has exactly one link and every
// link points at a RESERVED seat of an existing reservation.
func (m *memStore) linkConsistency() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.state.seats {
		resID, linked := m.state.links[id]
		if (s.Status == model.SeatReserved) != linked {
			return errors.New("seat status and link disagree")
		}
		if linked {
			if _, ok := m.state.reservations[resID]; !ok {
				return errors.New("link to missing reservation")
			}
		}
	}
	for _, r := range m.state.reservations {
		if len(r.Seats) == 0 {
			return errors.New("reservation without seats")
		}
	}
	return nil
}

// ---- SeatInventory / SeatCatalog ----

func (m *memStore) SelectFreeSeatsTx(_ context.Context, tx database.Tx, eventID, categoryID uint64, quantity int) ([]model.Seat, error) {
	if err := m.check(tx, "seats.select"); err != nil {
		return nil, err
	}
	if quantity < 1 {
		return nil, apperr.Validation("quantity must be at least 1")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var free []model.Seat
	for _, s := range m.state.seats {
		if s.EventID == eventID && s.CategoryID == categoryID && s.Status == model.SeatFree {
			free = append(free, s)
		}
	}
	sort.Slice(free, func(i, j int) bool { return free[i].ID < free[j].ID })
	if len(free) < quantity {
		return nil, apperr.InsufficientInventory(quantity, len(free))
	}
	return free[:quantity], nil
}

func (m *memStore) LockSeatsTx(_ context.Context, tx database.Tx, ids []uint64) ([]model.Seat, error) {
	if err := m.check(tx, "seats.lock"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Seat, 0, len(ids))
	for _, id := range ids {
		if s, ok := m.state.seats[id]; ok {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) MarkReservedTx(_ context.Context, tx database.Tx, ids []uint64) error {
	return m.setStatus(tx, "seats.reserve", ids, model.SeatReserved)
}

func (m *memStore) MarkFreeTx(_ context.Context, tx database.Tx, ids []uint64) error {
	return m.setStatus(tx, "seats.free", ids, model.SeatFree)
}

func (m *memStore) setStatus(tx database.Tx, op string, ids []uint64, status model.SeatStatus) error {
	if err := m.check(tx, op); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		s := m.state.seats[id]
		s.Status = status
		m.state.seats[id] = s
	}
	return nil
}

func (m *memStore) CreateBulkTx(_ context.Context, tx database.Tx, seats []model.Seat) error {
	if err := m.check(tx, "seats.create"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range seats {
		s.ID = m.state.id()
		m.state.seats[s.ID] = s
	}
	return nil
}

func (m *memStore) CountByCategory(_ context.Context, eventID uint64) ([]model.CategoryAvailability, error) {
	if err := m.fail["seats.count"]; err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	byCat := map[uint64]*model.CategoryAvailability{}
	for key, price := range m.state.eventCats {
		if key[0] == eventID {
			byCat[key[1]] = &model.CategoryAvailability{CategoryID: key[1], CategoryName: m.state.categories[key[1]], PriceCents: price}
		}
	}
	for _, s := range m.state.seats {
		a, ok := byCat[s.CategoryID]
		if s.EventID != eventID || !ok {
			continue
		}
		a.Capacity++
		if s.Status == model.SeatReserved {
			a.Reserved++
			a.ReservedCents += s.PriceCents
		} else {
			a.Free++
		}
	}
	out := make([]model.CategoryAvailability, 0, len(byCat))
	for _, a := range byCat {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CategoryID < out[j].CategoryID })
	return out, nil
}

// ---- ReservationStore ----

func (m *memStore) CreateTx(_ context.Context, tx database.Tx, res *model.Reservation) error {
	if err := m.check(tx, "reservation.create"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	res.ID = m.state.id()
	stored := *res
	stored.Seats = make([]model.Seat, len(res.Seats))
	for i, s := range res.Seats {
		if _, taken := m.state.links[s.ID]; taken {
			return errors.New("duplicate entry for seat link")
		}
		m.state.links[s.ID] = res.ID
		stored.Seats[i] = model.Seat{ID: s.ID}
	}
	m.state.reservations[res.ID] = stored
	return nil
}

func (m *memStore) LockTx(_ context.Context, tx database.Tx, id uint64) (*model.Reservation, error) {
	if err := m.check(tx, "reservation.lock"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.state.reservations[id]
	if !ok {
		return nil, apperr.NotFound("reservation %d not found", id)
	}
	r.EventStartsAt = m.state.events[r.EventID].StartsAt
	r.Seats = append([]model.Seat(nil), r.Seats...)
	return &r, nil
}

func (m *memStore) DeleteTx(_ context.Context, tx database.Tx, id uint64) error {
	if err := m.check(tx, "reservation.delete"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.state.reservations[id]
	if !ok {
		return apperr.NotFound("reservation %d not found", id)
	}
	for _, s := range r.Seats {
		delete(m.state.links, s.ID)
	}
	delete(m.state.payments, id)
	delete(m.state.reservations, id)
	return nil
}

func (m *memStore) GetByID(_ context.Context, id uint64) (*model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.state.reservations[id]
	if !ok {
		return nil, apperr.NotFound("reservation %d not found", id)
	}
	r.EventStartsAt = m.state.events[r.EventID].StartsAt
	seats := make([]model.Seat, len(r.Seats))
	for i, s := range r.Seats {
		seats[i] = m.state.seats[s.ID]
	}
	r.Seats = seats
	r.TotalCents = model.TotalOf(seats)
	return &r, nil
}

func (m *memStore) ListByClient(_ context.Context, clientID uint64) ([]model.ReservationSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.ReservationSummary{}
	for _, r := range m.state.reservations {
		if r.ClientID != clientID {
			continue
		}
		ev := m.state.events[r.EventID]
		sum := model.ReservationSummary{
			ID:            r.ID,
			EventID:       r.EventID,
			EventName:     ev.Name,
			EventStartsAt: ev.StartsAt,
			CategoryName:  m.state.categories[r.CategoryID],
			Quantity:      len(r.Seats),
			ReservedAt:    r.CreatedAt,
		}
		for _, s := range r.Seats {
			sum.TotalCents += m.state.seats[s.ID].PriceCents
		}
		if p, ok := m.state.payments[r.ID]; ok {
			status := string(p.Status)
			sum.PaymentStatus = &status
		}
		out = append(out, sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// ---- EventStore / CategoryStore ----

// memEvents adapts memStore to EventStore; the method names overlap with the
// reservation store.
type memEvents struct{ *memStore }

func (e memEvents) GetByID(_ context.Context, id uint64) (*model.Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ev, ok := e.state.events[id]
	if !ok {
		return nil, apperr.NotFound("event %d not found", id)
	}
	return &ev, nil
}

func (e memEvents) List(_ context.Context, from time.Time) ([]model.Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := []model.Event{}
	for _, ev := range e.state.events {
		if !ev.StartsAt.Before(from) {
			out = append(out, ev)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

func (e memEvents) Search(ctx context.Context, q model.EventQuery) ([]model.Event, int64, error) {
	all, _ := e.List(ctx, q.From)
	var matched []model.Event
	for _, ev := range all {
		switch {
		case !q.To.IsZero() && !ev.StartsAt.Before(q.To):
		case q.Name != "" && !strings.Contains(strings.ToLower(ev.Name), strings.ToLower(q.Name)):
		case q.Location != "" && !strings.Contains(strings.ToLower(ev.Location), strings.ToLower(q.Location)):
		case q.Kind != "" && ev.Kind != q.Kind:
		default:
			matched = append(matched, ev)
		}
	}
	total := int64(len(matched))
	start := (q.Page - 1) * q.PageSize
	if start > len(matched) {
		start = len(matched)
	}
	end := start + q.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return append([]model.Event{}, matched[start:end]...), total, nil
}

func (e memEvents) CreateTx(_ context.Context, tx database.Tx, ev *model.Event) error {
	if err := e.check(tx, "event.create"); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	ev.ID = e.state.id()
	e.state.events[ev.ID] = *ev
	return nil
}

func (m *memStore) ListByEvent(_ context.Context, eventID uint64) ([]model.SeatCategory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.SeatCategory{}
	for key, price := range m.state.eventCats {
		if key[0] != eventID {
			continue
		}
		c := model.SeatCategory{ID: key[1], Name: m.state.categories[key[1]], PriceCents: price}
		for _, s := range m.state.seats {
			if s.EventID == eventID && s.CategoryID == key[1] {
				c.Capacity++
			}
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) FindOrCreateTx(_ context.Context, tx database.Tx, name string) (uint64, error) {
	if err := m.check(tx, "category.find"); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	name = strings.TrimSpace(name)
	for id, n := range m.state.categories {
		if strings.EqualFold(n, name) {
			return id, nil
		}
	}
	id := m.state.id()
	m.state.categories[id] = name
	return id, nil
}

func (m *memStore) AttachTx(_ context.Context, tx database.Tx, eventID, categoryID uint64, priceCents int64) error {
	if err := m.check(tx, "category.attach"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.eventCats[[2]uint64{eventID, categoryID}] = priceCents
	return nil
}

// ---- PaymentStore ----

type memPayments struct{ *memStore }

func (p memPayments) CreateTx(_ context.Context, tx database.Tx, pay *model.Payment) error {
	if err := p.check(tx, "payment.create"); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.state.payments[pay.ReservationID]; ok {
		return apperr.New(apperr.KindConflict, "reservation %d is already paid", pay.ReservationID)
	}
	pay.ID = p.state.id()
	p.state.payments[pay.ReservationID] = *pay
	return nil
}

func (p memPayments) GetByReservation(_ context.Context, reservationID uint64) (*model.Payment, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pay, ok := p.state.payments[reservationID]
	if !ok {
		return nil, apperr.NotFound("no payment recorded for reservation %d", reservationID)
	}
	return &pay, nil
}

// ---- Publisher ----

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.ReservationEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.ReservationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}
