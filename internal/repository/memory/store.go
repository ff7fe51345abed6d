// Package memory keeps every repository in process memory. It backs local
// runs without PostgreSQL and the service tests; transactions are serialised
// and roll back on error.
package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/Domenick1991/flightreservation/internal/domain"
	"github.com/Domenick1991/flightreservation/internal/repository"
)

type txKey struct{}

type state struct {
	flights  map[int64]domain.Flight
	bookings map[int64]domain.Booking
	payments map[int64]domain.Payment
	users    map[int64]domain.User
	audit    []domain.AuditLog
	lastID   int64
}

func (s state) clone() state {
	return state{
		flights:  maps.Clone(s.flights),
		bookings: maps.Clone(s.bookings),
		payments: maps.Clone(s.payments),
		users:    maps.Clone(s.users),
		audit:    append([]domain.AuditLog(nil), s.audit...),
		lastID:   s.lastID,
	}
}

type Store struct {
	mu  sync.Mutex
	st  state
	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		st: state{
			flights:  make(map[int64]domain.Flight),
			bookings: make(map[int64]domain.Booking),
			payments: make(map[int64]domain.Payment),
			users:    make(map[int64]domain.User),
		},
		now: time.Now,
	}
}

// WithinTx runs fn while holding the store lock. A failing fn restores the
// state it started from. Nested calls join the outer transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

func (s *Store) Flights() repository.FlightRepository   { return &flightRepo{s} }
func (s *Store) Bookings() repository.BookingRepository { return &bookingRepo{s} }
func (s *Store) Payments() repository.PaymentRepository { return &paymentRepo{s} }
func (s *Store) Users() repository.UserRepository       { return &userRepo{s} }
func (s *Store) AuditLogs() repository.AuditLogRepository {
	return &auditRepo{s}
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// lock guards a single repository call made outside a transaction.
func (s *Store) lock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) nextID() int64 {
	s.st.lastID++
	return s.st.lastID
}

var _ repository.TxManager = (*Store)(nil)
