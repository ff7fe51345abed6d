package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Domenick1991/flightreservation/internal/domain"
	"github.com/Domenick1991/flightreservation/internal/repository"
)

type bookingRepo struct {
	s *Store
}

func (r *bookingRepo) Create(ctx context.Context, b *domain.Booking) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.st.users[b.UserID]; !ok {
		return fmt.Errorf("create booking: user %d: %w", b.UserID, repository.ErrReferenced)
	}
	if _, ok := r.s.st.flights[b.FlightID]; !ok {
		return fmt.Errorf("create booking: flight %d: %w", b.FlightID, repository.ErrReferenced)
	}
	if b.HoldsSeat() && r.seatTaken(b.FlightID, b.SeatNumber, 0) {
		return fmt.Errorf("create booking: seat %s: %w", b.SeatNumber, repository.ErrDuplicate)
	}
	now := r.s.now()
	b.ID = r.s.nextID()
	b.CreatedAt, b.UpdatedAt = now, now
	r.s.st.bookings[b.ID] = *b
	return nil
}

func (r *bookingRepo) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	defer r.s.lock(ctx)()
	b, ok := r.s.st.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &b, nil
}

func (r *bookingRepo) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Booking, error) {
	return r.GetByID(ctx, id)
}

func (r *bookingRepo) FindActiveBySeat(ctx context.Context, flightID int64, seat string) (*domain.Booking, error) {
	defer r.s.lock(ctx)()
	for _, b := range r.s.st.bookings {
		if b.FlightID == flightID && b.SeatNumber == seat && b.HoldsSeat() {
			return &b, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *bookingRepo) Update(ctx context.Context, b *domain.Booking) error {
	defer r.s.lock(ctx)()
	cur, ok := r.s.st.bookings[b.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if b.HoldsSeat() && r.seatTaken(cur.FlightID, b.SeatNumber, b.ID) {
		return fmt.Errorf("update booking %d: %w", b.ID, repository.ErrDuplicate)
	}
	next := *b
	next.UserID, next.FlightID = cur.UserID, cur.FlightID
	next.CreatedAt = cur.CreatedAt
	next.UpdatedAt = r.s.now()
	r.s.st.bookings[b.ID] = next
	b.UpdatedAt = next.UpdatedAt
	return nil
}

func (r *bookingRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error) {
	return r.filter(ctx, func(b domain.Booking) bool { return b.UserID == userID }), nil
}

func (r *bookingRepo) ListByFlight(ctx context.Context, flightID int64) ([]domain.Booking, error) {
	return r.filter(ctx, func(b domain.Booking) bool { return b.FlightID == flightID }), nil
}

func (r *bookingRepo) ListByDateRange(ctx context.Context, start, end time.Time) ([]domain.Booking, error) {
	return r.filter(ctx, func(b domain.Booking) bool {
		return !b.BookingDate.Before(start) && !b.BookingDate.After(end)
	}), nil
}

func (r *bookingRepo) ListByStatus(ctx context.Context, status domain.BookingStatus) ([]domain.Booking, error) {
	return r.filter(ctx, func(b domain.Booking) bool { return b.Status == status }), nil
}

func (r *bookingRepo) CountActiveByFlight(ctx context.Context, flightID int64) (int, error) {
	return len(r.filter(ctx, func(b domain.Booking) bool { return b.FlightID == flightID && b.HoldsSeat() })), nil
}

func (r *bookingRepo) CountByUser(ctx context.Context, userID int64) (int, error) {
	return len(r.filter(ctx, func(b domain.Booking) bool { return b.UserID == userID })), nil
}

func (r *bookingRepo) CompleteConfirmed(ctx context.Context, flightIDs []int64) ([]domain.Booking, error) {
	defer r.s.lock(ctx)()
	flights := make(map[int64]bool, len(flightIDs))
	for _, id := range flightIDs {
		flights[id] = true
	}
	completed := make([]domain.Booking, 0)
	for id, b := range r.s.st.bookings {
		if !flights[b.FlightID] || b.Status != domain.BookingStatusConfirmed {
			continue
		}
		b.Status = domain.BookingStatusCompleted
		b.UpdatedAt = r.s.now()
		r.s.st.bookings[id] = b
		completed = append(completed, b)
	}
	sortBookings(completed)
	return completed, nil
}

func (r *bookingRepo) filter(ctx context.Context, keep func(domain.Booking) bool) []domain.Booking {
	defer r.s.lock(ctx)()
	out := make([]domain.Booking, 0)
	for _, b := range r.s.st.bookings {
		if keep(b) {
			out = append(out, b)
		}
	}
	sortBookings(out)
	return out
}

func (r *bookingRepo) seatTaken(flightID int64, seat string, exceptID int64) bool {
	for _, b := range r.s.st.bookings {
		if b.FlightID == flightID && b.SeatNumber == seat && b.ID != exceptID && b.HoldsSeat() {
			return true
		}
	}
	return false
}

func sortBookings(bookings []domain.Booking) {
	sort.Slice(bookings, func(i, j int) bool {
		if !bookings[i].BookingDate.Equal(bookings[j].BookingDate) {
			return bookings[i].BookingDate.After(bookings[j].BookingDate)
		}
		return bookings[i].ID > bookings[j].ID
	})
}

var _ repository.BookingRepository = (*bookingRepo)(nil)
