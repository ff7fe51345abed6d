package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Domenick1991/flightreservation/internal/domain"
	"github.com/Domenick1991/flightreservation/internal/repository"
)

type paymentRepo struct {
	s *Store
}

func (r *paymentRepo) Create(ctx context.Context, p *domain.Payment) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.st.bookings[p.BookingID]; !ok {
		return fmt.Errorf("create payment: booking %d: %w", p.BookingID, repository.ErrReferenced)
	}
	if p.Status == domain.PaymentStatusCompleted && r.completedExists(p.BookingID, 0) {
		return fmt.Errorf("create payment: %w", repository.ErrDuplicate)
	}
	p.ID = r.s.nextID()
	p.CreatedAt = r.s.now()
	r.s.st.payments[p.ID] = *p
	return nil
}

func (r *paymentRepo) GetByID(ctx context.Context, id int64) (*domain.Payment, error) {
	defer r.s.lock(ctx)()
	p, ok := r.s.st.payments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *paymentRepo) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Payment, error) {
	return r.GetByID(ctx, id)
}

func (r *paymentRepo) Update(ctx context.Context, p *domain.Payment) error {
	defer r.s.lock(ctx)()
	cur, ok := r.s.st.payments[p.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if p.Status == domain.PaymentStatusCompleted && r.completedExists(cur.BookingID, p.ID) {
		return fmt.Errorf("update payment %d: %w", p.ID, repository.ErrDuplicate)
	}
	next := *p
	next.BookingID = cur.BookingID
	next.CreatedAt = cur.CreatedAt
	r.s.st.payments[p.ID] = next
	return nil
}

func (r *paymentRepo) HasCompleted(ctx context.Context, bookingID, excludeID int64) (bool, error) {
	defer r.s.lock(ctx)()
	return r.completedExists(bookingID, excludeID), nil
}

func (r *paymentRepo) ListByBooking(ctx context.Context, bookingID int64) ([]domain.Payment, error) {
	return r.filter(ctx, func(p domain.Payment) bool { return p.BookingID == bookingID }), nil
}

func (r *paymentRepo) ListByStatus(ctx context.Context, status domain.PaymentStatus) ([]domain.Payment, error) {
	return r.filter(ctx, func(p domain.Payment) bool { return p.Status == status }), nil
}

func (r *paymentRepo) ListByDateRange(ctx context.Context, start, end time.Time) ([]domain.Payment, error) {
	return r.filter(ctx, func(p domain.Payment) bool {
		return !p.CreatedAt.Before(start) && !p.CreatedAt.After(end)
	}), nil
}

func (r *paymentRepo) filter(ctx context.Context, keep func(domain.Payment) bool) []domain.Payment {
	defer r.s.lock(ctx)()
	out := make([]domain.Payment, 0)
	for _, p := range r.s.st.payments {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (r *paymentRepo) completedExists(bookingID, exceptID int64) bool {
	for _, p := range r.s.st.payments {
		if p.BookingID == bookingID && p.ID != exceptID && p.Status == domain.PaymentStatusCompleted {
			return true
		}
	}
	return false
}

var _ repository.PaymentRepository = (*paymentRepo)(nil)
