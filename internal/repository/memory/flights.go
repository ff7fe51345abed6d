package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Domenick1991/flightreservation/internal/domain"
	"github.com/Domenick1991/flightreservation/internal/repository"
)

type flightRepo struct {
	s *Store
}

func (r *flightRepo) Create(ctx context.Context, f *domain.Flight) error {
	defer r.s.lock(ctx)()
	if r.numberTaken(f.FlightNumber, 0) {
		return fmt.Errorf("create flight %s: %w", f.FlightNumber, repository.ErrDuplicate)
	}
	if err := checkSeats(f.TotalSeats, f.AvailableSeats); err != nil {
		return err
	}
	now := r.s.now()
	f.ID = r.s.nextID()
	f.CreatedAt, f.UpdatedAt = now, now
	r.s.st.flights[f.ID] = *f
	return nil
}

func (r *flightRepo) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	defer r.s.lock(ctx)()
	f, ok := r.s.st.flights[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &f, nil
}

func (r *flightRepo) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Flight, error) {
	return r.GetByID(ctx, id)
}

func (r *flightRepo) GetByNumber(ctx context.Context, number string) (*domain.Flight, error) {
	defer r.s.lock(ctx)()
	for _, f := range r.s.st.flights {
		if f.FlightNumber == number {
			return &f, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *flightRepo) Update(ctx context.Context, f *domain.Flight) error {
	defer r.s.lock(ctx)()
	cur, ok := r.s.st.flights[f.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if r.numberTaken(f.FlightNumber, f.ID) {
		return fmt.Errorf("update flight %d: %w", f.ID, repository.ErrDuplicate)
	}
	if err := checkSeats(f.TotalSeats, cur.AvailableSeats); err != nil {
		return err
	}
	next := *f
	next.AvailableSeats = cur.AvailableSeats
	next.CreatedAt = cur.CreatedAt
	next.UpdatedAt = r.s.now()
	r.s.st.flights[f.ID] = next
	f.UpdatedAt = next.UpdatedAt
	return nil
}

func (r *flightRepo) SetAvailableSeats(ctx context.Context, id int64, available int) (*domain.Flight, error) {
	defer r.s.lock(ctx)()
	f, ok := r.s.st.flights[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if err := checkSeats(f.TotalSeats, available); err != nil {
		return nil, err
	}
	f.AvailableSeats = available
	f.UpdatedAt = r.s.now()
	r.s.st.flights[id] = f
	return &f, nil
}

func (r *flightRepo) Delete(ctx context.Context, id int64) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.st.flights[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.st.flights, id)
	for bid, b := range r.s.st.bookings {
		if b.FlightID != id {
			continue
		}
		delete(r.s.st.bookings, bid)
		for pid, p := range r.s.st.payments {
			if p.BookingID == bid {
				delete(r.s.st.payments, pid)
			}
		}
	}
	return nil
}

func (r *flightRepo) Search(ctx context.Context, criteria domain.FlightSearch) ([]domain.Flight, error) {
	return r.filter(ctx, criteria.Matches), nil
}

func (r *flightRepo) ListUpcoming(ctx context.Context, now time.Time) ([]domain.Flight, error) {
	return r.filter(ctx, func(f domain.Flight) bool { return f.DepartureTime.After(now) }), nil
}

func (r *flightRepo) ListByStatus(ctx context.Context, status domain.FlightStatus) ([]domain.Flight, error) {
	return r.filter(ctx, func(f domain.Flight) bool { return f.Status == status }), nil
}

func (r *flightRepo) CompleteArrived(ctx context.Context, now time.Time) ([]domain.Flight, error) {
	defer r.s.lock(ctx)()
	completed := make([]domain.Flight, 0)
	for id, f := range r.s.st.flights {
		if f.ArrivalTime.After(now) {
			continue
		}
		if f.Status != domain.FlightStatusScheduled && f.Status != domain.FlightStatusDelayed {
			continue
		}
		f.Status = domain.FlightStatusCompleted
		f.UpdatedAt = r.s.now()
		r.s.st.flights[id] = f
		completed = append(completed, f)
	}
	sortFlights(completed)
	return completed, nil
}

func (r *flightRepo) filter(ctx context.Context, keep func(domain.Flight) bool) []domain.Flight {
	defer r.s.lock(ctx)()
	out := make([]domain.Flight, 0)
	for _, f := range r.s.st.flights {
		if keep(f) {
			out = append(out, f)
		}
	}
	sortFlights(out)
	return out
}

func (r *flightRepo) numberTaken(number string, exceptID int64) bool {
	for _, f := range r.s.st.flights {
		if f.FlightNumber == number && f.ID != exceptID {
			return true
		}
	}
	return false
}

func checkSeats(total, available int) error {
	if available < 0 || available > total {
		return fmt.Errorf("available seats %d outside [0, %d]", available, total)
	}
	return nil
}

func sortFlights(flights []domain.Flight) {
	sort.Slice(flights, func(i, j int) bool {
		if !flights[i].DepartureTime.Equal(flights[j].DepartureTime) {
			return flights[i].DepartureTime.Before(flights[j].DepartureTime)
		}
		return flights[i].ID < flights[j].ID
	})
}

var _ repository.FlightRepository = (*flightRepo)(nil)
