package flights

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/flightreservation/internal/domain"
	"github.com/Domenick1991/flightreservation/internal/kafka"
	"github.com/Domenick1991/flightreservation/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type FlightUseCase interface {
	CreateFlight(ctx context.Context, actor domain.Actor, input CreateFlightInput) (*domain.Flight, error)
	UpdateFlight(ctx context.Context, actor domain.Actor, id int64, input UpdateFlightInput) (*domain.Flight, error)
	DeleteFlight(ctx context.Context, actor domain.Actor, id int64) error
	UpdateAvailableSeats(ctx context.Context, actor domain.Actor, id int64, delta int) (*domain.Flight, error)
	GetFlight(ctx context.Context, id int64) (*domain.Flight, error)
	SearchFlights(ctx context.Context, criteria domain.FlightSearch) ([]domain.Flight, error)
	GetUpcomingFlights(ctx context.Context) ([]domain.Flight, error)
	GetFlightsByStatus(ctx context.Context, status domain.FlightStatus) ([]domain.Flight, error)
}

type FlightCache interface {
	GetUpcomingFlights(ctx context.Context) ([]domain.Flight, error)
	SetUpcomingFlights(ctx context.Context, flights []domain.Flight) error
	InvalidateFlights(ctx context.Context) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value any) error
}

type FlightService struct {
	flights  repository.FlightRepository
	bookings repository.BookingRepository
	tx       repository.TxManager
	cache    FlightCache
	producer Producer
	topic    string
	log      *zap.Logger
	now      func() time.Time
}

type FlightServiceOption func(*FlightService)

func WithCache(cache FlightCache) FlightServiceOption {
	return func(s *FlightService) {
		s.cache = cache
	}
}

func WithProducer(producer Producer, topic string) FlightServiceOption {
	return func(s *FlightService) {
		s.producer = producer
		s.topic = topic
	}
}

func WithLogger(log *zap.Logger) FlightServiceOption {
	return func(s *FlightService) {
		s.log = log.With(zap.String("service", "flights"))
	}
}

func WithNow(now func() time.Time) FlightServiceOption {
	return func(s *FlightService) {
		s.now = now
	}
}

func NewFlightService(
	flights repository.FlightRepository,
	bookings repository.BookingRepository,
	tx repository.TxManager,
	opts ...FlightServiceOption,
) *FlightService {
	s := &FlightService{
		flights:  flights,
		bookings: bookings,
		tx:       tx,
		log:      zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type CreateFlightInput struct {
	FlightNumber     string              `json:"flight_number" binding:"required,max=20"`
	DepartureCity    string              `json:"departure_city" binding:"required,max=100"`
	ArrivalCity      string              `json:"arrival_city" binding:"required,max=100"`
	DepartureAirport string              `json:"departure_airport" binding:"required,max=100"`
	ArrivalAirport   string              `json:"arrival_airport" binding:"required,max=100"`
	DepartureTime    time.Time           `json:"departure_time" binding:"required"`
	ArrivalTime      time.Time           `json:"arrival_time" binding:"required"`
	TotalSeats       int                 `json:"total_seats" binding:"required,min=1"`
	AvailableSeats   *int                `json:"available_seats" binding:"omitempty,min=0"`
	Price            decimal.Decimal     `json:"price"`
	Status           domain.FlightStatus `json:"status"`
}

// UpdateFlightInput is a partial update; nil fields are left unchanged.
type UpdateFlightInput struct {
	FlightNumber     *string              `json:"flight_number" binding:"omitempty,max=20"`
	DepartureCity    *string              `json:"departure_city" binding:"omitempty,max=100"`
	ArrivalCity      *string              `json:"arrival_city" binding:"omitempty,max=100"`
	DepartureAirport *string              `json:"departure_airport" binding:"omitempty,max=100"`
	ArrivalAirport   *string              `json:"arrival_airport" binding:"omitempty,max=100"`
	DepartureTime    *time.Time           `json:"departure_time"`
	ArrivalTime      *time.Time           `json:"arrival_time"`
	TotalSeats       *int                 `json:"total_seats" binding:"omitempty,min=1"`
	Price            *decimal.Decimal     `json:"price"`
	Status           *domain.FlightStatus `json:"status"`
}

func (s *FlightService) CreateFlight(ctx context.Context, actor domain.Actor, input CreateFlightInput) (*domain.Flight, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}

	flight := &domain.Flight{
		FlightNumber:     strings.TrimSpace(input.FlightNumber),
		DepartureCity:    strings.TrimSpace(input.DepartureCity),
		ArrivalCity:      strings.TrimSpace(input.ArrivalCity),
		DepartureAirport: strings.TrimSpace(input.DepartureAirport),
		ArrivalAirport:   strings.TrimSpace(input.ArrivalAirport),
		DepartureTime:    input.DepartureTime,
		ArrivalTime:      input.ArrivalTime,
		TotalSeats:       input.TotalSeats,
		AvailableSeats:   input.TotalSeats,
		Price:            input.Price,
		Status:           input.Status,
	}
	if input.AvailableSeats != nil {
		flight.AvailableSeats = *input.AvailableSeats
	}
	if flight.Status == "" {
		flight.Status = domain.FlightStatusScheduled
	}
	if err := validateFlight(flight); err != nil {
		return nil, err
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.ensureNumberFree(ctx, flight.FlightNumber, 0); err != nil {
			return err
		}
		if err := s.flights.Create(ctx, flight); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return domain.Validation("Flight number already exists")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("flight created", zap.Int64("flight_id", flight.ID), zap.String("flight_number", flight.FlightNumber))
	s.invalidate(ctx)
	s.publish(ctx, kafka.FlightEvent(kafka.EventFlightCreated, *flight, actor.UserID))
	return flight, nil
}

func (s *FlightService) UpdateFlight(ctx context.Context, actor domain.Actor, id int64, input UpdateFlightInput) (*domain.Flight, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}

	var updated *domain.Flight
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.lockFlight(ctx, id)
		if err != nil {
			return err
		}

		next := *current
		applyFlightPatch(&next, input)

		delta := next.TotalSeats - current.TotalSeats
		if next.TotalSeats < current.BookedSeats() {
			return domain.Validation("Total seats cannot be less than booked seats")
		}
		next.AvailableSeats = current.AvailableSeats + delta
		if err := validateFlight(&next); err != nil {
			return err
		}
		if next.FlightNumber != current.FlightNumber {
			if err := s.ensureNumberFree(ctx, next.FlightNumber, id); err != nil {
				return err
			}
		}

		// available_seats must stay within [0, total_seats] after every statement.
		if delta < 0 {
			if _, err := s.AdjustAvailableSeats(ctx, id, delta); err != nil {
				return err
			}
		}
		if err := s.flights.Update(ctx, &next); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return domain.Validation("Flight number already exists")
			}
			return err
		}
		if delta > 0 {
			if _, err := s.AdjustAvailableSeats(ctx, id, delta); err != nil {
				return err
			}
		}

		updated, err = s.flights.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("flight updated", zap.Int64("flight_id", id))
	s.invalidate(ctx)
	s.publish(ctx, kafka.FlightEvent(kafka.EventFlightUpdated, *updated, actor.UserID))
	return updated, nil
}

func (s *FlightService) DeleteFlight(ctx context.Context, actor domain.Actor, id int64) error {
	if err := actor.RequireAdmin(); err != nil {
		return err
	}

	var deleted *domain.Flight
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		flight, err := s.lockFlight(ctx, id)
		if err != nil {
			return err
		}
		active, err := s.bookings.CountActiveByFlight(ctx, id)
		if err != nil {
			return err
		}
		if active > 0 {
			return domain.Validation("Cannot delete flight with active bookings")
		}
		if err := s.flights.Delete(ctx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domain.NotFound("Flight not found")
			}
			return err
		}
		deleted = flight
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("flight deleted", zap.Int64("flight_id", id))
	s.invalidate(ctx)
	s.publish(ctx, kafka.FlightEvent(kafka.EventFlightDeleted, *deleted, actor.UserID))
	return nil
}

// AdjustAvailableSeats shifts the available seat count by delta. It joins
// the caller's transaction when there is one.
func (s *FlightService) AdjustAvailableSeats(ctx context.Context, flightID int64, delta int) (*domain.Flight, error) {
	var flight *domain.Flight
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.lockFlight(ctx, flightID)
		if err != nil {
			return err
		}

		next := current.AvailableSeats + delta
		if next < 0 {
			return domain.Validation("Not enough available seats")
		}
		if next > current.TotalSeats {
			return domain.Validation("Cannot exceed total seats")
		}

		flight, err = s.flights.SetAvailableSeats(ctx, flightID, next)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug("available seats adjusted",
		zap.Int64("flight_id", flightID),
		zap.Int("delta", delta),
		zap.Int("available_seats", flight.AvailableSeats))
	return flight, nil
}

func (s *FlightService) UpdateAvailableSeats(ctx context.Context, actor domain.Actor, id int64, delta int) (*domain.Flight, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}
	flight, err := s.AdjustAvailableSeats(ctx, id, delta)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	s.publish(ctx, kafka.FlightEvent(kafka.EventFlightUpdated, *flight, actor.UserID))
	return flight, nil
}

func (s *FlightService) GetFlight(ctx context.Context, id int64) (*domain.Flight, error) {
	flight, err := s.flights.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return flight, nil
}

func (s *FlightService) SearchFlights(ctx context.Context, criteria domain.FlightSearch) ([]domain.Flight, error) {
	if criteria.Passengers < 0 {
		return nil, domain.Validation("Passengers must be positive")
	}
	return s.flights.Search(ctx, criteria)
}

func (s *FlightService) GetUpcomingFlights(ctx context.Context) ([]domain.Flight, error) {
	if s.cache != nil {
		cached, err := s.cache.GetUpcomingFlights(ctx)
		if err != nil {
			s.log.Warn("read flights cache failed", zap.Error(err))
		}
		if err == nil && cached != nil {
			return cached, nil
		}
	}

	flights, err := s.flights.ListUpcoming(ctx, s.now())
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetUpcomingFlights(ctx, flights); err != nil {
			s.log.Warn("write flights cache failed", zap.Error(err))
		}
	}
	return flights, nil
}

func (s *FlightService) GetFlightsByStatus(ctx context.Context, status domain.FlightStatus) ([]domain.Flight, error) {
	if !status.Valid() {
		return nil, domain.Validation(fmt.Sprintf("Invalid flight status %q", status))
	}
	return s.flights.ListByStatus(ctx, status)
}

// InvalidateCache drops the cached upcoming flights; seat changes made by
// other services call it after their transaction commits.
func (s *FlightService) InvalidateCache(ctx context.Context) {
	s.invalidate(ctx)
}

func (s *FlightService) lockFlight(ctx context.Context, id int64) (*domain.Flight, error) {
	flight, err := s.flights.GetByIDForUpdate(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return flight, nil
}

func (s *FlightService) ensureNumberFree(ctx context.Context, number string, exceptID int64) error {
	existing, err := s.flights.GetByNumber(ctx, number)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != exceptID:
		return domain.Validation("Flight number already exists")
	}
	return nil
}

// invalidate and publish run after commit and must not be cut short by a
// cancelled request.
func (s *FlightService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateFlights(context.WithoutCancel(ctx)); err != nil {
		s.log.Warn("invalidate flights cache failed", zap.Error(err))
	}
}

func (s *FlightService) publish(ctx context.Context, event kafka.Event) {
	if s.producer == nil || s.topic == "" {
		return
	}
	if err := s.producer.Publish(context.WithoutCancel(ctx), s.topic, event.Key(), event); err != nil {
		s.log.Warn("publish event failed", zap.String("type", event.Type), zap.Int64("flight_id", event.FlightID), zap.Error(err))
	}
}

func applyFlightPatch(f *domain.Flight, in UpdateFlightInput) {
	if in.FlightNumber != nil {
		f.FlightNumber = strings.TrimSpace(*in.FlightNumber)
	}
	if in.DepartureCity != nil {
		f.DepartureCity = strings.TrimSpace(*in.DepartureCity)
	}
	if in.ArrivalCity != nil {
		f.ArrivalCity = strings.TrimSpace(*in.ArrivalCity)
	}
	if in.DepartureAirport != nil {
		f.DepartureAirport = strings.TrimSpace(*in.DepartureAirport)
	}
	if in.ArrivalAirport != nil {
		f.ArrivalAirport = strings.TrimSpace(*in.ArrivalAirport)
	}
	if in.DepartureTime != nil {
		f.DepartureTime = *in.DepartureTime
	}
	if in.ArrivalTime != nil {
		f.ArrivalTime = *in.ArrivalTime
	}
	if in.TotalSeats != nil {
		f.TotalSeats = *in.TotalSeats
	}
	if in.Price != nil {
		f.Price = *in.Price
	}
	if in.Status != nil {
		f.Status = *in.Status
	}
}

func validateFlight(f *domain.Flight) error {
	switch {
	case f.FlightNumber == "":
		return domain.Validation("Flight number is required")
	case f.DepartureCity == "" || f.ArrivalCity == "":
		return domain.Validation("Departure and arrival cities are required")
	case f.DepartureAirport == "" || f.ArrivalAirport == "":
		return domain.Validation("Departure and arrival airports are required")
	case !f.ArrivalTime.After(f.DepartureTime):
		return domain.Validation("Arrival time must be after departure time")
	case f.TotalSeats < 1:
		return domain.Validation("Total seats must be at least 1")
	case f.AvailableSeats < 0:
		return domain.Validation("Available seats cannot be negative")
	case f.AvailableSeats > f.TotalSeats:
		return domain.Validation("Available seats cannot be greater than total seats")
	case f.Price.IsNegative():
		return domain.Validation("Price cannot be negative")
	case !f.Status.Valid():
		return domain.Validation(fmt.Sprintf("Invalid flight status %q", f.Status))
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return domain.NotFound("Flight not found")
	}
	return err
}

var _ FlightUseCase = (*FlightService)(nil)
