package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/flightreservation/internal/domain"
	"github.com/Domenick1991/flightreservation/internal/kafka"
	"github.com/Domenick1991/flightreservation/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, actor domain.Actor, input CreateBookingInput) (*domain.Booking, error)
	UpdateBooking(ctx context.Context, actor domain.Actor, id int64, input UpdateBookingInput) (*domain.Booking, error)
	CancelBooking(ctx context.Context, actor domain.Actor, id int64) (*domain.Booking, error)
	GetBooking(ctx context.Context, actor domain.Actor, id int64) (*domain.Booking, error)
	GetUserBookings(ctx context.Context, actor domain.Actor) ([]domain.Booking, error)
	SearchBookings(ctx context.Context, actor domain.Actor, criteria domain.BookingSearch) ([]domain.Booking, error)
	CompleteArrivedFlights(ctx context.Context) ([]domain.Booking, error)
}

// Inventory owns the available seat count of flights.
type Inventory interface {
	AdjustAvailableSeats(ctx context.Context, flightID int64, delta int) (*domain.Flight, error)
	InvalidateCache(ctx context.Context)
}

type SeatLocker interface {
	AcquireSeatLock(ctx context.Context, flightID int64, seat string, ttl time.Duration) (string, bool, error)
	ReleaseSeatLock(ctx context.Context, flightID int64, seat, token string) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value any) error
}

type BookingService struct {
	bookings    repository.BookingRepository
	flights     repository.FlightRepository
	users       repository.UserRepository
	inventory   Inventory
	tx          repository.TxManager
	locker      SeatLocker
	seatLockTTL time.Duration
	producer    Producer
	topic       string
	log         *zap.Logger
	now         func() time.Time
}

type BookingServiceOption func(*BookingService)

func WithSeatLocker(locker SeatLocker, ttl time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		s.locker = locker
		s.seatLockTTL = ttl
	}
}

func WithProducer(producer Producer, topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.producer = producer
		s.topic = topic
	}
}

func WithLogger(log *zap.Logger) BookingServiceOption {
	return func(s *BookingService) {
		s.log = log.With(zap.String("service", "booking"))
	}
}

func WithNow(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	flights repository.FlightRepository,
	users repository.UserRepository,
	inventory Inventory,
	tx repository.TxManager,
	opts ...BookingServiceOption,
) *BookingService {
	s := &BookingService{
		bookings:    bookings,
		flights:     flights,
		users:       users,
		inventory:   inventory,
		tx:          tx,
		seatLockTTL: 30 * time.Second,
		log:         zap.NewNop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type CreateBookingInput struct {
	FlightID    int64            `json:"flight_id" binding:"required,min=1"`
	SeatNumber  string           `json:"seat_number" binding:"required,max=10"`
	BookingDate *time.Time       `json:"booking_date"`
	TotalPrice  *decimal.Decimal `json:"total_price"`
	// UserID books on behalf of another user; admins only.
	UserID int64 `json:"user_id" binding:"omitempty,min=1"`
}

type UpdateBookingInput struct {
	SeatNumber  *string               `json:"seat_number" binding:"omitempty,max=10"`
	BookingDate *time.Time            `json:"booking_date"`
	Status      *domain.BookingStatus `json:"status"`
	TotalPrice  *decimal.Decimal      `json:"total_price"`
}

func (s *BookingService) CreateBooking(ctx context.Context, actor domain.Actor, input CreateBookingInput) (*domain.Booking, error) {
	if err := actor.RequireAuthenticated(); err != nil {
		return nil, err
	}

	seat := domain.NormalizeSeat(input.SeatNumber)
	if seat == "" {
		return nil, domain.Validation("Seat number is required")
	}
	if input.TotalPrice != nil && input.TotalPrice.IsNegative() {
		return nil, domain.Validation("Total price cannot be negative")
	}

	userID := actor.UserID
	if input.UserID != 0 && input.UserID != actor.UserID {
		if !actor.IsAdmin() {
			return nil, domain.Forbidden("Access denied")
		}
		userID = input.UserID
	}

	release, err := s.lockSeat(ctx, input.FlightID, seat)
	if err != nil {
		return nil, err
	}
	defer release()

	booking := &domain.Booking{
		UserID:      userID,
		FlightID:    input.FlightID,
		BookingDate: s.now().UTC(),
		SeatNumber:  seat,
		Status:      domain.BookingStatusPending,
	}
	if input.BookingDate != nil {
		booking.BookingDate = input.BookingDate.UTC()
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.users.GetByID(ctx, userID); err != nil {
			return mapNotFound(err, "User not found")
		}
		flight, err := s.flights.GetByIDForUpdate(ctx, input.FlightID)
		if err != nil {
			return mapNotFound(err, "Flight not found")
		}
		if flight.AvailableSeats <= 0 {
			return domain.Validation("No available seats on this flight")
		}
		if flight.Status != domain.FlightStatusScheduled {
			return domain.Validation("Flight is not available for booking")
		}
		if err := s.ensureSeatFree(ctx, flight.ID, seat, 0); err != nil {
			return err
		}

		booking.TotalPrice = flight.Price
		if input.TotalPrice != nil {
			booking.TotalPrice = *input.TotalPrice
		}
		if err := s.bookings.Create(ctx, booking); err != nil {
			return mapSeatConflict(err)
		}
		_, err = s.inventory.AdjustAvailableSeats(ctx, flight.ID, -1)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("booking created",
		zap.Int64("booking_id", booking.ID),
		zap.Int64("flight_id", booking.FlightID),
		zap.String("seat_number", booking.SeatNumber))
	s.invalidate(ctx)
	s.publish(ctx, kafka.EventBookingCreated, booking)
	return booking, nil
}

func (s *BookingService) UpdateBooking(ctx context.Context, actor domain.Actor, id int64, input UpdateBookingInput) (*domain.Booking, error) {
	if err := actor.RequireAuthenticated(); err != nil {
		return nil, err
	}
	if (input.Status != nil || input.TotalPrice != nil) && !actor.IsAdmin() {
		return nil, domain.Forbidden("Admin access required")
	}

	var (
		updated   *domain.Booking
		cancelled bool
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.lockBooking(ctx, id)
		if err != nil {
			return err
		}
		if err := actor.RequireAccess(current.UserID); err != nil {
			return err
		}
		if current.Status.Terminal() {
			return domain.Validation("Booking can no longer be modified")
		}

		next := *current
		if input.SeatNumber != nil {
			next.SeatNumber = domain.NormalizeSeat(*input.SeatNumber)
			if next.SeatNumber == "" {
				return domain.Validation("Seat number is required")
			}
			if next.SeatNumber != current.SeatNumber {
				if err := s.ensureSeatFree(ctx, current.FlightID, next.SeatNumber, id); err != nil {
					return err
				}
			}
		}
		if input.BookingDate != nil {
			next.BookingDate = input.BookingDate.UTC()
		}
		if input.TotalPrice != nil {
			if input.TotalPrice.IsNegative() {
				return domain.Validation("Total price cannot be negative")
			}
			next.TotalPrice = *input.TotalPrice
		}
		if input.Status != nil && *input.Status != current.Status {
			if !input.Status.Valid() || !current.Status.CanTransitionTo(*input.Status) {
				return domain.Validation(fmt.Sprintf("Invalid booking status transition from %s to %s", current.Status, *input.Status))
			}
			next.Status = *input.Status
		}

		if err := s.bookings.Update(ctx, &next); err != nil {
			return mapSeatConflict(err)
		}
		if next.Status == domain.BookingStatusCancelled {
			if _, err := s.inventory.AdjustAvailableSeats(ctx, next.FlightID, 1); err != nil {
				return err
			}
			cancelled = true
		}
		updated = &next
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("booking updated", zap.Int64("booking_id", id), zap.String("status", string(updated.Status)))
	eventType := kafka.EventBookingUpdated
	if cancelled {
		eventType = kafka.EventBookingCancelled
		s.invalidate(ctx)
	}
	s.publish(ctx, eventType, updated)
	return updated, nil
}

func (s *BookingService) CancelBooking(ctx context.Context, actor domain.Actor, id int64) (*domain.Booking, error) {
	if err := actor.RequireAuthenticated(); err != nil {
		return nil, err
	}

	var cancelled *domain.Booking
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		booking, err := s.lockBooking(ctx, id)
		if err != nil {
			return err
		}
		if err := actor.RequireAccess(booking.UserID); err != nil {
			return err
		}
		switch booking.Status {
		case domain.BookingStatusCancelled:
			return domain.Validation("Booking is already cancelled")
		case domain.BookingStatusCompleted:
			return domain.Validation("Completed booking cannot be cancelled")
		}

		booking.Status = domain.BookingStatusCancelled
		if err := s.bookings.Update(ctx, booking); err != nil {
			return err
		}
		if _, err := s.inventory.AdjustAvailableSeats(ctx, booking.FlightID, 1); err != nil {
			return err
		}
		cancelled = booking
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("booking cancelled", zap.Int64("booking_id", id), zap.Int64("flight_id", cancelled.FlightID))
	s.invalidate(ctx)
	s.publish(ctx, kafka.EventBookingCancelled, cancelled)
	return cancelled, nil
}

func (s *BookingService) GetBooking(ctx context.Context, actor domain.Actor, id int64) (*domain.Booking, error) {
	if err := actor.RequireAuthenticated(); err != nil {
		return nil, err
	}
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "Booking not found")
	}
	if err := actor.RequireAccess(booking.UserID); err != nil {
		return nil, err
	}
	return booking, nil
}

func (s *BookingService) GetUserBookings(ctx context.Context, actor domain.Actor) ([]domain.Booking, error) {
	if err := actor.RequireAuthenticated(); err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, actor.UserID); err != nil {
		return nil, mapNotFound(err, "User not found")
	}
	return s.bookings.ListByUser(ctx, actor.UserID)
}

// SearchBookings applies only the first criterion present, in the order
// user, flight, date range, status. Without any it returns an empty list.
func (s *BookingService) SearchBookings(ctx context.Context, actor domain.Actor, criteria domain.BookingSearch) ([]domain.Booking, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}

	switch {
	case criteria.UserID != 0:
		return s.bookings.ListByUser(ctx, criteria.UserID)
	case criteria.FlightID != 0:
		return s.bookings.ListByFlight(ctx, criteria.FlightID)
	case !criteria.StartDate.IsZero() && !criteria.EndDate.IsZero():
		return s.bookings.ListByDateRange(ctx, criteria.StartDate, criteria.EndDate)
	case criteria.Status != "":
		if !criteria.Status.Valid() {
			return nil, domain.Validation(fmt.Sprintf("Invalid booking status %q", criteria.Status))
		}
		return s.bookings.ListByStatus(ctx, criteria.Status)
	}
	return []domain.Booking{}, nil
}

// CompleteArrivedFlights completes flights that have landed together with
// their confirmed bookings.
func (s *BookingService) CompleteArrivedFlights(ctx context.Context) ([]domain.Booking, error) {
	var completed []domain.Booking
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		flights, err := s.flights.CompleteArrived(ctx, s.now())
		if err != nil {
			return err
		}
		if len(flights) == 0 {
			return nil
		}
		ids := make([]int64, 0, len(flights))
		for _, f := range flights {
			ids = append(ids, f.ID)
		}
		completed, err = s.bookings.CompleteConfirmed(ctx, ids)
		return err
	})
	if err != nil {
		return nil, err
	}

	for i := range completed {
		s.publish(ctx, kafka.EventBookingCompleted, &completed[i])
	}
	if len(completed) > 0 {
		s.log.Info("bookings completed", zap.Int("count", len(completed)))
	}
	return completed, nil
}

// lockSeat takes the short-lived seat lock. Lock backend failures are logged
// and the database constraints remain the guard.
func (s *BookingService) lockSeat(ctx context.Context, flightID int64, seat string) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	token, ok, err := s.locker.AcquireSeatLock(ctx, flightID, seat, s.seatLockTTL)
	if err != nil {
		s.log.Warn("acquire seat lock failed", zap.Int64("flight_id", flightID), zap.String("seat_number", seat), zap.Error(err))
		return func() {}, nil
	}
	if !ok {
		return nil, domain.Conflict("Seat is being booked by another request")
	}
	return func() {
		if err := s.locker.ReleaseSeatLock(context.WithoutCancel(ctx), flightID, seat, token); err != nil {
			s.log.Warn("release seat lock failed", zap.Int64("flight_id", flightID), zap.String("seat_number", seat), zap.Error(err))
		}
	}, nil
}

// lockBooking locks the booking's flight row before the booking row, the same
// order used by booking creation and the completion sweep.
func (s *BookingService) lockBooking(ctx context.Context, id int64) (*domain.Booking, error) {
	current, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "Booking not found")
	}
	if _, err := s.flights.GetByIDForUpdate(ctx, current.FlightID); err != nil {
		return nil, mapNotFound(err, "Booking not found")
	}
	booking, err := s.bookings.GetByIDForUpdate(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "Booking not found")
	}
	return booking, nil
}

func (s *BookingService) ensureSeatFree(ctx context.Context, flightID int64, seat string, exceptID int64) error {
	existing, err := s.bookings.FindActiveBySeat(ctx, flightID, seat)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != exceptID:
		return domain.Validation("Seat is already booked")
	}
	return nil
}

// invalidate and publish run after commit, detached from request cancellation.
func (s *BookingService) invalidate(ctx context.Context) {
	s.inventory.InvalidateCache(context.WithoutCancel(ctx))
}

func (s *BookingService) publish(ctx context.Context, eventType string, booking *domain.Booking) {
	if s.producer == nil || s.topic == "" {
		return
	}
	event := kafka.BookingEvent(eventType, *booking)
	if err := s.producer.Publish(context.WithoutCancel(ctx), s.topic, event.Key(), event); err != nil {
		s.log.Warn("publish event failed", zap.String("type", eventType), zap.Int64("booking_id", booking.ID), zap.Error(err))
	}
}

func mapNotFound(err error, msg string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return domain.NotFound(msg)
	}
	return err
}

func mapSeatConflict(err error) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return domain.Conflict("Seat was booked by a concurrent request")
	}
	return err
}

var _ BookingUseCase = (*BookingService)(nil)
