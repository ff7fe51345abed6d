package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Domenick1991/flightreservation/internal/domain"
	"github.com/Domenick1991/flightreservation/internal/kafka"
	"github.com/Domenick1991/flightreservation/internal/repository"
	"github.com/Domenick1991/flightreservation/internal/repository/memory"
	"github.com/Domenick1991/flightreservation/internal/service/flights"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSeatLocker struct {
	mock.Mock
}

func (m *MockSeatLocker) AcquireSeatLock(ctx context.Context, flightID int64, seat string, ttl time.Duration) (string, bool, error) {
	args := m.Called(ctx, flightID, seat, ttl)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockSeatLocker) ReleaseSeatLock(ctx context.Context, flightID int64, seat, token string) error {
	args := m.Called(ctx, flightID, seat, token)
	return args.Error(0)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value any) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

var (
	now   = time.Date(2030, 3, 1, 12, 0, 0, 0, time.UTC)
	admin = domain.Actor{UserID: 1, Role: domain.RoleAdmin}
)

type fixture struct {
	store   *memory.Store
	flights *flights.FlightService
	svc     *BookingService
	owner   domain.Actor
	other   domain.Actor
}

func newFixture(t *testing.T, opts ...BookingServiceOption) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	clock := func() time.Time { return now }

	for _, email := range []string{"admin@example.com", "ann@example.com", "bob@example.com"} {
		u := &domain.User{Email: email, FirstName: "F", LastName: "L", Role: domain.RoleUser}
		require.NoError(t, store.Users().Create(ctx, u))
	}

	flightSvc := flights.NewFlightService(store.Flights(), store.Bookings(), store, flights.WithNow(clock))
	opts = append([]BookingServiceOption{WithNow(clock)}, opts...)
	svc := NewBookingService(store.Bookings(), store.Flights(), store.Users(), flightSvc, store, opts...)

	return &fixture{
		store:   store,
		flights: flightSvc,
		svc:     svc,
		owner:   domain.Actor{UserID: 2, Role: domain.RoleUser},
		other:   domain.Actor{UserID: 3, Role: domain.RoleUser},
	}
}

func (f *fixture) createFlight(t *testing.T, number string, seats int) *domain.Flight {
	t.Helper()
	departure := now.Add(24 * time.Hour)
	flight, err := f.flights.CreateFlight(context.Background(), admin, flights.CreateFlightInput{
		FlightNumber:     number,
		DepartureCity:    "Moscow",
		ArrivalCity:      "Kazan",
		DepartureAirport: "SVO",
		ArrivalAirport:   "KZN",
		DepartureTime:    departure,
		ArrivalTime:      departure.Add(time.Hour),
		TotalSeats:       seats,
		Price:            decimal.RequireFromString("199.99"),
	})
	require.NoError(t, err)
	return flight
}

func (f *fixture) available(t *testing.T, flightID int64) int {
	t.Helper()
	flight, err := f.flights.GetFlight(context.Background(), flightID)
	require.NoError(t, err)
	return flight.AvailableSeats
}

func TestBookingService_CreateBooking_Success(t *testing.T) {
	f := newFixture(t)
	flight := f.createFlight(t, "SU100", 10)

	booking, err := f.svc.CreateBooking(context.Background(), f.owner, CreateBookingInput{FlightID: flight.ID, SeatNumber: " 12c "})

	require.NoError(t, err)
	assert.NotZero(t, booking.ID)
	assert.Equal(t, domain.BookingStatusPending, booking.Status)
	assert.Equal(t, "12C", booking.SeatNumber)
	assert.Equal(t, f.owner.UserID, booking.UserID)
	assert.True(t, booking.TotalPrice.Equal(flight.Price))
	assert.Equal(t, now, booking.BookingDate)
	assert.Equal(t, 9, f.available(t, flight.ID))
}

func TestBookingService_CreateBooking_Failures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	flight := f.createFlight(t, "SU100", 10)

	_, err := f.svc.CreateBooking(ctx, f.owner, CreateBookingInput{FlightID: 999, SeatNumber: "1A"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, "Flight not found", domain.Message(err))

	_, err = f.svc.CreateBooking(ctx, domain.Actor{UserID: 404, Role: domain.RoleUser}, CreateBookingInput{FlightID: flight.ID, SeatNumber: "1A"})
	assert.Equal(t, "User not found", domain.Message(err))

	_, err = f.svc.CreateBooking(ctx, domain.Actor{}, CreateBookingInput{FlightID: flight.ID, SeatNumber: "1A"})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = f.svc.CreateBooking(ctx, f.owner, CreateBookingInput{FlightID: flight.ID, SeatNumber: "1A", UserID: f.other.UserID})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.CreateBooking(ctx, f.owner, CreateBookingInput{FlightID: flight.ID, SeatNumber: "1A"})
	require.NoError(t, err)
	_, err = f.svc.CreateBooking(ctx, f.other, CreateBookingInput{FlightID: flight.ID, SeatNumber: "1a"})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, "Seat is already booked", domain.Message(err))

	delayed := domain.FlightStatusDelayed
	_, err = f.flights.UpdateFlight(ctx, admin, flight.ID, flights.UpdateFlightInput{Status: &delayed})
	require.NoError(t, err)
	_, err = f.svc.CreateBooking(ctx, f.other, CreateBookingInput{FlightID: flight.ID, SeatNumber: "2A"})
	assert.Equal(t, "Flight is not available for booking", domain.Message(err))

	assert.Equal(t, 9, f.available(t, flight.ID))
}

func TestBookingService_CreateBooking_AdminOnBehalf(t *testing.T) {
	f := newFixture(t)
	flight := f.createFlight(t, "SU100", 10)
	price := decimal.RequireFromString("50")

	booking, err := f.svc.CreateBooking(context.Background(), admin, CreateBookingInput{
		FlightID:   flight.ID,
		SeatNumber: "3F",
		UserID:     f.other.UserID,
		TotalPrice: &price,
	})

	require.NoError(t, err)
	assert.Equal(t, f.other.UserID, booking.UserID)
	assert.True(t, booking.TotalPrice.Equal(price))
}

func TestBookingService_LastSeatScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	flight := f.createFlight(t, "SU100", 1)

	a, err := f.svc.CreateBooking(ctx, f.owner, CreateBookingInput{FlightID: flight.ID, SeatNumber: "1A"})
	require.NoError(t, err)
	assert.Equal(t, 0, f.available(t, flight.ID))

	_, err = f.svc.CreateBooking(ctx, f.other, CreateBookingInput{FlightID: flight.ID, SeatNumber: "1B"})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, "No available seats on this flight", domain.Message(err))

	_, err = f.svc.CancelBooking(ctx, f.owner, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, f.available(t, flight.ID))

	_, err = f.svc.CreateBooking(ctx, f.other, CreateBookingInput{FlightID: flight.ID, SeatNumber: "1B"})
	require.NoError(t, err)
	assert.Equal(t, 0, f.available(t, flight.ID))
}

func TestBookingService_ConcurrentLastSeat(t *testing.T) {
	f := newFixture(t)
	flight := f.createFlight(t, "SU100", 1)

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		failures  []error
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			seat := []string{"1A", "1B"}[i%2]
			_, err := f.svc.CreateBooking(context.Background(), f.owner, CreateBookingInput{FlightID: flight.ID, SeatNumber: seat})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
				return
			}
			failures = append(failures, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	for _, err := range failures {
		assert.True(t, errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrConflict), err.Error())
	}
	assert.Equal(t, 0, f.available(t, flight.ID))

	bookings, err := f.store.Bookings().ListByFlight(context.Background(), flight.ID)
	require.NoError(t, err)
	assert.Len(t, bookings, 1)
}

func TestBookingService_CancelBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	flight := f.createFlight(t, "SU100", 5)

	booking, err := f.svc.CreateBooking(ctx, f.owner, CreateBookingInput{FlightID: flight.ID, SeatNumber: "1A"})
	require.NoError(t, err)

	_, err = f.svc.CancelBooking(ctx, f.other, booking.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	cancelled, err := f.svc.CancelBooking(ctx, f.owner, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCancelled, cancelled.Status)
	assert.Equal(t, 5, f.available(t, flight.ID))

	_, err = f.svc.CancelBooking(ctx, f.owner, booking.ID)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, "Booking is already cancelled", domain.Message(err))
	assert.Equal(t, 5, f.available(t, flight.ID))

	_, err = f.svc.CancelBooking(ctx, f.owner, 999)
	assert.Equal(t, "Booking not found", domain.Message(err))

	rebooked, err := f.svc.CreateBooking(ctx, f.other, CreateBookingInput{FlightID: flight.ID, SeatNumber: "1A"})
	require.NoError(t, err, "cancelled bookings free their seat")
	assert.NotEqual(t, booking.ID, rebooked.ID)
}

func TestBookingService_CancelBooking_RollsBackWhenSeatRestoreFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	flight := f.createFlight(t, "SU100", 5)

	booking, err := f.svc.CreateBooking(ctx, f.owner, CreateBookingInput{FlightID: flight.ID, SeatNumber: "1A"})
	require.NoError(t, err)

	// Restoring the seat would exceed total seats.
	_, err = f.flights.AdjustAvailableSeats(ctx, flight.ID, 1)
	require.NoError(t, err)

	_, err = f.svc.CancelBooking(ctx, f.owner, booking.ID)
	assert.Equal(t, "Cannot exceed total seats", domain.Message(err))

	got, err := f.svc.GetBooking(ctx, f.owner, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusPending, got.Status)
}

func TestBookingService_UpdateBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	flight := f.createFlight(t, "SU100", 5)

	a, err := f.svc.CreateBooking(ctx, f.owner, CreateBookingInput{FlightID: flight.ID, SeatNumber: "1A"})
	require.NoError(t, err)
	_, err = f.svc.CreateBooking(ctx, f.other, CreateBookingInput{FlightID: flight.ID, SeatNumber: "1B"})
	require.NoError(t, err)

	taken := "1b"
	_, err = f.svc.UpdateBooking(ctx, f.owner, a.ID, UpdateBookingInput{SeatNumber: &taken})
	assert.Equal(t, "Seat is already booked", domain.Message(err))

	same := "1A"
	moved, err := f.svc.UpdateBooking(ctx, f.owner, a.ID, UpdateBookingInput{SeatNumber: &same})
	require.NoError(t, err, "keeping the own seat is not a conflict")
	assert.Equal(t, "1A", moved.SeatNumber)

	free := "2C"
	moved, err = f.svc.UpdateBooking(ctx, f.owner, a.ID, UpdateBookingInput{SeatNumber: &free})
	require.NoError(t, err)
	assert.Equal(t, "2C", moved.SeatNumber)

	confirmed := domain.BookingStatusConfirmed
	_, err = f.svc.UpdateBooking(ctx, f.owner, a.ID, UpdateBookingInput{Status: &confirmed})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.UpdateBooking(ctx, f.other, a.ID, UpdateBookingInput{SeatNumber: &free})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	updated, err := f.svc.UpdateBooking(ctx, admin, a.ID, UpdateBookingInput{Status: &confirmed})
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusConfirmed, updated.Status)

	pending := domain.BookingStatusPending
	_, err = f.svc.UpdateBooking(ctx, admin, a.ID, UpdateBookingInput{Status: &pending})
	assert.Equal(t, "Invalid booking status transition from confirmed to pending", domain.Message(err))

	_, err = f.svc.UpdateBooking(ctx, admin, 999, UpdateBookingInput{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBookingService_UpdateBooking_CancelReleasesSeat(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	flight := f.createFlight(t, "SU100", 2)

	booking, err := f.svc.CreateBooking(ctx, f.owner, CreateBookingInput{FlightID: flight.ID, SeatNumber: "1A"})
	require.NoError(t, err)
	assert.Equal(t, 1, f.available(t, flight.ID))

	cancelled := domain.BookingStatusCancelled
	updated, err := f.svc.UpdateBooking(ctx, admin, booking.ID, UpdateBookingInput{Status: &cancelled})
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCancelled, updated.Status)
	assert.Equal(t, 2, f.available(t, flight.ID))

	seat := "1B"
	_, err = f.svc.UpdateBooking(ctx, f.owner, booking.ID, UpdateBookingInput{SeatNumber: &seat})
	assert.Equal(t, "Booking can no longer be modified", domain.Message(err))
}

func TestBookingService_GetAndList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	flight := f.createFlight(t, "SU100", 5)

	booking, err := f.svc.CreateBooking(ctx, f.owner, CreateBookingInput{FlightID: flight.ID, SeatNumber: "1A"})
	require.NoError(t, err)

	_, err = f.svc.GetBooking(ctx, f.other, booking.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	got, err := f.svc.GetBooking(ctx, admin, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.ID, got.ID)

	mine, err := f.svc.GetUserBookings(ctx, f.owner)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	_, err = f.svc.GetUserBookings(ctx, domain.Actor{UserID: 404, Role: domain.RoleUser})
	assert.Equal(t, "User not found", domain.Message(err))
}

func TestBookingService_SearchBookings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.createFlight(t, "SU100", 5)
	second := f.createFlight(t, "SU200", 5)

	_, err := f.svc.CreateBooking(ctx, f.owner, CreateBookingInput{FlightID: first.ID, SeatNumber: "1A"})
	require.NoError(t, err)
	_, err = f.svc.CreateBooking(ctx, f.other, CreateBookingInput{FlightID: second.ID, SeatNumber: "1A"})
	require.NoError(t, err)

	_, err = f.svc.SearchBookings(ctx, f.owner, domain.BookingSearch{UserID: f.owner.UserID})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	byUser, err := f.svc.SearchBookings(ctx, admin, domain.BookingSearch{UserID: f.owner.UserID, FlightID: second.ID})
	require.NoError(t, err)
	require.Len(t, byUser, 1, "user id wins over flight id")
	assert.Equal(t, first.ID, byUser[0].FlightID)

	byFlight, err := f.svc.SearchBookings(ctx, admin, domain.BookingSearch{FlightID: second.ID, Status: domain.BookingStatusCancelled})
	require.NoError(t, err)
	require.Len(t, byFlight, 1)

	byRange, err := f.svc.SearchBookings(ctx, admin, domain.BookingSearch{StartDate: now.Add(-time.Hour), EndDate: now.Add(time.Hour)})
	require.NoError(t, err)
	assert.Len(t, byRange, 2)

	halfRange, err := f.svc.SearchBookings(ctx, admin, domain.BookingSearch{StartDate: now.Add(-time.Hour), Status: domain.BookingStatusCancelled})
	require.NoError(t, err)
	assert.Empty(t, halfRange, "a half-open range falls through to status")

	none, err := f.svc.SearchBookings(ctx, admin, domain.BookingSearch{})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestBookingService_CompleteArrivedFlights(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	flight := f.createFlight(t, "SU100", 5)

	confirmed := domain.BookingStatusConfirmed
	a, err := f.svc.CreateBooking(ctx, f.owner, CreateBookingInput{FlightID: flight.ID, SeatNumber: "1A"})
	require.NoError(t, err)
	_, err = f.svc.UpdateBooking(ctx, admin, a.ID, UpdateBookingInput{Status: &confirmed})
	require.NoError(t, err)
	b, err := f.svc.CreateBooking(ctx, f.other, CreateBookingInput{FlightID: flight.ID, SeatNumber: "1B"})
	require.NoError(t, err)

	done, err := f.svc.CompleteArrivedFlights(ctx)
	require.NoError(t, err)
	assert.Empty(t, done)

	f.svc.now = func() time.Time { return flight.ArrivalTime.Add(time.Minute) }
	done, err = f.svc.CompleteArrivedFlights(ctx)
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, a.ID, done[0].ID)

	pending, err := f.svc.GetBooking(ctx, admin, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusPending, pending.Status)

	completedFlight, err := f.flights.GetFlight(ctx, flight.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.FlightStatusCompleted, completedFlight.Status)

	_, err = f.svc.CancelBooking(ctx, f.owner, a.ID)
	assert.Equal(t, "Completed booking cannot be cancelled", domain.Message(err))
}

func TestBookingService_SeatLock(t *testing.T) {
	locker := &MockSeatLocker{}
	f := newFixture(t, WithSeatLocker(locker, 15*time.Second))
	ctx := context.Background()
	flight := f.createFlight(t, "SU100", 5)

	locker.On("AcquireSeatLock", ctx, flight.ID, "1A", 15*time.Second).Return("token-1", true, nil).Once()
	locker.On("ReleaseSeatLock", mock.Anything, flight.ID, "1A", "token-1").Return(nil).Once()

	_, err := f.svc.CreateBooking(ctx, f.owner, CreateBookingInput{FlightID: flight.ID, SeatNumber: "1a"})
	require.NoError(t, err)
	locker.AssertExpectations(t)

	locker.On("AcquireSeatLock", ctx, flight.ID, "2A", 15*time.Second).Return("", false, nil).Once()
	_, err = f.svc.CreateBooking(ctx, f.other, CreateBookingInput{FlightID: flight.ID, SeatNumber: "2A"})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, "Seat is being booked by another request", domain.Message(err))
	assert.Equal(t, 4, f.available(t, flight.ID))
}

func TestBookingService_SeatLockBackendDownFallsThrough(t *testing.T) {
	locker := &MockSeatLocker{}
	f := newFixture(t, WithSeatLocker(locker, time.Second))
	ctx := context.Background()
	flight := f.createFlight(t, "SU100", 5)

	locker.On("AcquireSeatLock", ctx, flight.ID, "1A", time.Second).Return("", false, errors.New("redis down")).Once()

	_, err := f.svc.CreateBooking(ctx, f.owner, CreateBookingInput{FlightID: flight.ID, SeatNumber: "1A"})
	require.NoError(t, err)
	locker.AssertNotCalled(t, "ReleaseSeatLock", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingService_PublishesEvents(t *testing.T) {
	producer := &MockProducer{}
	f := newFixture(t, WithProducer(producer, "events"))
	ctx := context.Background()
	flight := f.createFlight(t, "SU100", 5)

	producer.On("Publish", mock.Anything, "events", mock.Anything, mock.MatchedBy(func(e kafka.Event) bool {
		return e.Type == kafka.EventBookingCreated && e.UserID == f.owner.UserID && e.SeatNumber == "1A"
	})).Return(nil).Once()
	booking, err := f.svc.CreateBooking(ctx, f.owner, CreateBookingInput{FlightID: flight.ID, SeatNumber: "1A"})
	require.NoError(t, err)

	producer.On("Publish", mock.Anything, "events", mock.Anything, mock.MatchedBy(func(e kafka.Event) bool {
		return e.Type == kafka.EventBookingCancelled && e.BookingID == booking.ID
	})).Return(errors.New("broker down")).Once()
	_, err = f.svc.CancelBooking(ctx, f.owner, booking.ID)
	require.NoError(t, err)

	producer.AssertExpectations(t)
}

type recordingCache struct {
	mu            sync.Mutex
	invalidateErr []error
}

func (c *recordingCache) GetUpcomingFlights(ctx context.Context) ([]domain.Flight, error) {
	return nil, nil
}

func (c *recordingCache) SetUpcomingFlights(ctx context.Context, flights []domain.Flight) error {
	return nil
}

func (c *recordingCache) InvalidateFlights(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidateErr = append(c.invalidateErr, ctx.Err())
	return ctx.Err()
}

// cancellingUsers cancels the request while the transaction is running.
type cancellingUsers struct {
	repository.UserRepository
	cancel context.CancelFunc
}

func (u cancellingUsers) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	u.cancel()
	return u.UserRepository.GetByID(ctx, id)
}

func TestBookingService_PostCommitWorkSurvivesCancelledRequest(t *testing.T) {
	store := memory.NewStore()
	clock := func() time.Time { return now }
	for _, email := range []string{"admin@example.com", "ann@example.com"} {
		require.NoError(t, store.Users().Create(context.Background(), &domain.User{Email: email, Role: domain.RoleUser}))
	}

	cache := &recordingCache{}
	flightSvc := flights.NewFlightService(store.Flights(), store.Bookings(), store, flights.WithCache(cache), flights.WithNow(clock))
	departure := now.Add(24 * time.Hour)
	flight, err := flightSvc.CreateFlight(context.Background(), admin, flights.CreateFlightInput{
		FlightNumber: "SU100", DepartureCity: "Moscow", ArrivalCity: "Kazan",
		DepartureAirport: "SVO", ArrivalAirport: "KZN",
		DepartureTime: departure, ArrivalTime: departure.Add(time.Hour),
		TotalSeats: 2, Price: decimal.RequireFromString("100"),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	producer := &MockProducer{}
	producer.On("Publish", mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil }),
		"events", mock.Anything, mock.MatchedBy(func(e kafka.Event) bool {
			return e.Type == kafka.EventBookingCreated
		})).Return(nil).Once()

	users := cancellingUsers{UserRepository: store.Users(), cancel: cancel}
	svc := NewBookingService(store.Bookings(), store.Flights(), users, flightSvc, store,
		WithNow(clock), WithProducer(producer, "events"))

	booking, err := svc.CreateBooking(ctx, domain.Actor{UserID: 2, Role: domain.RoleUser},
		CreateBookingInput{FlightID: flight.ID, SeatNumber: "1A"})
	require.NoError(t, err)
	require.Error(t, ctx.Err())
	assert.NotZero(t, booking.ID)

	cache.mu.Lock()
	defer cache.mu.Unlock()
	require.Len(t, cache.invalidateErr, 2)
	assert.NoError(t, cache.invalidateErr[1])
	producer.AssertExpectations(t)
}

type lockLog struct {
	mu    sync.Mutex
	locks []string
}

func (l *lockLog) add(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.locks = append(l.locks, name)
}

type lockingFlights struct {
	repository.FlightRepository
	log *lockLog
}

func (r lockingFlights) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Flight, error) {
	r.log.add("flight")
	return r.FlightRepository.GetByIDForUpdate(ctx, id)
}

type lockingBookings struct {
	repository.BookingRepository
	log *lockLog
}

func (r lockingBookings) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Booking, error) {
	r.log.add("booking")
	return r.BookingRepository.GetByIDForUpdate(ctx, id)
}

func TestBookingService_LocksFlightBeforeBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	flight := f.createFlight(t, "SU100", 5)
	booking, err := f.svc.CreateBooking(ctx, f.owner, CreateBookingInput{FlightID: flight.ID, SeatNumber: "1A"})
	require.NoError(t, err)

	locks := &lockLog{}
	svc := NewBookingService(
		lockingBookings{BookingRepository: f.store.Bookings(), log: locks},
		lockingFlights{FlightRepository: f.store.Flights(), log: locks},
		f.store.Users(), f.flights, f.store, WithNow(func() time.Time { return now }),
	)

	seat := "2B"
	_, err = svc.UpdateBooking(ctx, f.owner, booking.ID, UpdateBookingInput{SeatNumber: &seat})
	require.NoError(t, err)
	assert.Equal(t, []string{"flight", "booking"}, locks.locks)

	locks.locks = nil
	_, err = svc.CancelBooking(ctx, f.owner, booking.ID)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(locks.locks), 2)
	assert.Equal(t, []string{"flight", "booking"}, locks.locks[:2])
}
