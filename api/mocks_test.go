package api

import (
	"context"

	"github.com/Domenick1991/flightreservation/internal/domain"
	"github.com/Domenick1991/flightreservation/internal/service/booking"
	"github.com/Domenick1991/flightreservation/internal/service/flights"
	"github.com/Domenick1991/flightreservation/internal/service/payments"
	"github.com/Domenick1991/flightreservation/internal/service/users"
	"github.com/stretchr/testify/mock"
)

// MockFlightUseCase is a mock implementation of flights.FlightUseCase
type MockFlightUseCase struct {
	mock.Mock
}

func (m *MockFlightUseCase) CreateFlight(ctx context.Context, actor domain.Actor, input flights.CreateFlightInput) (*domain.Flight, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) UpdateFlight(ctx context.Context, actor domain.Actor, id int64, input flights.UpdateFlightInput) (*domain.Flight, error) {
	args := m.Called(ctx, actor, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) DeleteFlight(ctx context.Context, actor domain.Actor, id int64) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *MockFlightUseCase) UpdateAvailableSeats(ctx context.Context, actor domain.Actor, id int64, delta int) (*domain.Flight, error) {
	args := m.Called(ctx, actor, id, delta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) GetFlight(ctx context.Context, id int64) (*domain.Flight, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) SearchFlights(ctx context.Context, criteria domain.FlightSearch) ([]domain.Flight, error) {
	args := m.Called(ctx, criteria)
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) GetUpcomingFlights(ctx context.Context) ([]domain.Flight, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) GetFlightsByStatus(ctx context.Context, status domain.FlightStatus) ([]domain.Flight, error) {
	args := m.Called(ctx, status)
	return args.Get(0).([]domain.Flight), args.Error(1)
}

// MockBookingUseCase is a mock implementation of booking.BookingUseCase
type MockBookingUseCase struct {
	mock.Mock
}

func (m *MockBookingUseCase) CreateBooking(ctx context.Context, actor domain.Actor, input booking.CreateBookingInput) (*domain.Booking, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) UpdateBooking(ctx context.Context, actor domain.Actor, id int64, input booking.UpdateBookingInput) (*domain.Booking, error) {
	args := m.Called(ctx, actor, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) CancelBooking(ctx context.Context, actor domain.Actor, id int64) (*domain.Booking, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) GetBooking(ctx context.Context, actor domain.Actor, id int64) (*domain.Booking, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) GetUserBookings(ctx context.Context, actor domain.Actor) ([]domain.Booking, error) {
	args := m.Called(ctx, actor)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) SearchBookings(ctx context.Context, actor domain.Actor, criteria domain.BookingSearch) ([]domain.Booking, error) {
	args := m.Called(ctx, actor, criteria)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) CompleteArrivedFlights(ctx context.Context) ([]domain.Booking, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

// MockPaymentUseCase is a mock implementation of payments.PaymentUseCase
type MockPaymentUseCase struct {
	mock.Mock
}

func (m *MockPaymentUseCase) CreatePayment(ctx context.Context, actor domain.Actor, input payments.CreatePaymentInput) (*domain.Payment, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentUseCase) UpdatePayment(ctx context.Context, actor domain.Actor, id int64, input payments.UpdatePaymentInput) (*domain.Payment, error) {
	args := m.Called(ctx, actor, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentUseCase) ProcessRefund(ctx context.Context, actor domain.Actor, id int64) (*domain.Payment, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentUseCase) GetPayment(ctx context.Context, actor domain.Actor, id int64) (*domain.Payment, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentUseCase) GetPaymentsByBooking(ctx context.Context, actor domain.Actor, bookingID int64) ([]domain.Payment, error) {
	args := m.Called(ctx, actor, bookingID)
	return args.Get(0).([]domain.Payment), args.Error(1)
}

func (m *MockPaymentUseCase) SearchPayments(ctx context.Context, actor domain.Actor, criteria domain.PaymentSearch) ([]domain.Payment, error) {
	args := m.Called(ctx, actor, criteria)
	return args.Get(0).([]domain.Payment), args.Error(1)
}

// MockUserUseCase is a mock implementation of users.UserUseCase
type MockUserUseCase struct {
	mock.Mock
}

func (m *MockUserUseCase) Register(ctx context.Context, actor domain.Actor, input users.RegisterInput) (*domain.User, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserUseCase) Login(ctx context.Context, input users.LoginInput) (*domain.User, string, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).(*domain.User), args.String(1), args.Error(2)
}

func (m *MockUserUseCase) GetProfile(ctx context.Context, actor domain.Actor) (*domain.User, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserUseCase) UpdateProfile(ctx context.Context, actor domain.Actor, input users.UpdateProfileInput) (*domain.User, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserUseCase) DeleteUser(ctx context.Context, actor domain.Actor, id int64) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *MockUserUseCase) GetUser(ctx context.Context, actor domain.Actor, id int64) (*domain.User, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserUseCase) GetAuditLogs(ctx context.Context, actor domain.Actor) ([]domain.AuditLog, error) {
	args := m.Called(ctx, actor)
	return args.Get(0).([]domain.AuditLog), args.Error(1)
}

// MockTokens is a mock implementation of TokenParser
type MockTokens struct {
	mock.Mock
}

func (m *MockTokens) Parse(raw string) (domain.Actor, error) {
	args := m.Called(raw)
	return args.Get(0).(domain.Actor), args.Error(1)
}
