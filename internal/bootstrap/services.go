package bootstrap

import (
	"github.com/Domenick1991/flightreservation/api"
	"github.com/Domenick1991/flightreservation/config"
	"github.com/Domenick1991/flightreservation/internal/auth"
	"github.com/Domenick1991/flightreservation/internal/cache"
	"github.com/Domenick1991/flightreservation/internal/kafka"
	"github.com/Domenick1991/flightreservation/internal/service/booking"
	"github.com/Domenick1991/flightreservation/internal/service/flights"
	"github.com/Domenick1991/flightreservation/internal/service/payments"
	"github.com/Domenick1991/flightreservation/internal/service/users"
	"go.uber.org/zap"
)

// Dependencies are the optional infrastructure pieces. Nil fields switch the
// matching feature off.
type Dependencies struct {
	Cache    *cache.RedisCache
	Producer *kafka.Producer
}

type ServiceSet struct {
	Flights  *flights.FlightService
	Bookings *booking.BookingService
	Payments *payments.PaymentService
	Users    *users.UserService
	Tokens   *auth.TokenManager
}

func (s *ServiceSet) API() api.Services {
	return api.Services{
		Flights:  s.Flights,
		Bookings: s.Bookings,
		Payments: s.Payments,
		Users:    s.Users,
	}
}

func NewServiceSet(cfg *config.Config, store *Storage, deps Dependencies, log *zap.Logger) *ServiceSet {
	flightOpts := []flights.FlightServiceOption{flights.WithLogger(log)}
	bookingOpts := []booking.BookingServiceOption{booking.WithLogger(log)}
	paymentOpts := []payments.PaymentServiceOption{payments.WithLogger(log)}

	if deps.Cache != nil {
		flightOpts = append(flightOpts, flights.WithCache(deps.Cache))
		bookingOpts = append(bookingOpts, booking.WithSeatLocker(deps.Cache, cfg.Booking.SeatLockTTL()))
	}
	if deps.Producer != nil {
		topic := cfg.Kafka.EventsTopic
		flightOpts = append(flightOpts, flights.WithProducer(deps.Producer, topic))
		bookingOpts = append(bookingOpts, booking.WithProducer(deps.Producer, topic))
		paymentOpts = append(paymentOpts, payments.WithProducer(deps.Producer, topic))
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())
	flightService := flights.NewFlightService(store.Flights, store.Bookings, store.Tx, flightOpts...)

	return &ServiceSet{
		Flights: flightService,
		Bookings: booking.NewBookingService(
			store.Bookings, store.Flights, store.Users, flightService, store.Tx, bookingOpts...,
		),
		Payments: payments.NewPaymentService(store.Payments, store.Bookings, store.Tx, paymentOpts...),
		Users: users.NewUserService(
			store.Users, store.Bookings, store.AuditLogs, tokens,
			users.WithBcryptCost(cfg.Auth.BcryptCost), users.WithLogger(log),
		),
		Tokens: tokens,
	}
}
