package api

import (
	_ "embed"
	"net/http"

	"github.com/Domenick1991/flightreservation/internal/service/booking"
	"github.com/Domenick1991/flightreservation/internal/service/flights"
	"github.com/Domenick1991/flightreservation/internal/service/payments"
	"github.com/Domenick1991/flightreservation/internal/service/users"
	"github.com/gin-gonic/gin"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

//go:embed openapi.json
var openAPISpec []byte

type Services struct {
	Flights  flights.FlightUseCase
	Bookings booking.BookingUseCase
	Payments payments.PaymentUseCase
	Users    users.UserUseCase
}

// NewRouter builds the REST engine. health reports readiness for GET /health.
func NewRouter(svc Services, tokens TokenParser, health func() bool, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(Recovery(log), RequestLogger(log))

	r.GET("/health", func(c *gin.Context) {
		if health != nil && !health() {
			c.JSON(http.StatusServiceUnavailable, Response{Status: statusError, Message: "Service is shutting down"})
			return
		}
		respond(c, http.StatusOK, gin.H{"health": "ok"})
	})
	r.GET("/swagger/openapi.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", openAPISpec)
	})
	r.GET("/docs/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL("/swagger/openapi.json"))))

	apiGroup := r.Group("/api")
	required := Auth(tokens)
	adminOnly := []gin.HandlerFunc{required, AdminOnly()}

	usersGroup := apiGroup.Group("/users")
	NewUserHandler(svc.Users, svc.Bookings, log).Register(
		usersGroup,
		usersGroup.Group("", OptionalAuth(tokens)),
		usersGroup.Group("", required),
	)

	flightsGroup := apiGroup.Group("/flights")
	NewFlightHandler(svc.Flights, log).Register(
		flightsGroup,
		flightsGroup.Group("", adminOnly...),
	)

	bookingsGroup := apiGroup.Group("/bookings")
	NewBookingHandler(svc.Bookings, log).Register(
		bookingsGroup.Group("", required),
		bookingsGroup.Group("", adminOnly...),
	)

	paymentsGroup := apiGroup.Group("/payments")
	NewPaymentHandler(svc.Payments, log).Register(
		paymentsGroup.Group("", required),
		paymentsGroup.Group("", adminOnly...),
	)

	r.NoRoute(func(c *gin.Context) {
		respondMessage(c, http.StatusNotFound, "Route not found")
	})
	return r
}
