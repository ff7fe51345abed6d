package api

import (
	"net/http"

	"github.com/Domenick1991/flightreservation/internal/domain"
	"github.com/Domenick1991/flightreservation/internal/service/booking"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type BookingHandler struct {
	service booking.BookingUseCase
	log     *zap.Logger
}

func NewBookingHandler(service booking.BookingUseCase, log *zap.Logger) *BookingHandler {
	return &BookingHandler{service: service, log: log.With(zap.String("handler", "bookings"))}
}

func (h *BookingHandler) Register(user, admin *gin.RouterGroup) {
	user.POST("", h.create)
	user.GET("/my-bookings", h.mine)
	user.GET("/:id", h.get)
	user.PATCH("/:id", h.update)
	user.POST("/:id/cancel", h.cancel)

	admin.GET("", h.search)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req booking.CreateBookingInput
	if !bindJSON(c, &req) {
		return
	}
	b, err := h.service.CreateBooking(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		respondError(c, h.log, err, "create booking")
		return
	}
	respond(c, http.StatusCreated, gin.H{"booking": b})
}

func (h *BookingHandler) mine(c *gin.Context) {
	list, err := h.service.GetUserBookings(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, h.log, err, "user bookings")
		return
	}
	respond(c, http.StatusOK, gin.H{"bookings": list})
}

func (h *BookingHandler) get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	b, err := h.service.GetBooking(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, h.log, err, "get booking")
		return
	}
	respond(c, http.StatusOK, gin.H{"booking": b})
}

func (h *BookingHandler) update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req booking.UpdateBookingInput
	if !bindJSON(c, &req) {
		return
	}
	b, err := h.service.UpdateBooking(c.Request.Context(), actorFrom(c), id, req)
	if err != nil {
		respondError(c, h.log, err, "update booking")
		return
	}
	respond(c, http.StatusOK, gin.H{"booking": b})
}

func (h *BookingHandler) cancel(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	b, err := h.service.CancelBooking(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, h.log, err, "cancel booking")
		return
	}
	respond(c, http.StatusOK, gin.H{"booking": b})
}

func (h *BookingHandler) search(c *gin.Context) {
	criteria, err := bookingSearch(c)
	if err != nil {
		respondError(c, h.log, err, "search bookings")
		return
	}
	list, err := h.service.SearchBookings(c.Request.Context(), actorFrom(c), criteria)
	if err != nil {
		respondError(c, h.log, err, "search bookings")
		return
	}
	respond(c, http.StatusOK, gin.H{"bookings": list})
}

func bookingSearch(c *gin.Context) (domain.BookingSearch, error) {
	var (
		s   domain.BookingSearch
		err error
	)
	if s.UserID, err = queryInt64(c, "user_id"); err != nil {
		return s, err
	}
	if s.FlightID, err = queryInt64(c, "flight_id"); err != nil {
		return s, err
	}
	if s.StartDate, err = queryTime(c, "start_date"); err != nil {
		return s, err
	}
	if s.EndDate, err = queryEndTime(c, "end_date"); err != nil {
		return s, err
	}
	s.Status = domain.BookingStatus(c.Query("status"))
	return s, nil
}
