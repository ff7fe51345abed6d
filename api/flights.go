package api

import (
	"net/http"
	"strings"

	"github.com/Domenick1991/flightreservation/internal/domain"
	"github.com/Domenick1991/flightreservation/internal/service/flights"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type FlightHandler struct {
	service flights.FlightUseCase
	log     *zap.Logger
}

func NewFlightHandler(service flights.FlightUseCase, log *zap.Logger) *FlightHandler {
	return &FlightHandler{service: service, log: log.With(zap.String("handler", "flights"))}
}

type seatsRequest struct {
	Delta int `json:"delta" binding:"required"`
}

// Register mounts public reads on public and writes on admin.
func (h *FlightHandler) Register(public, admin *gin.RouterGroup) {
	public.GET("", h.search)
	public.GET("/upcoming", h.upcoming)
	public.GET("/status/:status", h.byStatus)
	public.GET("/:id", h.get)

	admin.POST("", h.create)
	admin.PATCH("/:id", h.update)
	admin.DELETE("/:id", h.delete)
	admin.PATCH("/:id/seats", h.updateSeats)
}

func (h *FlightHandler) search(c *gin.Context) {
	date, err := queryTime(c, "departure_date")
	if err != nil {
		respondError(c, h.log, err, "search flights")
		return
	}
	passengers, err := queryInt64(c, "passengers")
	if err != nil {
		respondError(c, h.log, err, "search flights")
		return
	}

	list, err := h.service.SearchFlights(c.Request.Context(), domain.FlightSearch{
		DepartureCity: strings.TrimSpace(c.Query("departure_city")),
		ArrivalCity:   strings.TrimSpace(c.Query("arrival_city")),
		DepartureDate: date,
		Passengers:    int(passengers),
	})
	if err != nil {
		respondError(c, h.log, err, "search flights")
		return
	}
	respond(c, http.StatusOK, gin.H{"flights": list})
}

func (h *FlightHandler) upcoming(c *gin.Context) {
	list, err := h.service.GetUpcomingFlights(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err, "upcoming flights")
		return
	}
	respond(c, http.StatusOK, gin.H{"flights": list})
}

func (h *FlightHandler) byStatus(c *gin.Context) {
	list, err := h.service.GetFlightsByStatus(c.Request.Context(), domain.FlightStatus(c.Param("status")))
	if err != nil {
		respondError(c, h.log, err, "flights by status")
		return
	}
	respond(c, http.StatusOK, gin.H{"flights": list})
}

func (h *FlightHandler) get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	flight, err := h.service.GetFlight(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err, "get flight")
		return
	}
	respond(c, http.StatusOK, gin.H{"flight": flight})
}

func (h *FlightHandler) create(c *gin.Context) {
	var req flights.CreateFlightInput
	if !bindJSON(c, &req) {
		return
	}
	flight, err := h.service.CreateFlight(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		respondError(c, h.log, err, "create flight")
		return
	}
	respond(c, http.StatusCreated, gin.H{"flight": flight})
}

func (h *FlightHandler) update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req flights.UpdateFlightInput
	if !bindJSON(c, &req) {
		return
	}
	flight, err := h.service.UpdateFlight(c.Request.Context(), actorFrom(c), id, req)
	if err != nil {
		respondError(c, h.log, err, "update flight")
		return
	}
	respond(c, http.StatusOK, gin.H{"flight": flight})
}

func (h *FlightHandler) delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteFlight(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, h.log, err, "delete flight")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *FlightHandler) updateSeats(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req seatsRequest
	if !bindJSON(c, &req) {
		return
	}
	flight, err := h.service.UpdateAvailableSeats(c.Request.Context(), actorFrom(c), id, req.Delta)
	if err != nil {
		respondError(c, h.log, err, "update seats")
		return
	}
	respond(c, http.StatusOK, gin.H{"flight": flight})
}
