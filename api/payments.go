package api

import (
	"net/http"

	"github.com/Domenick1991/flightreservation/internal/domain"
	"github.com/Domenick1991/flightreservation/internal/service/payments"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	service payments.PaymentUseCase
	log     *zap.Logger
}

func NewPaymentHandler(service payments.PaymentUseCase, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{service: service, log: log.With(zap.String("handler", "payments"))}
}

func (h *PaymentHandler) Register(user, admin *gin.RouterGroup) {
	user.POST("", h.create)
	user.GET("/booking/:bookingId", h.byBooking)
	user.GET("/:id", h.get)
	user.POST("/:id/refund", h.refund)

	admin.GET("", h.search)
	admin.PATCH("/:id", h.update)
}

func (h *PaymentHandler) create(c *gin.Context) {
	var req payments.CreatePaymentInput
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.service.CreatePayment(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		respondError(c, h.log, err, "create payment")
		return
	}
	respond(c, http.StatusCreated, gin.H{"payment": p})
}

func (h *PaymentHandler) byBooking(c *gin.Context) {
	id, ok := pathID(c, "bookingId")
	if !ok {
		return
	}
	list, err := h.service.GetPaymentsByBooking(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, h.log, err, "booking payments")
		return
	}
	respond(c, http.StatusOK, gin.H{"payments": list})
}

func (h *PaymentHandler) get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, err := h.service.GetPayment(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, h.log, err, "get payment")
		return
	}
	respond(c, http.StatusOK, gin.H{"payment": p})
}

func (h *PaymentHandler) refund(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, err := h.service.ProcessRefund(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, h.log, err, "refund payment")
		return
	}
	respond(c, http.StatusOK, gin.H{"payment": p})
}

func (h *PaymentHandler) update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req payments.UpdatePaymentInput
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.service.UpdatePayment(c.Request.Context(), actorFrom(c), id, req)
	if err != nil {
		respondError(c, h.log, err, "update payment")
		return
	}
	respond(c, http.StatusOK, gin.H{"payment": p})
}

func (h *PaymentHandler) search(c *gin.Context) {
	var (
		criteria domain.PaymentSearch
		err      error
	)
	if criteria.BookingID, err = queryInt64(c, "booking_id"); err == nil {
		if criteria.StartDate, err = queryTime(c, "start_date"); err == nil {
			criteria.EndDate, err = queryEndTime(c, "end_date")
		}
	}
	if err != nil {
		respondError(c, h.log, err, "search payments")
		return
	}
	criteria.Status = domain.PaymentStatus(c.Query("status"))

	list, err := h.service.SearchPayments(c.Request.Context(), actorFrom(c), criteria)
	if err != nil {
		respondError(c, h.log, err, "search payments")
		return
	}
	respond(c, http.StatusOK, gin.H{"payments": list})
}
