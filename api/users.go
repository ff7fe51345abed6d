package api

import (
	"net/http"

	"github.com/Domenick1991/flightreservation/internal/service/booking"
	"github.com/Domenick1991/flightreservation/internal/service/users"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UserHandler struct {
	service  users.UserUseCase
	bookings booking.BookingUseCase
	log      *zap.Logger
}

func NewUserHandler(service users.UserUseCase, bookings booking.BookingUseCase, log *zap.Logger) *UserHandler {
	return &UserHandler{service: service, bookings: bookings, log: log.With(zap.String("handler", "users"))}
}

// Register mounts account routes. optional carries OptionalAuth so an admin
// can register other admins; user requires a token.
func (h *UserHandler) Register(public, optional, user *gin.RouterGroup) {
	optional.POST("/register", h.register)
	public.POST("/login", h.login)

	user.GET("/me", h.profile)
	user.PATCH("/me", h.updateProfile)
	user.DELETE("/me", h.deleteMe)
	user.GET("/me/audit-logs", h.auditLogs)

	// Legacy paths kept for existing clients.
	user.GET("/profile", h.profile)
	user.PATCH("/profile", h.updateProfile)
	user.GET("/bookings", h.userBookings)
	user.GET("/audit-logs", h.auditLogs)

	user.GET("/:id", h.get)
}

func (h *UserHandler) userBookings(c *gin.Context) {
	list, err := h.bookings.GetUserBookings(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, h.log, err, "user bookings")
		return
	}
	respond(c, http.StatusOK, gin.H{"bookings": list})
}

func (h *UserHandler) register(c *gin.Context) {
	var req users.RegisterInput
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.service.Register(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		respondError(c, h.log, err, "register")
		return
	}
	respond(c, http.StatusCreated, gin.H{"user": u})
}

func (h *UserHandler) login(c *gin.Context) {
	var req users.LoginInput
	if !bindJSON(c, &req) {
		return
	}
	u, token, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err, "login")
		return
	}
	respond(c, http.StatusOK, gin.H{"user": u, "token": token})
}

func (h *UserHandler) profile(c *gin.Context) {
	u, err := h.service.GetProfile(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, h.log, err, "get profile")
		return
	}
	respond(c, http.StatusOK, gin.H{"user": u})
}

func (h *UserHandler) updateProfile(c *gin.Context) {
	var req users.UpdateProfileInput
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.service.UpdateProfile(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		respondError(c, h.log, err, "update profile")
		return
	}
	respond(c, http.StatusOK, gin.H{"user": u})
}

func (h *UserHandler) deleteMe(c *gin.Context) {
	actor := actorFrom(c)
	if err := h.service.DeleteUser(c.Request.Context(), actor, actor.UserID); err != nil {
		respondError(c, h.log, err, "delete user")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) auditLogs(c *gin.Context) {
	logs, err := h.service.GetAuditLogs(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, h.log, err, "audit logs")
		return
	}
	respond(c, http.StatusOK, gin.H{"audit_logs": logs})
}

func (h *UserHandler) get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	u, err := h.service.GetUser(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, h.log, err, "get user")
		return
	}
	respond(c, http.StatusOK, gin.H{"user": u})
}
