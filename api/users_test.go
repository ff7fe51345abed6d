package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Domenick1991/flightreservation/internal/domain"
	"github.com/Domenick1991/flightreservation/internal/service/users"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestUserHandler_login(t *testing.T) {
	mockService := &MockUserUseCase{}
	handler := NewUserHandler(mockService, &MockBookingUseCase{}, zap.NewNop())

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	input := users.LoginInput{Email: "anna@example.com", Password: "secret-pass"}
	body, _ := json.Marshal(input)
	c.Request = httptest.NewRequest("POST", "/api/users/login", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	user := &domain.User{ID: 2, Email: "anna@example.com", PasswordHash: "$2a$hash", Role: domain.RoleUser}
	mockService.On("Login", c.Request.Context(), input).Return(user, "jwt-token", nil)

	handler.login(c)

	assert.Equal(t, http.StatusOK, w.Code)
	e := decode(t, w)
	var token string
	require.NoError(t, json.Unmarshal(e.Data["token"], &token))
	assert.Equal(t, "jwt-token", token)
	assert.NotContains(t, w.Body.String(), "$2a$hash")

	mockService.AssertExpectations(t)
}

func TestUserHandler_login_invalid(t *testing.T) {
	mockService := &MockUserUseCase{}
	handler := NewUserHandler(mockService, &MockBookingUseCase{}, zap.NewNop())

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	input := users.LoginInput{Email: "anna@example.com", Password: "wrong"}
	body, _ := json.Marshal(input)
	c.Request = httptest.NewRequest("POST", "/api/users/login", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	mockService.On("Login", c.Request.Context(), input).Return(nil, "", domain.Unauthenticated("Invalid credentials"))

	handler.login(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid credentials", decode(t, w).Message)
}

func TestUserHandler_register_validation(t *testing.T) {
	handler := NewUserHandler(&MockUserUseCase{}, &MockBookingUseCase{}, zap.NewNop())

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("POST", "/api/users/register",
		bytes.NewReader([]byte(`{"email":"not-an-email","password":"short","first_name":"Anna","last_name":"P"}`)))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.register(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	e := decode(t, w)
	assert.Equal(t, "Invalid email format", e.Errors["email"])
	assert.Equal(t, "Minimum is 8", e.Errors["password"])
	assert.Equal(t, "Minimum is 2", e.Errors["last_name"])
}

func TestUserHandler_deleteMe(t *testing.T) {
	mockService := &MockUserUseCase{}
	handler := NewUserHandler(mockService, &MockBookingUseCase{}, zap.NewNop())

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set(actorKey, userActor)
	c.Request = httptest.NewRequest("DELETE", "/api/users/me", nil)

	mockService.On("DeleteUser", c.Request.Context(), userActor, userActor.UserID).
		Return(domain.Validation("Cannot delete user with bookings"))

	handler.deleteMe(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Cannot delete user with bookings", decode(t, w).Message)
	mockService.AssertExpectations(t)
}

func TestUserHandler_auditLogs(t *testing.T) {
	mockService := &MockUserUseCase{}
	handler := NewUserHandler(mockService, &MockBookingUseCase{}, zap.NewNop())

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set(actorKey, userActor)
	c.Request = httptest.NewRequest("GET", "/api/users/me/audit-logs", nil)

	mockService.On("GetAuditLogs", c.Request.Context(), userActor).
		Return([]domain.AuditLog{{ID: 1, Action: "booking.created", EntityType: "booking"}}, nil)

	handler.auditLogs(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode(t, w).Data, "audit_logs")
	mockService.AssertExpectations(t)
}
