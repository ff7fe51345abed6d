package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/Domenick1991/flightreservation/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

type Response struct {
	Status  string            `json:"status"`
	Message string            `json:"message,omitempty"`
	Data    any               `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func respond(c *gin.Context, code int, data gin.H) {
	c.JSON(code, Response{Status: statusSuccess, Data: data})
}

func respondMessage(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(code, Response{Status: statusError, Message: msg})
}

// respondError renders err with the status code of its domain kind. Errors
// without a kind are logged and hidden behind a generic message.
func respondError(c *gin.Context, log *zap.Logger, err error, operation string) {
	var derr *domain.Error
	if !errors.As(err, &derr) {
		log.Error(operation+" failed", zap.Error(err), zap.String("path", c.FullPath()))
		respondMessage(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	code := statusFor(derr.Kind)
	log.Debug(operation+" rejected", zap.String("reason", derr.Message), zap.Int("status", code))
	respondMessage(c, code, derr.Message)
}

func statusFor(kind error) int {
	switch {
	case errors.Is(kind, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(kind, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(kind, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(kind, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(kind, domain.ErrConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// bindJSON decodes the body into dst and answers 400 on failure.
func bindJSON(c *gin.Context, dst any) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		c.AbortWithStatusJSON(http.StatusBadRequest, Response{
			Status:  statusError,
			Message: "Validation failed",
			Errors:  fieldErrors(verrs),
		})
	case errors.Is(err, io.EOF):
		respondMessage(c, http.StatusBadRequest, "Request body is required")
	default:
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			respondMessage(c, http.StatusBadRequest, fmt.Sprintf("Invalid value for %s", typeErr.Field))
			return false
		}
		respondMessage(c, http.StatusBadRequest, "Invalid request body")
	}
	return false
}

func fieldErrors(verrs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = fieldMessage(fe)
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		return fmt.Sprintf("Minimum is %s", fe.Param())
	case "max":
		return fmt.Sprintf("Maximum is %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("Invalid %s field", fe.Field())
	}
}

func init() {
	// Field errors report the json name of the field.
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		respondMessage(c, http.StatusBadRequest, "Invalid id")
		return 0, false
	}
	return id, true
}
