package api

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Domenick1991/flightreservation/internal/domain"
	"github.com/gin-gonic/gin"
)

// queryTime accepts an RFC 3339 timestamp or a YYYY-MM-DD date (UTC midnight).
func queryTime(c *gin.Context, name string) (time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, domain.Validation(fmt.Sprintf("Invalid %s, expected YYYY-MM-DD or RFC 3339", name))
	}
	return t, nil
}

// queryEndTime is queryTime but a bare date covers the whole day.
func queryEndTime(c *gin.Context, name string) (time.Time, error) {
	t, err := queryTime(c, name)
	if err != nil || t.IsZero() {
		return t, err
	}
	if _, err := time.Parse(time.DateOnly, strings.TrimSpace(c.Query(name))); err == nil {
		return t.Add(24*time.Hour - time.Nanosecond), nil
	}
	return t, nil
}

func queryInt64(c *gin.Context, name string) (int64, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return 0, domain.Validation(fmt.Sprintf("Invalid %s", name))
	}
	return v, nil
}
