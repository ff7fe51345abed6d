package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/Domenick1991/flightreservation/internal/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const actorKey = "actor"

type TokenParser interface {
	Parse(raw string) (domain.Actor, error)
}

// actorFrom returns the caller set by the auth middleware; anonymous if none.
func actorFrom(c *gin.Context) domain.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(domain.Actor); ok {
			return actor
		}
	}
	return domain.Actor{}
}

func bearer(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

// Auth rejects requests without a valid bearer token.
func Auth(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearer(c)
		if !ok {
			respondMessage(c, http.StatusUnauthorized, "Authentication required")
			return
		}
		actor, err := tokens.Parse(raw)
		if err != nil {
			respondMessage(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

// OptionalAuth sets the actor when a valid token is present and lets
// anonymous requests through.
func OptionalAuth(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw, ok := bearer(c); ok {
			if actor, err := tokens.Parse(raw); err == nil {
				c.Set(actorKey, actor)
			}
		}
		c.Next()
	}
}

// AdminOnly must run after Auth.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !actorFrom(c).IsAdmin() {
			respondMessage(c, http.StatusForbidden, "Admin access required")
			return
		}
		c.Next()
	}
}

func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("query", c.Request.URL.RawQuery),
			zap.Int("status", c.Writer.Status()),
			zap.Int("bytes", c.Writer.Size()),
			zap.Duration("duration", time.Since(start)),
			zap.String("ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
		}
		if actor := actorFrom(c); actor.Authenticated() {
			fields = append(fields, zap.Int64("user_id", actor.UserID))
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			log.Error("HTTP request", fields...)
			return
		}
		log.Info("HTTP request", fields...)
	}
}

func Recovery(log *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Error("PANIC recovered",
			zap.Any("error", recovered),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
			zap.Stack("stack"),
		)
		respondMessage(c, http.StatusInternalServerError, "Internal server error")
	})
}
