// Package audit stores one audit_logs row per domain event.
package audit

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/flightreservation/internal/domain"
	"github.com/Domenick1991/flightreservation/internal/kafka"
	"github.com/Domenick1991/flightreservation/internal/repository"
	"go.uber.org/zap"
)

type Recorder struct {
	logs repository.AuditLogRepository
	log  *zap.Logger
}

func NewRecorder(logs repository.AuditLogRepository, log *zap.Logger) *Recorder {
	return &Recorder{logs: logs, log: log.With(zap.String("component", "audit"))}
}

// Handle records event once. Redelivered events are skipped, and an event
// whose user no longer exists is recorded without a user.
func (r *Recorder) Handle(ctx context.Context, event kafka.Event) error {
	entry := Entry(event)
	err := r.logs.Create(ctx, &entry)
	if errors.Is(err, repository.ErrReferenced) && entry.UserID != nil {
		r.log.Warn("audit user missing, recording without user",
			zap.String("event_id", event.ID), zap.Int64("user_id", *entry.UserID))
		entry.UserID = nil
		err = r.logs.Create(ctx, &entry)
	}
	if errors.Is(err, repository.ErrDuplicate) {
		r.log.Debug("audit already recorded", zap.String("event_id", event.ID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("record %s for %s: %w", event.Type, event.Key(), err)
	}
	r.log.Debug("audit recorded", zap.String("type", event.Type), zap.String("key", event.Key()))
	return nil
}

// Entry maps an event onto an audit row. The event id goes into the details
// so redelivered messages can be told apart.
func Entry(event kafka.Event) domain.AuditLog {
	details := map[string]any{
		"event_id":    event.ID,
		"occurred_at": event.OccurredAt,
	}
	if event.FlightID != 0 {
		details["flight_id"] = event.FlightID
	}
	if event.BookingID != 0 {
		details["booking_id"] = event.BookingID
	}
	if event.SeatNumber != "" {
		details["seat_number"] = event.SeatNumber
	}
	if event.Status != "" {
		details["status"] = event.Status
	}
	if event.Amount != "" {
		details["amount"] = event.Amount
	}

	entry := domain.AuditLog{
		Action:     event.Type,
		EntityType: event.EntityType,
		Details:    details,
	}
	if event.UserID != 0 {
		userID := event.UserID
		entry.UserID = &userID
	}
	if event.EntityID != 0 {
		entityID := event.EntityID
		entry.EntityID = &entityID
	}
	return entry
}
