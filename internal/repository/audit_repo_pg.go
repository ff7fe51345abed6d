package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/flightreservation/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type AuditLogRepository interface {
	// Create returns ErrDuplicate when an entry with the same details event_id
	// exists and ErrReferenced when user_id points to a missing user.
	Create(ctx context.Context, entry *domain.AuditLog) error
	// ListByUser returns the user's entries, newest first.
	ListByUser(ctx context.Context, userID int64) ([]domain.AuditLog, error)
}

type PGAuditLogRepository struct {
	db  *pgxpool.Pool
	log *zap.Logger
}

func NewAuditLogRepository(db *pgxpool.Pool, log *zap.Logger) AuditLogRepository {
	return &PGAuditLogRepository{db: db, log: log.With(zap.String("repository", "audit_log"))}
}

func (r *PGAuditLogRepository) Create(ctx context.Context, e *domain.AuditLog) error {
	details := e.Details
	if details == nil {
		details = map[string]any{}
	}
	err := conn(ctx, r.db).QueryRow(ctx, `INSERT INTO audit_logs (user_id, action, entity_type, entity_id, details)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT ((details->>'event_id')) WHERE details->>'event_id' IS NOT NULL DO NOTHING
		RETURNING id, created_at`,
		e.UserID, e.Action, e.EntityType, e.EntityID, details).
		Scan(&e.ID, &e.CreatedAt)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		// ON CONFLICT skipped the insert.
		return fmt.Errorf("create audit log: event %v: %w", details["event_id"], ErrDuplicate)
	}
	err = mapError(err)
	if !errors.Is(err, ErrReferenced) {
		r.log.Error("create audit log failed", zap.String("action", e.Action), zap.Error(err))
	}
	return fmt.Errorf("create audit log: %w", err)
}

func (r *PGAuditLogRepository) ListByUser(ctx context.Context, userID int64) ([]domain.AuditLog, error) {
	rows, err := conn(ctx, r.db).Query(ctx, `SELECT id, user_id, action, entity_type, entity_id, details, created_at
		FROM audit_logs WHERE user_id=$1 ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", mapError(err))
	}
	defer rows.Close()

	entries := make([]domain.AuditLog, 0)
	for rows.Next() {
		var e domain.AuditLog
		if err := rows.Scan(&e.ID, &e.UserID, &e.Action, &e.EntityType, &e.EntityID, &e.Details, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

var _ AuditLogRepository = (*PGAuditLogRepository)(nil)
