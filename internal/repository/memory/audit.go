package memory

import (
	"context"
	"fmt"

	"github.com/Domenick1991/flightreservation/internal/domain"
	"github.com/Domenick1991/flightreservation/internal/repository"
)

type auditRepo struct {
	s *Store
}

func (r *auditRepo) Create(ctx context.Context, e *domain.AuditLog) error {
	defer r.s.lock(ctx)()
	if e.UserID != nil {
		if _, ok := r.s.st.users[*e.UserID]; !ok {
			return fmt.Errorf("create audit log: user %d: %w", *e.UserID, repository.ErrReferenced)
		}
	}
	if id := eventID(e.Details); id != "" {
		for _, existing := range r.s.st.audit {
			if eventID(existing.Details) == id {
				return fmt.Errorf("create audit log: event %s: %w", id, repository.ErrDuplicate)
			}
		}
	}
	e.ID = r.s.nextID()
	e.CreatedAt = r.s.now()
	r.s.st.audit = append(r.s.st.audit, *e)
	return nil
}

func (r *auditRepo) ListByUser(ctx context.Context, userID int64) ([]domain.AuditLog, error) {
	defer r.s.lock(ctx)()
	out := make([]domain.AuditLog, 0)
	for i := len(r.s.st.audit) - 1; i >= 0; i-- {
		e := r.s.st.audit[i]
		if e.UserID != nil && *e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func eventID(details map[string]any) string {
	id, _ := details["event_id"].(string)
	return id
}

var _ repository.AuditLogRepository = (*auditRepo)(nil)
