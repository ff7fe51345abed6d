package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/Domenick1991/flightreservation/internal/domain"
	"github.com/Domenick1991/flightreservation/internal/repository"
)

type userRepo struct {
	s *Store
}

func (r *userRepo) Create(ctx context.Context, u *domain.User) error {
	defer r.s.lock(ctx)()
	if r.emailTaken(u.Email, 0) {
		return fmt.Errorf("create user: %w", repository.ErrDuplicate)
	}
	now := r.s.now()
	u.ID = r.s.nextID()
	u.CreatedAt, u.UpdatedAt = now, now
	r.s.st.users[u.ID] = *u
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	defer r.s.lock(ctx)()
	u, ok := r.s.st.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	defer r.s.lock(ctx)()
	for _, u := range r.s.st.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) Update(ctx context.Context, u *domain.User) error {
	defer r.s.lock(ctx)()
	cur, ok := r.s.st.users[u.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if r.emailTaken(u.Email, u.ID) {
		return fmt.Errorf("update user %d: %w", u.ID, repository.ErrDuplicate)
	}
	next := *u
	next.CreatedAt = cur.CreatedAt
	next.UpdatedAt = r.s.now()
	r.s.st.users[u.ID] = next
	u.UpdatedAt = next.UpdatedAt
	return nil
}

func (r *userRepo) Delete(ctx context.Context, id int64) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.st.users[id]; !ok {
		return repository.ErrNotFound
	}
	for _, b := range r.s.st.bookings {
		if b.UserID == id {
			return fmt.Errorf("delete user %d: %w", id, repository.ErrReferenced)
		}
	}
	delete(r.s.st.users, id)
	for i, e := range r.s.st.audit {
		if e.UserID != nil && *e.UserID == id {
			r.s.st.audit[i].UserID = nil
		}
	}
	return nil
}

func (r *userRepo) emailTaken(email string, exceptID int64) bool {
	for _, u := range r.s.st.users {
		if u.ID != exceptID && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

var _ repository.UserRepository = (*userRepo)(nil)
