package repository

import (
	"context"
	"fmt"

	"github.com/Domenick1991/flightreservation/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	// GetByEmail matches the address case-insensitively.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id int64) error
}

const userColumns = `id, email, password_hash, first_name, last_name, COALESCE(phone, ''), COALESCE(address, ''), role, created_at, updated_at`

type PGUserRepository struct {
	db  *pgxpool.Pool
	log *zap.Logger
}

func NewUserRepository(db *pgxpool.Pool, log *zap.Logger) UserRepository {
	return &PGUserRepository{db: db, log: log.With(zap.String("repository", "user"))}
}

func (r *PGUserRepository) Create(ctx context.Context, u *domain.User) error {
	err := conn(ctx, r.db).QueryRow(ctx, `INSERT INTO users (email, password_hash, first_name, last_name, phone, address, role)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7)
		RETURNING id, created_at, updated_at`,
		u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Phone, u.Address, u.Role).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		r.log.Error("create user failed", zap.Error(err))
		return fmt.Errorf("create user: %w", mapError(err))
	}
	return nil
}

func (r *PGUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
}

func (r *PGUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email)=lower($1)`, email)
}

func (r *PGUserRepository) Update(ctx context.Context, u *domain.User) error {
	err := conn(ctx, r.db).QueryRow(ctx, `UPDATE users SET email=$2, password_hash=$3, first_name=$4, last_name=$5,
		phone=NULLIF($6, ''), address=NULLIF($7, ''), role=$8, updated_at=now()
		WHERE id=$1
		RETURNING updated_at`,
		u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Phone, u.Address, u.Role).
		Scan(&u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update user %d: %w", u.ID, mapError(err))
	}
	return nil
}

func (r *PGUserRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := conn(ctx, r.db).Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		r.log.Error("delete user failed", zap.Int64("user_id", id), zap.Error(err))
		return fmt.Errorf("delete user %d: %w", id, mapError(err))
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGUserRepository) getOne(ctx context.Context, query string, args ...any) (*domain.User, error) {
	u, err := scanUser(conn(ctx, r.db).QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapError(err)
	}
	return u, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Phone, &u.Address, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

var _ UserRepository = (*PGUserRepository)(nil)
