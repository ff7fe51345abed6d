package users

import (
	"context"
	"errors"
	"strings"

	"github.com/Domenick1991/flightreservation/internal/auth"
	"github.com/Domenick1991/flightreservation/internal/domain"
	"github.com/Domenick1991/flightreservation/internal/repository"
	"go.uber.org/zap"
)

type UserUseCase interface {
	Register(ctx context.Context, actor domain.Actor, input RegisterInput) (*domain.User, error)
	Login(ctx context.Context, input LoginInput) (*domain.User, string, error)
	GetProfile(ctx context.Context, actor domain.Actor) (*domain.User, error)
	UpdateProfile(ctx context.Context, actor domain.Actor, input UpdateProfileInput) (*domain.User, error)
	DeleteUser(ctx context.Context, actor domain.Actor, id int64) error
	GetUser(ctx context.Context, actor domain.Actor, id int64) (*domain.User, error)
	GetAuditLogs(ctx context.Context, actor domain.Actor) ([]domain.AuditLog, error)
}

// TokenIssuer signs bearer tokens for authenticated users.
type TokenIssuer interface {
	Issue(user domain.User) (string, error)
}

type UserService struct {
	users      repository.UserRepository
	bookings   repository.BookingRepository
	audit      repository.AuditLogRepository
	tokens     TokenIssuer
	bcryptCost int
	log        *zap.Logger
}

type UserServiceOption func(*UserService)

func WithBcryptCost(cost int) UserServiceOption {
	return func(s *UserService) {
		s.bcryptCost = cost
	}
}

func WithLogger(log *zap.Logger) UserServiceOption {
	return func(s *UserService) {
		s.log = log.With(zap.String("service", "users"))
	}
}

func NewUserService(
	users repository.UserRepository,
	bookings repository.BookingRepository,
	audit repository.AuditLogRepository,
	tokens TokenIssuer,
	opts ...UserServiceOption,
) *UserService {
	s := &UserService{
		users:    users,
		bookings: bookings,
		audit:    audit,
		tokens:   tokens,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type RegisterInput struct {
	Email     string      `json:"email" binding:"required,email,max=255"`
	Password  string      `json:"password" binding:"required,min=8,max=72"`
	FirstName string      `json:"first_name" binding:"required,min=2,max=100"`
	LastName  string      `json:"last_name" binding:"required,min=2,max=100"`
	Phone     string      `json:"phone" binding:"omitempty,max=20"`
	Address   string      `json:"address" binding:"omitempty,max=255"`
	Role      domain.Role `json:"role" binding:"omitempty,oneof=user admin"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UpdateProfileInput struct {
	Email     *string `json:"email" binding:"omitempty,email,max=255"`
	FirstName *string `json:"first_name" binding:"omitempty,min=2,max=100"`
	LastName  *string `json:"last_name" binding:"omitempty,min=2,max=100"`
	Phone     *string `json:"phone" binding:"omitempty,max=20"`
	Address   *string `json:"address" binding:"omitempty,max=255"`
}

// Register creates an account. Only admins may create other admins; the
// requested role is ignored for everyone else.
func (s *UserService) Register(ctx context.Context, actor domain.Actor, input RegisterInput) (*domain.User, error) {
	email := normalizeEmail(input.Email)
	if email == "" {
		return nil, domain.Validation("Email is required")
	}
	if len(input.Password) < 8 {
		return nil, domain.Validation("Password must be at least 8 characters")
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, domain.Validation("Email already registered")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	role := domain.RoleUser
	if actor.IsAdmin() && input.Role != "" {
		if !input.Role.Valid() {
			return nil, domain.Validation("Invalid role")
		}
		role = input.Role
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Phone:        strings.TrimSpace(input.Phone),
		Address:      strings.TrimSpace(input.Address),
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, domain.Validation("Email already registered")
		}
		return nil, err
	}

	s.log.Info("user registered", zap.Int64("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

func (s *UserService) Login(ctx context.Context, input LoginInput) (*domain.User, string, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", domain.Unauthenticated("Invalid credentials")
		}
		return nil, "", err
	}
	if !auth.VerifyPassword(user.PasswordHash, input.Password) {
		s.log.Debug("login rejected", zap.Int64("user_id", user.ID))
		return nil, "", domain.Unauthenticated("Invalid credentials")
	}

	token, err := s.tokens.Issue(*user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *UserService) GetProfile(ctx context.Context, actor domain.Actor) (*domain.User, error) {
	if err := actor.RequireAuthenticated(); err != nil {
		return nil, err
	}
	return s.getUser(ctx, actor.UserID)
}

func (s *UserService) UpdateProfile(ctx context.Context, actor domain.Actor, input UpdateProfileInput) (*domain.User, error) {
	if err := actor.RequireAuthenticated(); err != nil {
		return nil, err
	}
	user, err := s.getUser(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	if input.Email != nil {
		email := normalizeEmail(*input.Email)
		if email == "" {
			return nil, domain.Validation("Email is required")
		}
		existing, err := s.users.GetByEmail(ctx, email)
		switch {
		case err == nil && existing.ID != user.ID:
			return nil, domain.Validation("Email already registered")
		case err != nil && !errors.Is(err, repository.ErrNotFound):
			return nil, err
		}
		user.Email = email
	}
	if input.FirstName != nil {
		user.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		user.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.Phone != nil {
		user.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.Address != nil {
		user.Address = strings.TrimSpace(*input.Address)
	}

	if err := s.users.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, domain.Validation("Email already registered")
		case errors.Is(err, repository.ErrNotFound):
			return nil, domain.NotFound("User not found")
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) DeleteUser(ctx context.Context, actor domain.Actor, id int64) error {
	if err := actor.RequireAccess(id); err != nil {
		return err
	}
	if _, err := s.getUser(ctx, id); err != nil {
		return err
	}

	count, err := s.bookings.CountByUser(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return domain.Validation("Cannot delete user with bookings")
	}

	if err := s.users.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrReferenced):
			return domain.Validation("Cannot delete user with bookings")
		case errors.Is(err, repository.ErrNotFound):
			return domain.NotFound("User not found")
		}
		return err
	}

	s.log.Info("user deleted", zap.Int64("user_id", id), zap.Int64("actor_id", actor.UserID))
	return nil
}

func (s *UserService) GetUser(ctx context.Context, actor domain.Actor, id int64) (*domain.User, error) {
	if err := actor.RequireAccess(id); err != nil {
		return nil, err
	}
	return s.getUser(ctx, id)
}

func (s *UserService) GetAuditLogs(ctx context.Context, actor domain.Actor) ([]domain.AuditLog, error) {
	if err := actor.RequireAuthenticated(); err != nil {
		return nil, err
	}
	return s.audit.ListByUser(ctx, actor.UserID)
}

func (s *UserService) getUser(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFound("User not found")
		}
		return nil, err
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var (
	_ UserUseCase = (*UserService)(nil)
	_ TokenIssuer = (*auth.TokenManager)(nil)
)
