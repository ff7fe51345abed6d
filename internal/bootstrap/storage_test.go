package bootstrap

import (
	"context"
	"testing"

	"github.com/Domenick1991/flightreservation/config"
	"github.com/Domenick1991/flightreservation/internal/domain"
	"github.com/Domenick1991/flightreservation/internal/service/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func TestOpenStorage_Memory(t *testing.T) {
	store, err := OpenStorage(context.Background(), config.DatabaseConfig{Driver: config.DriverMemory}, zap.NewNop())
	require.NoError(t, err)
	defer store.Close()

	assert.NotNil(t, store.Flights)
	assert.NotNil(t, store.Bookings)
	assert.NotNil(t, store.Payments)
	assert.NotNil(t, store.Users)
	assert.NotNil(t, store.AuditLogs)
	assert.NotNil(t, store.Tx)
}

func TestOpenStorage_UnknownDriver(t *testing.T) {
	_, err := OpenStorage(context.Background(), config.DatabaseConfig{Driver: "sqlite"}, zap.NewNop())
	assert.ErrorContains(t, err, "unknown database driver")
}

func TestNewServiceSet_RegisterAndLogin(t *testing.T) {
	cfg := config.Default()
	cfg.Auth.JWTSecret = "secret"
	cfg.Auth.BcryptCost = bcrypt.MinCost
	store, err := OpenStorage(context.Background(), config.DatabaseConfig{Driver: config.DriverMemory}, zap.NewNop())
	require.NoError(t, err)

	set := NewServiceSet(cfg, store, Dependencies{}, zap.NewNop())
	svc := set.API()
	require.NotNil(t, svc.Flights)
	require.NotNil(t, svc.Bookings)
	require.NotNil(t, svc.Payments)
	require.NotNil(t, svc.Users)

	ctx := context.Background()
	_, err = set.Users.Register(ctx, domain.Actor{}, users.RegisterInput{
		Email: "ann@example.com", Password: "password1", FirstName: "Ann", LastName: "Lee",
	})
	require.NoError(t, err)

	user, token, err := set.Users.Login(ctx, users.LoginInput{Email: "ann@example.com", Password: "password1"})
	require.NoError(t, err)

	actor, err := set.Tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, actor.UserID)
	assert.Equal(t, domain.RoleUser, actor.Role)
}
