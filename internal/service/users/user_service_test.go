package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/flightreservation/internal/auth"
	"github.com/Domenick1991/flightreservation/internal/domain"
	"github.com/Domenick1991/flightreservation/internal/repository/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) Issue(user domain.User) (string, error) {
	args := m.Called(user)
	return args.String(0), args.Error(1)
}

var admin = domain.Actor{UserID: 900, Role: domain.RoleAdmin}

func newService(store *memory.Store, tokens TokenIssuer) *UserService {
	return NewUserService(store.Users(), store.Bookings(), store.AuditLogs(), tokens, WithBcryptCost(bcrypt.MinCost))
}

func register(t *testing.T, svc *UserService, email string) *domain.User {
	t.Helper()
	user, err := svc.Register(context.Background(), domain.Actor{}, RegisterInput{
		Email:     email,
		Password:  "secret-pass",
		FirstName: "Anna",
		LastName:  "Petrova",
	})
	require.NoError(t, err)
	return user
}

func TestUserService_Register(t *testing.T) {
	svc := newService(memory.NewStore(), auth.NewTokenManager("k", time.Hour))
	ctx := context.Background()

	user, err := svc.Register(ctx, domain.Actor{}, RegisterInput{
		Email:     "  Anna@Example.com ",
		Password:  "secret-pass",
		FirstName: "Anna",
		LastName:  "Petrova",
		Phone:     "+7 900 000 00 00",
		Role:      domain.RoleAdmin,
	})

	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "anna@example.com", user.Email)
	assert.Equal(t, domain.RoleUser, user.Role)
	assert.NotEqual(t, "secret-pass", user.PasswordHash)
	assert.True(t, auth.VerifyPassword(user.PasswordHash, "secret-pass"))

	_, err = svc.Register(ctx, domain.Actor{}, RegisterInput{Email: "ANNA@example.com", Password: "another-pass", FirstName: "A", LastName: "B"})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, "Email already registered", domain.Message(err))

	_, err = svc.Register(ctx, domain.Actor{}, RegisterInput{Email: "short@example.com", Password: "123", FirstName: "A", LastName: "B"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUserService_Register_AdminSetsRole(t *testing.T) {
	svc := newService(memory.NewStore(), auth.NewTokenManager("k", time.Hour))

	user, err := svc.Register(context.Background(), admin, RegisterInput{
		Email:     "ops@example.com",
		Password:  "secret-pass",
		FirstName: "Ops",
		LastName:  "Team",
		Role:      domain.RoleAdmin,
	})

	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, user.Role)
}

func TestUserService_Login(t *testing.T) {
	tokens := auth.NewTokenManager("k", time.Hour)
	svc := newService(memory.NewStore(), tokens)
	ctx := context.Background()
	registered := register(t, svc, "anna@example.com")

	user, token, err := svc.Login(ctx, LoginInput{Email: "Anna@example.com", Password: "secret-pass"})
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	actor, err := tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, domain.Actor{UserID: registered.ID, Role: domain.RoleUser}, actor)

	_, _, err = svc.Login(ctx, LoginInput{Email: "anna@example.com", Password: "wrong-pass"})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	assert.Equal(t, "Invalid credentials", domain.Message(err))

	_, _, err = svc.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "secret-pass"})
	assert.Equal(t, "Invalid credentials", domain.Message(err))
}

func TestUserService_Login_IssuerError(t *testing.T) {
	tokens := new(MockTokenIssuer)
	svc := newService(memory.NewStore(), tokens)
	register(t, svc, "anna@example.com")
	tokens.On("Issue", mock.AnythingOfType("domain.User")).Return("", errors.New("no key"))

	_, _, err := svc.Login(context.Background(), LoginInput{Email: "anna@example.com", Password: "secret-pass"})

	assert.EqualError(t, err, "no key")
	tokens.AssertExpectations(t)
}

func TestUserService_Profile(t *testing.T) {
	svc := newService(memory.NewStore(), new(MockTokenIssuer))
	ctx := context.Background()
	anna := register(t, svc, "anna@example.com")
	bob := register(t, svc, "bob@example.com")
	actor := domain.Actor{UserID: anna.ID, Role: domain.RoleUser}

	_, err := svc.GetProfile(ctx, domain.Actor{})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	profile, err := svc.GetProfile(ctx, actor)
	require.NoError(t, err)
	assert.Equal(t, "anna@example.com", profile.Email)

	taken := "BOB@example.com"
	_, err = svc.UpdateProfile(ctx, actor, UpdateProfileInput{Email: &taken})
	assert.Equal(t, "Email already registered", domain.Message(err))

	same := "anna@example.com"
	name := " Anya "
	phone := "123"
	updated, err := svc.UpdateProfile(ctx, actor, UpdateProfileInput{Email: &same, FirstName: &name, Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "Anya", updated.FirstName)
	assert.Equal(t, "123", updated.Phone)
	assert.Equal(t, "Petrova", updated.LastName)

	_, err = svc.GetUser(ctx, actor, bob.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	got, err := svc.GetUser(ctx, admin, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, bob.ID, got.ID)

	_, err = svc.GetUser(ctx, admin, 12345)
	assert.Equal(t, "User not found", domain.Message(err))
}

func TestUserService_DeleteUser(t *testing.T) {
	store := memory.NewStore()
	svc := newService(store, new(MockTokenIssuer))
	ctx := context.Background()
	anna := register(t, svc, "anna@example.com")
	bob := register(t, svc, "bob@example.com")

	departure := time.Now().Add(24 * time.Hour)
	flight := &domain.Flight{
		FlightNumber: "SU1", DepartureCity: "A", ArrivalCity: "B", DepartureAirport: "AAA", ArrivalAirport: "BBB",
		DepartureTime: departure, ArrivalTime: departure.Add(time.Hour),
		TotalSeats: 2, AvailableSeats: 1, Price: decimal.NewFromInt(10), Status: domain.FlightStatusScheduled,
	}
	require.NoError(t, store.Flights().Create(ctx, flight))
	require.NoError(t, store.Bookings().Create(ctx, &domain.Booking{
		UserID: bob.ID, FlightID: flight.ID, BookingDate: time.Now(), SeatNumber: "1A",
		Status: domain.BookingStatusPending, TotalPrice: flight.Price,
	}))

	err := svc.DeleteUser(ctx, domain.Actor{UserID: anna.ID, Role: domain.RoleUser}, bob.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	err = svc.DeleteUser(ctx, admin, bob.ID)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, "Cannot delete user with bookings", domain.Message(err))

	require.NoError(t, svc.DeleteUser(ctx, domain.Actor{UserID: anna.ID, Role: domain.RoleUser}, anna.ID))
	_, err = svc.GetUser(ctx, admin, anna.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = svc.DeleteUser(ctx, admin, anna.ID)
	assert.Equal(t, "User not found", domain.Message(err))
}

func TestUserService_GetAuditLogs(t *testing.T) {
	store := memory.NewStore()
	svc := newService(store, new(MockTokenIssuer))
	ctx := context.Background()
	anna := register(t, svc, "anna@example.com")

	for _, action := range []string{"booking.created", "booking.cancelled"} {
		id := anna.ID
		require.NoError(t, store.AuditLogs().Create(ctx, &domain.AuditLog{UserID: &id, Action: action, EntityType: "booking"}))
	}

	_, err := svc.GetAuditLogs(ctx, domain.Actor{})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	logs, err := svc.GetAuditLogs(ctx, domain.Actor{UserID: anna.ID, Role: domain.RoleUser})
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "booking.cancelled", logs[0].Action)
}
