package domain

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Phone        string    `json:"phone,omitempty"`
	Address      string    `json:"address,omitempty"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Actor is the authenticated caller of an operation. The zero value is anonymous.
type Actor struct {
	UserID int64
	Role   Role
}

func (a Actor) Authenticated() bool {
	return a.UserID != 0
}

func (a Actor) IsAdmin() bool {
	return a.Authenticated() && a.Role == RoleAdmin
}

// CanAccess reports whether the actor may act on a resource owned by ownerID.
func (a Actor) CanAccess(ownerID int64) bool {
	return a.IsAdmin() || (a.Authenticated() && a.UserID == ownerID)
}

// RequireAuthenticated fails with ErrUnauthenticated for anonymous actors.
func (a Actor) RequireAuthenticated() error {
	if !a.Authenticated() {
		return Unauthenticated("User not authenticated")
	}
	return nil
}

func (a Actor) RequireAdmin() error {
	if err := a.RequireAuthenticated(); err != nil {
		return err
	}
	if !a.IsAdmin() {
		return Forbidden("Admin access required")
	}
	return nil
}

func (a Actor) RequireAccess(ownerID int64) error {
	if err := a.RequireAuthenticated(); err != nil {
		return err
	}
	if !a.CanAccess(ownerID) {
		return Forbidden("Access denied")
	}
	return nil
}
