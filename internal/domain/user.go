package domain

import "time"

type Role string

const (
	RoleCustomer Role = "customer"
	RoleStaff    Role = "staff"
	RoleAdmin    Role = "admin"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleCustomer, RoleStaff, RoleAdmin:
		return true
	}
	return false
}

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
)

type User struct {
	ID         string
	Phone      string
	Name       string
	Email      *string
	Address    *string
	Role       Role
	Status     UserStatus
	IsVerified bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (u User) IsActive() bool {
	return u.Status == UserStatusActive
}

// Caller is the authenticated identity behind a request.
type Caller struct {
	ID   string
	Role Role
}

// CanMutate is the role gate for every order mutation: admins may act on an
// order in any status, staff only while it is not terminal.
func CanMutate(role Role, status OrderStatus) bool {
	switch role {
	case RoleAdmin:
		return true
	case RoleStaff:
		return !status.IsTerminal()
	}
	return false
}
