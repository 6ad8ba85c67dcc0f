package domain

import (
	"errors"
	"time"
)

// User is the core user entity. Role is the platform role that policy checks
// run against.
type User struct {
	ID           string
	Email        string
	Name         string
	Role         Role
	Status       UserStatus
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Role string

const (
	RoleParent     Role = "parent"
	RoleInstructor Role = "instructor"
	RoleAdmin      Role = "admin"
)

// ValidRole reports whether s names a known role.
func ValidRole(s string) bool {
	switch Role(s) {
	case RoleParent, RoleInstructor, RoleAdmin:
		return true
	}
	return false
}

type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusDisabled UserStatus = "disabled"
)

// Validate validates the user for persistence. Returns an error describing the first validation failure.
func (u *User) Validate() error {
	if u.Email == "" {
		return errors.New("email is required")
	}
	if u.Role == "" {
		u.Role = RoleParent
	}
	if !ValidRole(string(u.Role)) {
		return errors.New("unknown role")
	}
	if u.Status == "" {
		u.Status = UserStatusActive
	}
	return nil
}
