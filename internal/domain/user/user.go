package user

import (
	"errors"
	"time"
)

const (
	RoleEmployee = "employee"
	RoleManager  = "manager"
)

var ErrNotFound = errors.New("user not found")

// ValidRole reports whether role is one of the two roles the system knows.
// Roles are fixed at signup and drive every authorization decision.
func ValidRole(role string) bool {
	return role == RoleEmployee || role == RoleManager
}

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	Phone        string    `json:"phone"`
	Department   string    `json:"department"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}
