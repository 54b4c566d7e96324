package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Role is the access level of a user
type Role string

// UserRole constants
const (
	RoleCustomer Role = "Customer"
	RoleManager  Role = "Manager"
	RoleAdmin    Role = "Admin"
)

// Level returns the rank of the role, 0 for unknown roles.
// Customer < Manager < Admin.
func (r Role) Level() int {
	switch r {
	case RoleCustomer:
		return 1
	case RoleManager:
		return 2
	case RoleAdmin:
		return 3
	default:
		return 0
	}
}

// IsValid reports whether r is one of the known roles
func (r Role) IsValid() bool {
	return r.Level() > 0
}

// User represents a bank member
type User struct {
	ID           int             `json:"id"`
	Username     string          `json:"username"`
	Email        string          `json:"email"`
	PasswordHash string          `json:"-"` // Never serialize password hash
	Phone        string          `json:"phone,omitempty"`
	Role         Role            `json:"role"` // Customer on registration
	Balance      decimal.Decimal `json:"balance"`
}

// MarshalJSON renders Balance as a JSON number
func (u User) MarshalJSON() ([]byte, error) {
	type user User
	return json.Marshal(struct {
		user
		Balance json.Number `json:"balance"`
	}{user(u), moneyNumber(u.Balance)})
}

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ChangePasswordRequest represents a password rotation request
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// ProfileResponse represents user profile in API responses.
// Balance is left out on purpose: balance disclosure goes through the audited balance route.
type ProfileResponse struct {
	Username         string `json:"username"`
	Email            string `json:"email"`
	Phone            string `json:"phone"`
	Role             Role   `json:"role"`
	TransactionCount int    `json:"transactionCount"`
}
