package models

import "time"

// UserToken is the audit record of an issued session token.
// It is never consulted when a token is validated.
type UserToken struct {
	ID        int       `json:"id"`
	UserID    int       `json:"userId"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}
