package domain

import "time"

type User struct {
	ID       int64   `json:"id"`
	Username string  `json:"username"`
	Email    *string `json:"email,omitempty"`
}

type APIToken struct {
	ID        int64
	TokenHash string
	UserID    int64
	Username  string
	ExpiresAt *time.Time
}
