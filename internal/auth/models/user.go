package models

import "time"

// DefaultName is given to users who sign in without a name.
const DefaultName = "Demo User"

// User is a signed-in account. Users are keyed by email.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// SignInRequest is the demo credentials payload.
type SignInRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
	Name  string `json:"name" validate:"omitempty,max=100"`
}

// Session is what sign-in returns and the session endpoint reports.
type Session struct {
	Token     string    `json:"token,omitempty"`
	ExpiresAt time.Time `json:"expiresAt,omitzero"`
	User      *User     `json:"user"`
}
