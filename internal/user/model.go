package user

import (
	"time"

	"restobar-be/internal/access"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

type Profile struct {
	UserID   uuid.UUID   `json:"user_id"`
	Email    string      `json:"email"`
	FullName string      `json:"full_name"`
	Role     access.Role `json:"role"`
}

type RegisterInput struct {
	Email    string
	Password string
	FullName string
}

// AuthResult is what a successful sign-in or registration hands back.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	Profile   Profile
}
