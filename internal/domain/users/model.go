package users

import (
	"time"

	"pet-adoption/internal/ports/auth"
)

const (
	MinNameLen     = 2
	MinPasswordLen = 6
	MaxPasswordLen = 50
)

type User struct {
	ID    string
	Name  string
	Email string // siempre en minúsculas

	PasswordHash string
	Role         auth.Role

	// Solo se guarda el sha256 del token de reseteo.
	ResetTokenHash   string
	ResetTokenExpiry time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u User) Claims() auth.Claims {
	return auth.Claims{UserID: u.ID, Email: u.Email, Role: u.Role}
}
