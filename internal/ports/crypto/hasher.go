package crypto

import "context"

// PasswordHasher abstrae el algoritmo de hash de contraseñas.
type PasswordHasher interface {
	HashPassword(ctx context.Context, password string) (string, error)
	VerifyPassword(ctx context.Context, password, encodedHash string) (bool, error)
}
