package usecase

import "time"

// PasswordHasher abstracts the one-way credential hash so use cases stay library-agnostic.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) (bool, error)
}

// TokenIssuer mints bearer tokens for authenticated users.
type TokenIssuer interface {
	Issue(subject, email string) (token string, expiresAt time.Time, err error)
}
