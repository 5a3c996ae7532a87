package repository

import (
	"context"

	"github.com/fastygo/todolist/domain"
)

// UserRepository persists accounts. Returned users carry the password hash;
// stripping it is the caller's job.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error
}
