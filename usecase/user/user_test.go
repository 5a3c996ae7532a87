package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/fastygo/todolist/domain"
	"github.com/fastygo/todolist/pkg/credential"
	"github.com/fastygo/todolist/repository/memory"
)

func newUseCase(t *testing.T) (*UseCase, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	return New(store.Users(), credential.NewBcryptHasher(4), zaptest.NewLogger(t)), store
}

func ptr(s string) *string { return &s }

func TestCreate_StripsHashAndTrims(t *testing.T) {
	uc, _ := newUseCase(t)
	ctx := context.Background()

	u, err := uc.Create(ctx, CreateInput{Email: "  alice@example.com ", Password: "secret1", Name: " Alice "})
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, "Alice", u.Name)
	assert.Empty(t, u.PasswordHash)

	stored, err := uc.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.NotEqual(t, "secret1", stored.PasswordHash)
	assert.NotEmpty(t, stored.PasswordHash)
}

func TestCreate_DuplicateEmailAlwaysConflicts(t *testing.T) {
	uc, _ := newUseCase(t)
	ctx := context.Background()

	_, err := uc.Create(ctx, CreateInput{Email: "alice@example.com", Password: "secret1", Name: "Alice"})
	require.NoError(t, err)

	for _, in := range []CreateInput{
		{Email: "alice@example.com", Password: "secret1", Name: "Alice"},
		{Email: "alice@example.com", Password: "another", Name: "Someone"},
		{Email: " alice@example.com", Password: "xxxxxxxx", Name: "A"},
	} {
		_, err := uc.Create(ctx, in)
		assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
	}
}

func TestCreate_Validation(t *testing.T) {
	uc, _ := newUseCase(t)

	_, err := uc.Create(context.Background(), CreateInput{Email: " ", Password: "123", Name: ""})
	require.Error(t, err)

	var dErr *domain.Error
	require.ErrorAs(t, err, &dErr)
	assert.Equal(t, domain.ErrCodeInvalid, dErr.Code)
	assert.Contains(t, dErr.Fields, "email")
	assert.Contains(t, dErr.Fields, "password")
	assert.Contains(t, dErr.Fields, "name")
}

func TestFindByEmail_Missing(t *testing.T) {
	uc, _ := newUseCase(t)
	u, err := uc.FindByEmail(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestUpdate(t *testing.T) {
	uc, _ := newUseCase(t)
	ctx := context.Background()

	alice, err := uc.Create(ctx, CreateInput{Email: "alice@example.com", Password: "secret1", Name: "Alice"})
	require.NoError(t, err)
	_, err = uc.Create(ctx, CreateInput{Email: "bob@example.com", Password: "secret1", Name: "Bob"})
	require.NoError(t, err)

	t.Run("email taken", func(t *testing.T) {
		_, err := uc.Update(ctx, alice.ID, UpdateInput{Email: ptr("bob@example.com")})
		assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
	})

	t.Run("short password", func(t *testing.T) {
		_, err := uc.Update(ctx, alice.ID, UpdateInput{Password: ptr("123")})
		assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
	})

	t.Run("fields applied and password rehashed", func(t *testing.T) {
		before, err := uc.FindByEmail(ctx, "alice@example.com")
		require.NoError(t, err)

		updated, err := uc.Update(ctx, alice.ID, UpdateInput{
			Email:    ptr("alice@work.example.com"),
			Name:     ptr("Alice W."),
			Password: ptr("newsecret"),
		})
		require.NoError(t, err)
		assert.Equal(t, "alice@work.example.com", updated.Email)
		assert.Equal(t, "Alice W.", updated.Name)
		assert.Empty(t, updated.PasswordHash)

		after, err := uc.FindByEmail(ctx, "alice@work.example.com")
		require.NoError(t, err)
		require.NotNil(t, after)
		assert.NotEqual(t, before.PasswordHash, after.PasswordHash)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := uc.Update(ctx, "missing", UpdateInput{Name: ptr("x")})
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})
}

func TestRemove_SecondCallFails(t *testing.T) {
	uc, _ := newUseCase(t)
	ctx := context.Background()

	u, err := uc.Create(ctx, CreateInput{Email: "alice@example.com", Password: "secret1", Name: "Alice"})
	require.NoError(t, err)

	require.NoError(t, uc.Remove(ctx, u.ID))
	assert.ErrorIs(t, uc.Remove(ctx, u.ID), domain.ErrUserNotFound)

	_, err = uc.FindByID(ctx, u.ID)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
