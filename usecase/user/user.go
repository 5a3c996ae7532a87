package user

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/fastygo/todolist/domain"
	"github.com/fastygo/todolist/pkg/logger"
	"github.com/fastygo/todolist/repository"
	"github.com/fastygo/todolist/usecase"
)

const (
	minPasswordLength = 6
	// bcrypt ignores input past 72 bytes.
	maxPasswordLength = 72
)

var tracer = otel.Tracer("github.com/fastygo/todolist/usecase/user")

type CreateInput struct {
	Email    string
	Password string
	Name     string
}

// UpdateInput fields left nil or empty keep their stored value.
type UpdateInput struct {
	Email    *string
	Name     *string
	Password *string
}

// UseCase is the user directory: it owns account records and email uniqueness.
type UseCase struct {
	users  repository.UserRepository
	hasher usecase.PasswordHasher
	logger *zap.Logger
}

func New(users repository.UserRepository, hasher usecase.PasswordHasher, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:  users,
		hasher: hasher,
		logger: logger,
	}
}

func (uc *UseCase) Create(ctx context.Context, in CreateInput) (_ *domain.User, err error) {
	ctx, span := tracer.Start(ctx, "user.Create")
	defer func() { usecase.EndSpan(span, err) }()
	log := logger.WithRequestID(ctx, uc.logger)

	in.Email = strings.TrimSpace(in.Email)
	in.Name = strings.TrimSpace(in.Name)

	fields := map[string]string{}
	if in.Email == "" {
		fields["email"] = "email is required"
	}
	if in.Password == "" {
		fields["password"] = "password is required"
	} else if msg := checkPassword(in.Password); msg != "" {
		fields["password"] = msg
	}
	if in.Name == "" {
		fields["name"] = "name is required"
	}
	if len(fields) > 0 {
		log.Warn("user creation rejected", zap.Any("fields", fields))
		return nil, domain.NewValidationError(fields)
	}

	if err := uc.ensureEmailFree(ctx, in.Email, ""); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			log.Warn("user creation rejected: email already registered", zap.String("email", in.Email))
		}
		return nil, err
	}

	hash, err := uc.hasher.Hash(in.Password)
	if err != nil {
		log.Error("password hashing failed", zap.Error(err))
		return nil, err
	}

	user := &domain.User{
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: hash,
	}
	if err := uc.users.Create(ctx, user); err != nil {
		return nil, err
	}

	log.Info("user created", zap.String("user_id", user.ID), zap.String("email", user.Email))
	return user.Public(), nil
}

func (uc *UseCase) FindByID(ctx context.Context, id string) (_ *domain.User, err error) {
	ctx, span := tracer.Start(ctx, "user.FindByID")
	defer func() { usecase.EndSpan(span, err) }()

	user, err := uc.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.Public(), nil
}

// FindByEmail returns the stored record including its password hash, or nil when
// no account uses email. Only authentication may call it.
func (uc *UseCase) FindByEmail(ctx context.Context, email string) (_ *domain.User, err error) {
	ctx, span := tracer.Start(ctx, "user.FindByEmail")
	defer func() { usecase.EndSpan(span, err) }()

	user, err := uc.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, nil
	}
	return user, err
}

func (uc *UseCase) Update(ctx context.Context, id string, in UpdateInput) (_ *domain.User, err error) {
	ctx, span := tracer.Start(ctx, "user.Update")
	defer func() { usecase.EndSpan(span, err) }()
	log := logger.WithRequestID(ctx, uc.logger)

	user, err := uc.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if email := trimmed(in.Email); email != "" && email != user.Email {
		if err := uc.ensureEmailFree(ctx, email, user.ID); err != nil {
			return nil, err
		}
		user.Email = email
	}
	if name := trimmed(in.Name); name != "" {
		user.Name = name
	}
	if in.Password != nil && *in.Password != "" {
		if msg := checkPassword(*in.Password); msg != "" {
			return nil, domain.NewValidationError(map[string]string{"password": msg})
		}
		hash, err := uc.hasher.Hash(*in.Password)
		if err != nil {
			log.Error("password hashing failed", zap.Error(err))
			return nil, err
		}
		user.PasswordHash = hash
	}

	if err := uc.users.Update(ctx, user); err != nil {
		return nil, err
	}
	log.Info("user updated", zap.String("user_id", user.ID))
	return user.Public(), nil
}

// Remove deletes the account and, through the datastore, its tasks. A second call fails with NotFound.
func (uc *UseCase) Remove(ctx context.Context, id string) (err error) {
	ctx, span := tracer.Start(ctx, "user.Remove")
	defer func() { usecase.EndSpan(span, err) }()

	if err := uc.users.Delete(ctx, id); err != nil {
		return err
	}
	logger.WithRequestID(ctx, uc.logger).Info("user removed", zap.String("user_id", id))
	return nil
}

func (uc *UseCase) ensureEmailFree(ctx context.Context, email, selfID string) error {
	existing, err := uc.users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != selfID:
		return domain.ErrDuplicateEmail
	default:
		return nil
	}
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func checkPassword(password string) string {
	switch {
	case len(password) < minPasswordLength:
		return "password must be at least 6 characters"
	case len(password) > maxPasswordLength:
		return "password must be at most 72 bytes"
	default:
		return ""
	}
}
