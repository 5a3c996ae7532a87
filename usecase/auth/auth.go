package auth

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/fastygo/todolist/domain"
	"github.com/fastygo/todolist/pkg/logger"
	"github.com/fastygo/todolist/pkg/token"
	"github.com/fastygo/todolist/usecase"
)

const TokenType = "Bearer"

var tracer = otel.Tracer("github.com/fastygo/todolist/usecase/auth")

// Directory is the slice of the user directory authentication depends on.
type Directory interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
}

type LoginResult struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        *domain.User `json:"user"`
}

type UseCase struct {
	users  Directory
	hasher usecase.PasswordHasher
	tokens usecase.TokenIssuer
	logger *zap.Logger
}

func New(users Directory, hasher usecase.PasswordHasher, tokens usecase.TokenIssuer, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		logger: logger,
	}
}

// Login exchanges credentials for a bearer token. Callers only ever see
// domain.ErrInvalidCredentials; the reason is logged for operators.
func (uc *UseCase) Login(ctx context.Context, email, password string) (_ *LoginResult, err error) {
	ctx, span := tracer.Start(ctx, "auth.Login")
	defer func() { usecase.EndSpan(span, err) }()
	log := logger.WithRequestID(ctx, uc.logger)

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		fields := map[string]string{}
		if email == "" {
			fields["email"] = "email is required"
		}
		if password == "" {
			fields["password"] = "password is required"
		}
		return nil, domain.NewValidationError(fields)
	}

	user, err := uc.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		log.Warn("login rejected", zap.String("email", email), zap.String("reason", "user_not_found"))
		return nil, domain.ErrInvalidCredentials
	}

	ok, err := uc.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		log.Error("password verification failed", zap.String("user_id", user.ID), zap.Error(err))
		return nil, err
	}
	if !ok {
		log.Warn("login rejected", zap.String("user_id", user.ID), zap.String("reason", "password_mismatch"))
		return nil, domain.ErrInvalidCredentials
	}

	accessToken, expiresAt, err := uc.tokens.Issue(user.ID, user.Email)
	if err != nil {
		log.Error("token issuance failed", zap.String("user_id", user.ID), zap.Error(err))
		return nil, err
	}

	log.Info("user logged in", zap.String("user_id", user.ID))
	return &LoginResult{
		AccessToken: accessToken,
		TokenType:   TokenType,
		ExpiresAt:   expiresAt,
		User:        user.Public(),
	}, nil
}

// ValidatePrincipal resolves verified claims to a live account. A deleted account
// yields nil without error so the guard can treat the request as unauthenticated.
func (uc *UseCase) ValidatePrincipal(ctx context.Context, claims *token.Claims) (_ *domain.User, err error) {
	ctx, span := tracer.Start(ctx, "auth.ValidatePrincipal")
	defer func() { usecase.EndSpan(span, err) }()

	if claims == nil || claims.Subject == "" {
		return nil, nil
	}
	user, err := uc.users.FindByID(ctx, claims.Subject)
	if domain.IsDomainError(err, domain.ErrCodeNotFound) {
		logger.WithRequestID(ctx, uc.logger).Warn("token subject no longer exists", zap.String("user_id", claims.Subject))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}
