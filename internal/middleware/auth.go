package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/todolist/api/transport"
	"github.com/fastygo/todolist/domain"
	"github.com/fastygo/todolist/pkg/httpcontext"
	"github.com/fastygo/todolist/pkg/token"
)

type TokenVerifier interface {
	Verify(raw string) (*token.Claims, error)
}

// PrincipalResolver maps verified claims to a live user; nil means the user is gone.
type PrincipalResolver interface {
	ValidatePrincipal(ctx context.Context, claims *token.Claims) (*domain.User, error)
}

// JWTAuth guards a handler: no token, an invalid token, or a token whose user no
// longer exists all end in 401. Otherwise the principal is attached and next runs.
func JWTAuth(verifier TokenVerifier, resolver PrincipalResolver, adapter *httpcontext.Adapter, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if adapter == nil {
		adapter = httpcontext.NewAdapter(0)
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			log := logger.With(zap.String("request_id", httpcontext.RequestID(ctx)))

			tokenString, ok := extractToken(ctx)
			if !ok {
				unauthorized(ctx, "missing bearer token")
				return
			}

			claims, err := verifier.Verify(tokenString)
			if err != nil {
				log.Warn("invalid jwt token", zap.Error(err))
				unauthorized(ctx, "invalid or expired token")
				return
			}

			stdCtx, cancel := adapter.Attach(ctx)
			user, err := resolver.ValidatePrincipal(stdCtx, claims)
			cancel()
			if err != nil {
				log.Error("principal lookup failed", zap.String("user_id", claims.Subject), zap.Error(err))
				transport.Write(ctx, http.StatusInternalServerError,
					transport.NewError(string(domain.ErrCodeInternal), "internal server error", nil))
				return
			}
			if user == nil {
				log.Warn("token subject not found", zap.String("user_id", claims.Subject))
				unauthorized(ctx, "invalid or expired token")
				return
			}

			httpcontext.SetPrincipal(ctx, domain.PrincipalOf(user))
			next(ctx)
		}
	}
}

func unauthorized(ctx *fasthttp.RequestCtx, message string) {
	ctx.Response.Header.Set("WWW-Authenticate", `Bearer realm="todolist"`)
	transport.Write(ctx, http.StatusUnauthorized, transport.NewError(string(domain.ErrCodeUnauthorized), message, nil))
}

func extractToken(ctx *fasthttp.RequestCtx) (string, bool) {
	header := strings.TrimSpace(string(ctx.Request.Header.Peek("Authorization")))
	scheme, raw, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}
