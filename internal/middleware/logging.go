package middleware

import (
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/todolist/pkg/httpcontext"
)

const maxUserAgentLength = 100

// RequestLogger writes one line per request. Bodies are never logged.
func RequestLogger(logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			start := time.Now()
			requestID := httpcontext.RequestID(ctx)

			next(ctx)

			status := ctx.Response.StatusCode()
			ua := string(ctx.Request.Header.UserAgent())
			if len(ua) > maxUserAgentLength {
				ua = ua[:maxUserAgentLength]
			}
			fields := []zap.Field{
				zap.String("method", string(ctx.Method())),
				zap.String("path", string(ctx.Path())),
				zap.Int("status", status),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote_addr", ctx.RemoteIP().String()),
				zap.String("user_agent", ua),
				zap.String("request_id", requestID),
			}
			if principal, ok := httpcontext.PrincipalFrom(ctx); ok {
				fields = append(fields, zap.String("user_id", principal.UserID))
			}

			switch {
			case status >= fasthttp.StatusInternalServerError:
				logger.Error("http request", fields...)
			case status >= fasthttp.StatusBadRequest:
				logger.Warn("http request", fields...)
			default:
				logger.Info("http request", fields...)
			}
		}
	}
}
