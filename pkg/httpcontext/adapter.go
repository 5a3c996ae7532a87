package httpcontext

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/todolist/domain"
	appLogger "github.com/fastygo/todolist/pkg/logger"
)

// Key represents a context value key exported for reuse.
type Key string

const (
	KeyRemoteAddr Key = "remote_addr"
	KeyUserAgent  Key = "user_agent"
)

// fasthttp user value slots shared by middleware and handlers.
const (
	userValueRequestID = "httpcontext.request_id"
	userValuePrincipal = "httpcontext.principal"
	userValueBase      = "httpcontext.base"
)

const RequestIDHeader = "X-Request-ID"

// Adapter converts fasthttp.RequestCtx into a stdlib context with deadlines and metadata.
type Adapter struct {
	timeout time.Duration
}

// NewAdapter constructs a new Adapter using the provided timeout.
func NewAdapter(timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Adapter{
		timeout: timeout,
	}
}

// Attach creates a context with timeout derived from the adapter and enriches it with
// request metadata. It builds on the context stored by SetBaseContext (e.g. a tracing span).
func (a *Adapter) Attach(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	stdCtx, cancel := context.WithTimeout(BaseContext(ctx), a.timeout)

	stdCtx = appLogger.ContextWithRequestID(stdCtx, RequestID(ctx))
	if principal, ok := PrincipalFrom(ctx); ok {
		stdCtx = appLogger.ContextWithUserID(stdCtx, principal.UserID)
	}

	if remoteAddr := ctx.RemoteAddr(); remoteAddr != nil {
		stdCtx = context.WithValue(stdCtx, KeyRemoteAddr, remoteAddr.String())
	}
	if ua := string(ctx.Request.Header.UserAgent()); ua != "" {
		stdCtx = context.WithValue(stdCtx, KeyUserAgent, ua)
	}

	return stdCtx, cancel
}

// RequestID returns the request's ID, taking it from the X-Request-ID header or
// generating one on first use. The ID is echoed on the response.
func RequestID(ctx *fasthttp.RequestCtx) string {
	if ctx == nil {
		return uuid.NewString()
	}
	if id, ok := ctx.UserValue(userValueRequestID).(string); ok && id != "" {
		return id
	}
	id := strings.TrimSpace(string(ctx.Request.Header.Peek(RequestIDHeader)))
	if id == "" {
		id = uuid.NewString()
	}
	ctx.SetUserValue(userValueRequestID, id)
	ctx.Response.Header.Set(RequestIDHeader, id)
	return id
}

// SetPrincipal attaches the authenticated identity to the request.
func SetPrincipal(ctx *fasthttp.RequestCtx, principal domain.Principal) {
	ctx.SetUserValue(userValuePrincipal, principal)
}

// PrincipalFrom returns the identity attached by the auth middleware.
func PrincipalFrom(ctx *fasthttp.RequestCtx) (domain.Principal, bool) {
	if ctx == nil {
		return domain.Principal{}, false
	}
	principal, ok := ctx.UserValue(userValuePrincipal).(domain.Principal)
	return principal, ok && principal.UserID != ""
}

// SetBaseContext stores the context later requests build on.
func SetBaseContext(ctx *fasthttp.RequestCtx, base context.Context) {
	ctx.SetUserValue(userValueBase, base)
}

// BaseContext returns the stored base context or context.Background.
func BaseContext(ctx *fasthttp.RequestCtx) context.Context {
	if ctx != nil {
		if base, ok := ctx.UserValue(userValueBase).(context.Context); ok && base != nil {
			return base
		}
	}
	return context.Background()
}
