package router

import (
	"fmt"
	"net/http"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/todolist/api/handler"
	"github.com/fastygo/todolist/api/transport"
	"github.com/fastygo/todolist/domain"
	"github.com/fastygo/todolist/pkg/httpcontext"
)

type Middleware func(fasthttp.RequestHandler) fasthttp.RequestHandler

type Handlers struct {
	Auth   *apiHandler.AuthHandler
	User   *apiHandler.UserHandler
	Task   *apiHandler.TaskHandler
	Health *apiHandler.HealthHandler
}

func New(handlers Handlers, authMiddleware Middleware, logger *zap.Logger) *router.Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := router.New()
	r.SaveMatchedRoutePath = true

	r.PanicHandler = func(ctx *fasthttp.RequestCtx, rcv interface{}) {
		logger.Error("panic in handler",
			zap.String("request_id", httpcontext.RequestID(ctx)),
			zap.String("path", string(ctx.Path())),
			zap.String("panic", fmt.Sprint(rcv)),
			zap.Stack("stack"),
		)
		transport.Write(ctx, http.StatusInternalServerError,
			transport.NewError(string(domain.ErrCodeInternal), "internal server error", nil))
	}
	r.NotFound = func(ctx *fasthttp.RequestCtx) {
		transport.Write(ctx, http.StatusNotFound,
			transport.NewError(string(domain.ErrCodeNotFound), "route not found", nil))
	}

	r.GET("/health", handlers.Health.Check)

	// Auth routes
	r.POST("/auth/register", handlers.Auth.Register)
	r.POST("/auth/login", handlers.Auth.Login)

	// Protected routes
	r.GET("/user/me", authMiddleware(handlers.User.Me))
	r.PATCH("/user/me", authMiddleware(handlers.User.UpdateMe))
	r.DELETE("/user/me", authMiddleware(handlers.User.DeleteMe))

	r.POST("/task", authMiddleware(handlers.Task.Create))
	r.GET("/task", authMiddleware(handlers.Task.List))
	r.GET("/task/stats", authMiddleware(handlers.Task.Stats))
	r.GET("/task/{id}", authMiddleware(handlers.Task.Get))
	r.PATCH("/task/{id}", authMiddleware(handlers.Task.Update))
	r.PATCH("/task/{id}/toggle", authMiddleware(handlers.Task.Toggle))
	r.DELETE("/task/{id}", authMiddleware(handlers.Task.Delete))

	return r
}

// Chain wraps h so that the first middleware runs outermost.
func Chain(h fasthttp.RequestHandler, middlewares ...Middleware) fasthttp.RequestHandler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
