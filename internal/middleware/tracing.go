package middleware

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/fastygo/todolist/pkg/httpcontext"
)

const tracerName = "github.com/fastygo/todolist/internal/middleware"

// headerCarrier exposes fasthttp request headers to OpenTelemetry propagators.
type headerCarrier struct {
	header *fasthttp.RequestHeader
}

var _ propagation.TextMapCarrier = headerCarrier{}

func (c headerCarrier) Get(key string) string {
	return string(c.header.Peek(key))
}

func (c headerCarrier) Set(key, value string) {
	c.header.Set(key, value)
}

func (c headerCarrier) Keys() []string {
	keys := make([]string, 0, c.header.Len())
	c.header.VisitAll(func(key, _ []byte) {
		keys = append(keys, string(key))
	})
	return keys
}

// Tracing opens a server span per request, continuing any incoming W3C trace.
// A nil provider uses the global one.
func Tracing(provider trace.TracerProvider) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if provider == nil {
		provider = otel.GetTracerProvider()
	}
	tracer := provider.Tracer(tracerName)

	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			method := string(ctx.Method())
			path := string(ctx.Path())

			parent := otel.GetTextMapPropagator().Extract(httpcontext.BaseContext(ctx), headerCarrier{header: &ctx.Request.Header})
			spanCtx, span := tracer.Start(parent, method+" "+path,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(method),
					semconv.URLPath(path),
				),
			)
			defer span.End()
			httpcontext.SetBaseContext(ctx, spanCtx)

			next(ctx)

			if route, ok := ctx.UserValue(router.MatchedRoutePathParam).(string); ok && route != "" {
				span.SetName(method + " " + route)
				span.SetAttributes(semconv.HTTPRoute(route))
			}
			status := ctx.Response.StatusCode()
			span.SetAttributes(semconv.HTTPResponseStatusCode(status))
			if status >= fasthttp.StatusInternalServerError {
				span.SetStatus(codes.Error, fasthttp.StatusMessage(status))
			}
		}
	}
}
