package postgres

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const maxStatementLength = 256

// QueryTracer opens a client span around every pgx query.
type QueryTracer struct {
	tracer trace.Tracer
}

var _ pgx.QueryTracer = (*QueryTracer)(nil)

// NewQueryTracer uses the global provider when provider is nil.
func NewQueryTracer(provider trace.TracerProvider) *QueryTracer {
	if provider == nil {
		provider = otel.GetTracerProvider()
	}
	return &QueryTracer{tracer: provider.Tracer("github.com/fastygo/todolist/internal/infrastructure/postgres")}
}

func (t *QueryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	statement := strings.Join(strings.Fields(data.SQL), " ")
	if len(statement) > maxStatementLength {
		statement = statement[:maxStatementLength]
	}
	ctx, _ = t.tracer.Start(ctx, "postgres "+operation(statement),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			semconv.DBSystemPostgreSQL,
			attribute.String("db.statement", statement),
		),
	)
	return ctx
}

func (t *QueryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	span := trace.SpanFromContext(ctx)
	if data.Err != nil && data.Err != pgx.ErrNoRows {
		span.RecordError(data.Err)
		span.SetStatus(codes.Error, data.Err.Error())
	}
	span.SetAttributes(attribute.Int64("db.rows_affected", data.CommandTag.RowsAffected()))
	span.End()
}

func operation(statement string) string {
	op, _, _ := strings.Cut(statement, " ")
	if op == "" {
		return "QUERY"
	}
	return strings.ToUpper(op)
}
