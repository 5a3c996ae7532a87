package usecase

import (
	"errors"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fastygo/todolist/domain"
)

// EndSpan closes span, marking it failed only for errors the caller could not have caused.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		var dErr *domain.Error
		if !errors.As(err, &dErr) || dErr.Code == domain.ErrCodeInternal {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}
	span.End()
}
