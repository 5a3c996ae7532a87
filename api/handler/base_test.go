package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fastygo/todolist/domain"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{domain.NewValidationError(map[string]string{"title": "title is required"}), http.StatusBadRequest},
		{domain.ErrDuplicateEmail, http.StatusConflict},
		{domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{domain.ErrUnauthorized, http.StatusUnauthorized},
		{domain.ErrTaskForbidden, http.StatusForbidden},
		{fmt.Errorf("lookup: %w", domain.ErrTaskNotFound), http.StatusNotFound},
		{errors.New("pq: connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		status, _ := mapError(tt.err)
		assert.Equal(t, tt.status, status, tt.err.Error())
	}
}

func TestRespondError_HidesInternalDetails(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	h := newBaseHandler(nil, zap.New(core))

	ctx := &fasthttp.RequestCtx{}
	h.respondError(ctx, errors.New("insert task: dial tcp 10.0.0.5:5432: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, ctx.Response.StatusCode())
	assert.NotContains(t, string(ctx.Response.Body()), "10.0.0.5")
	var env map[string]any
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &env))
	assert.Equal(t, "internal server error", env["error"])

	require.Equal(t, 1, logs.Len())
	assert.Contains(t, logs.All()[0].ContextMap()["error"], "connection refused")
}

func TestRespondError_ValidationFieldsInMeta(t *testing.T) {
	h := newBaseHandler(nil, nil)
	ctx := &fasthttp.RequestCtx{}
	h.respondError(ctx, domain.NewValidationError(map[string]string{"title": "title is required"}))

	var env struct {
		Code  string `json:"code"`
		Error string `json:"error"`
		Meta  struct {
			Fields map[string]string `json:"fields"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &env))
	assert.Equal(t, "INVALID", env.Code)
	assert.Equal(t, "validation failed", env.Error)
	assert.Equal(t, "title is required", env.Meta.Fields["title"])
}
