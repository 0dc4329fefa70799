package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"finitefield.org/artifacts-web/internal/requestctx"
)

func TestWriteProblemDefaults(t *testing.T) {
	ctx := requestctx.WithTraceID(context.Background(), "trace-1")
	rec := httptest.NewRecorder()

	WriteProblem(ctx, rec, Problem{Status: http.StatusConflict, Detail: "line\nbreak"})

	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	var body Problem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "Conflict", body.Title)
	require.Equal(t, "about:blank", body.Type)
	require.Equal(t, "linebreak", body.Detail)
	require.Equal(t, "trace-1", body.TraceID)
}

func TestHelpersSetInstance(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/carousel/next", nil)
	rec := httptest.NewRecorder()

	Conflict(rec, req, "no shell")

	var body Problem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, ProblemTypeConflict, body.Type)
	require.Equal(t, "/carousel/next", body.Instance)
	require.Equal(t, http.StatusConflict, body.Status)
}
