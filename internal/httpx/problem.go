// Package httpx writes RFC 7807 problem responses.
package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"finitefield.org/artifacts-web/internal/requestctx"
)

// Problem types.
const (
	ProblemTypeBadRequest = "https://artifacts.finitefield.org/problems/bad-request"
	ProblemTypeNotFound   = "https://artifacts.finitefield.org/problems/not-found"
	ProblemTypeConflict   = "https://artifacts.finitefield.org/problems/no-mounted-shell"
	ProblemTypeInternal   = "https://artifacts.finitefield.org/problems/internal-error"
)

// Problem is an RFC 7807 Problem Details body.
type Problem struct {
	Type      string `json:"type"`
	Title     string `json:"title"`
	Status    int    `json:"status"`
	Detail    string `json:"detail,omitempty"`
	Instance  string `json:"instance,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	TraceID   string `json:"trace_id,omitempty"`
}

// WriteProblem writes p as application/problem+json, filling request and trace ids from ctx.
func WriteProblem(ctx context.Context, w http.ResponseWriter, p Problem) {
	if p.Status == 0 {
		p.Status = http.StatusInternalServerError
	}
	if p.Title == "" {
		p.Title = http.StatusText(p.Status)
	}
	if p.Type == "" {
		p.Type = "about:blank"
	}
	p.Detail = sanitize(p.Detail, 512)
	if p.RequestID == "" {
		p.RequestID = sanitize(middleware.GetReqID(ctx), 80)
	}
	if p.TraceID == "" {
		p.TraceID = sanitize(requestctx.TraceID(ctx), 64)
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(p.Status)
	if err := json.NewEncoder(w).Encode(p); err != nil {
		requestctx.Logger(ctx).Warn("write problem body failed")
	}
}

// BadRequest writes a 400 problem.
func BadRequest(w http.ResponseWriter, r *http.Request, detail string) {
	WriteProblem(r.Context(), w, Problem{Type: ProblemTypeBadRequest, Status: http.StatusBadRequest, Detail: detail, Instance: r.URL.Path})
}

// NotFound writes a 404 problem.
func NotFound(w http.ResponseWriter, r *http.Request, detail string) {
	WriteProblem(r.Context(), w, Problem{Type: ProblemTypeNotFound, Status: http.StatusNotFound, Detail: detail, Instance: r.URL.Path})
}

// Conflict writes a 409 problem.
func Conflict(w http.ResponseWriter, r *http.Request, detail string) {
	WriteProblem(r.Context(), w, Problem{Type: ProblemTypeConflict, Status: http.StatusConflict, Detail: detail, Instance: r.URL.Path})
}

// InternalError writes a 500 problem.
func InternalError(w http.ResponseWriter, r *http.Request, detail string) {
	WriteProblem(r.Context(), w, Problem{Type: ProblemTypeInternal, Status: http.StatusInternalServerError, Detail: detail, Instance: r.URL.Path})
}

func sanitize(s string, limit int) string {
	s = strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s))
	if limit > 0 && len(s) > limit {
		s = s[:limit]
	}
	return s
}
