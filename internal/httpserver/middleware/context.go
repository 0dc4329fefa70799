package middleware

import "context"

// context keys are unexported to avoid collisions
type ctxKey string

const (
	ctxKeyHypermedia ctxKey = "is_hypermedia"
	ctxKeySession    ctxKey = "session"
	ctxKeyLocaleFB   ctxKey = "locale_fallback"
)

// WithHypermedia marks the request as issued by the page script rather than a plain form post.
func WithHypermedia(ctx context.Context, is bool) context.Context {
	return context.WithValue(ctx, ctxKeyHypermedia, is)
}

// IsHypermedia reports whether the request came from the page script.
func IsHypermedia(ctx context.Context) bool {
	v, _ := ctx.Value(ctxKeyHypermedia).(bool)
	return v
}
