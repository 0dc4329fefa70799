package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// SessionCookieName is the visitor cookie.
const SessionCookieName = "ARTIFACTS_WEB_SESSION"

const sessionMaxAge = 30 * 24 * time.Hour

// SessionData identifies a visitor. It carries no page state; mounted shells live in memory.
type SessionData struct {
	ID        string    `json:"id"`
	Locale    string    `json:"locale,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	dirty bool
}

// MarkDirty flags the session for writing at the end of the request.
func (s *SessionData) MarkDirty() { s.dirty = true; s.UpdatedAt = time.Now().UTC() }

// SessionConfig configures the visitor cookie.
type SessionConfig struct {
	// SigningKey signs the cookie. An empty key is replaced with a random
	// process-local key, so visitors get a new identity on restart.
	SigningKey []byte
	Secure     bool
}

type sessionCodec struct {
	key    []byte
	secure bool
}

// Session loads or initialises the visitor session and stores it in the request context.
func Session(cfg SessionConfig) func(http.Handler) http.Handler {
	codec := sessionCodec{key: cfg.SigningKey, secure: cfg.Secure}
	if len(codec.key) == 0 {
		codec.key = make([]byte, 32)
		if _, err := rand.Read(codec.key); err != nil {
			panic("session: generate signing key: " + err.Error())
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sd, fromCookie := codec.read(r)
			if sd.ID == "" {
				now := time.Now().UTC()
				sd = &SessionData{ID: ulid.Make().String(), CreatedAt: now, UpdatedAt: now, dirty: true}
			}
			ctx := context.WithValue(r.Context(), ctxKeySession, sd)

			rw := &beforeWriteRecorder{ResponseWriter: w}
			rw.before = func() {
				if sd.dirty || !fromCookie {
					codec.write(w, sd)
				}
			}
			next.ServeHTTP(rw, r.WithContext(ctx))
			// nothing written, e.g. an empty 200
			if !rw.wrote && (sd.dirty || !fromCookie) {
				codec.write(w, sd)
			}
		})
	}
}

// GetSession returns the session from context, or an empty one.
func GetSession(r *http.Request) *SessionData {
	if sd, ok := r.Context().Value(ctxKeySession).(*SessionData); ok {
		return sd
	}
	return &SessionData{}
}

func (c sessionCodec) read(r *http.Request) (*SessionData, bool) {
	ck, err := r.Cookie(SessionCookieName)
	if err != nil || ck.Value == "" {
		return &SessionData{}, false
	}
	payloadPart, sigPart, ok := strings.Cut(ck.Value, ".")
	if !ok {
		return &SessionData{}, false
	}
	payload, err := base64.RawURLEncoding.DecodeString(payloadPart)
	if err != nil {
		return &SessionData{}, false
	}
	sig, err := base64.RawURLEncoding.DecodeString(sigPart)
	if err != nil {
		return &SessionData{}, false
	}
	if !hmac.Equal(sig, c.sign(payload)) {
		return &SessionData{}, false
	}
	var sd SessionData
	if err := json.Unmarshal(payload, &sd); err != nil {
		return &SessionData{}, false
	}
	return &sd, true
}

func (c sessionCodec) write(w http.ResponseWriter, sd *SessionData) {
	b, _ := json.Marshal(sd)
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    base64.RawURLEncoding.EncodeToString(b) + "." + base64.RawURLEncoding.EncodeToString(c.sign(b)),
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(sessionMaxAge),
	})
	sd.dirty = false
}

func (c sessionCodec) sign(payload []byte) []byte {
	mac := hmac.New(sha256.New, c.key)
	mac.Write(payload)
	return mac.Sum(nil)
}

// beforeWriteRecorder runs before once ahead of the first header or body write.
type beforeWriteRecorder struct {
	http.ResponseWriter
	before func()
	wrote  bool
}

func (rw *beforeWriteRecorder) fire() {
	if rw.wrote {
		return
	}
	rw.wrote = true
	if rw.before != nil {
		rw.before()
	}
}

func (rw *beforeWriteRecorder) WriteHeader(status int) {
	rw.fire()
	rw.ResponseWriter.WriteHeader(status)
}

func (rw *beforeWriteRecorder) Write(b []byte) (int, error) {
	rw.fire()
	return rw.ResponseWriter.Write(b)
}

func (rw *beforeWriteRecorder) Flush() {
	rw.fire()
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *beforeWriteRecorder) Unwrap() http.ResponseWriter { return rw.ResponseWriter }
