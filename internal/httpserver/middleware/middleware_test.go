package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"finitefield.org/artifacts-web/internal/i18n"
)

func sessionCookie(t *testing.T, res *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range res.Cookies() {
		if c.Name == SessionCookieName {
			return c
		}
	}
	return nil
}

func TestSessionIssuesAndReusesCookie(t *testing.T) {
	var seen []string
	h := Session(SessionConfig{SigningKey: []byte("0123456789abcdef0123456789abcdef")})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, GetSession(r).ID)
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	ck := sessionCookie(t, rec.Result())
	require.NotNil(t, ck)
	require.True(t, ck.HttpOnly)
	require.Equal(t, http.SameSiteLaxMode, ck.SameSite)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(ck)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Nil(t, sessionCookie(t, rec.Result()), "clean session is not rewritten")

	require.Len(t, seen, 2)
	require.NotEmpty(t, seen[0])
	require.Equal(t, seen[0], seen[1])
}

func TestSessionRejectsTamperedCookie(t *testing.T) {
	var id string
	h := Session(SessionConfig{SigningKey: []byte("0123456789abcdef0123456789abcdef")})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id = GetSession(r).ID
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "eyJpZCI6ImV2aWwifQ.bm9wZQ"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.NotEqual(t, "evil", id)
	require.NotNil(t, sessionCookie(t, rec.Result()))
}

func TestHypermediaDetection(t *testing.T) {
	var is bool
	h := Hypermedia(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		is = IsHypermedia(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/carousel/next", nil)
	req.Header.Set(DatastarRequestHeader, "true")
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.True(t, is)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/carousel/next", nil))
	require.False(t, is)
}

func TestLocaleResolution(t *testing.T) {
	bundle, err := i18n.Embedded()
	require.NoError(t, err)

	var lang string
	h := Session(SessionConfig{})(Locale(bundle)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang = Lang(r)
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, "en", lang)
	require.Equal(t, "en", rec.Header().Get("Content-Language"))

	req = httptest.NewRequest(http.MethodGet, "/?hl=ru", nil)
	req.Header.Set("Accept-Language", "en")
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, "ru", lang)

	req = httptest.NewRequest(http.MethodGet, "/?hl=xx", nil)
	req.Header.Set("Accept-Language", "de")
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, "ru", lang, "unsupported languages fall back")
}

func TestLangWithoutMiddleware(t *testing.T) {
	require.Equal(t, i18n.DefaultFallback, Lang(httptest.NewRequest(http.MethodGet, "/", nil)))
}
