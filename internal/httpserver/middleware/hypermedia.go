package middleware

import "net/http"

// DatastarRequestHeader is sent by datastar actions and by the shell script.
const DatastarRequestHeader = "Datastar-Request"

// Hypermedia marks requests coming from the page script so handlers can answer
// with 204 and let the update stream carry the new markup.
func Hypermedia(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		is := r.Header.Get(DatastarRequestHeader) == "true"
		w.Header().Add("Vary", DatastarRequestHeader)
		next.ServeHTTP(w, r.WithContext(WithHypermedia(r.Context(), is)))
	})
}

// NoStore disables caching of dynamic responses.
func NoStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
