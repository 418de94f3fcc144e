package middleware

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const htmxContextKey contextKey = "htmx.request"

// htmxRequest is what the handlers need from the HX-* headers.
type htmxRequest struct {
	partial bool
	target  string
}

// HTMX marks requests issued by htmx for a partial swap. Boosted links and
// history restores ask for whole pages and are left unmarked.
func HTMX() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Vary", "HX-Request")
			req := htmxRequest{
				partial: isTrue(r.Header.Get("HX-Request")) &&
					!isTrue(r.Header.Get("HX-Boosted")) &&
					!isTrue(r.Header.Get("HX-History-Restore-Request")),
				target: r.Header.Get("HX-Target"),
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), htmxContextKey, req)))
		})
	}
}

// IsHTMXRequest reports whether the response should be a fragment.
func IsHTMXRequest(ctx context.Context) bool {
	req, _ := ctx.Value(htmxContextKey).(htmxRequest)
	return req.partial
}

// HTMXTarget is the id of the element htmx will swap, if any.
func HTMXTarget(ctx context.Context) string {
	req, _ := ctx.Value(htmxContextKey).(htmxRequest)
	return req.target
}

// NoStore disables caching of dashboard responses.
func NoStore() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "no-store")
			next.ServeHTTP(w, r)
		})
	}
}

func isTrue(v string) bool { return strings.EqualFold(strings.TrimSpace(v), "true") }
