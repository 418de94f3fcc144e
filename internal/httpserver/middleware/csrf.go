package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/platform/httpx"
)

type csrfContextKey string

const csrfTokenContextKey csrfContextKey = "csrf.token"

const (
	// CSRFHeader carries the token on htmx requests.
	CSRFHeader = "X-CSRF-Token"
	// CSRFField carries the token on plain form posts.
	CSRFField = "csrf_token"
)

// CSRF ties a token to the session. Unsafe methods must echo it in the
// X-CSRF-Token header or the csrf_token form field.
func CSRF() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := SessionFromContext(r.Context())
			if !ok {
				httpx.WriteError(r.Context(), w, httpx.NewError("csrf_unavailable", "session is not available", http.StatusInternalServerError))
				return
			}
			token, err := sess.EnsureCSRFToken()
			if err != nil {
				httpx.WriteError(r.Context(), w, httpx.NewError("csrf_unavailable", "csrf token error", http.StatusInternalServerError))
				return
			}

			if isUnsafeMethod(r.Method) {
				submitted := r.Header.Get(CSRFHeader)
				if submitted == "" {
					submitted = r.PostFormValue(CSRFField)
				}
				if submitted == "" || subtle.ConstantTimeCompare([]byte(submitted), []byte(token)) != 1 {
					httpx.WriteError(r.Context(), w, httpx.NewError("csrf_invalid", "invalid CSRF token", http.StatusForbidden))
					return
				}
			}

			ctx := context.WithValue(r.Context(), csrfTokenContextKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CSRFTokenFromContext returns the token issued for the current request.
func CSRFTokenFromContext(ctx context.Context) string {
	if token, ok := ctx.Value(csrfTokenContextKey).(string); ok {
		return token
	}
	return ""
}

func isUnsafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return false
	default:
		return true
	}
}
