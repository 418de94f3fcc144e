package middleware

import (
	"net/http"

	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/platform/httpx"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/platform/requestctx"
)

// Auth lets signed-in sessions through and sends everyone else to
// loginPath: a 302 for page loads, HX-Redirect for htmx requests.
// Nothing of the protected handler runs before the check.
func Auth(loginPath string) func(http.Handler) http.Handler {
	if loginPath == "" {
		loginPath = "/auth"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := SessionFromContext(r.Context())
			if !ok || !sess.Authenticated() {
				if IsHTMXRequest(r.Context()) {
					httpx.Redirect(w, r, loginPath)
					return
				}
				http.Redirect(w, r, loginPath, http.StatusFound)
				return
			}
			user := sess.User()
			ctx := requestctx.WithActor(r.Context(), requestctx.Actor{
				UserID:    user.UID,
				Email:     user.Email,
				SessionID: sess.ID(),
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
