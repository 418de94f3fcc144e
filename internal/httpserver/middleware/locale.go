package middleware

import (
	"net/http"
	"strings"

	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/i18n"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/platform/requestctx"
)

// LangCookie remembers the page language between visits.
const LangCookie = "lang"

// Locale resolves the page language from ?lang, the session, the lang
// cookie and finally Accept-Language, and stores it on the context.
func Locale(bundle *i18n.Bundle, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, _ := SessionFromContext(r.Context())
			lang := ""
			if q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("lang"))); bundle.IsSupported(q) {
				lang = q
				http.SetCookie(w, &http.Cookie{
					Name:     LangCookie,
					Value:    q,
					Path:     "/",
					MaxAge:   365 * 24 * 60 * 60,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
			if lang == "" && sess != nil && bundle.IsSupported(sess.Lang()) {
				lang = sess.Lang()
			}
			if lang == "" {
				if c, err := r.Cookie(LangCookie); err == nil && bundle.IsSupported(strings.ToLower(c.Value)) {
					lang = strings.ToLower(c.Value)
				}
			}
			if lang == "" {
				lang = bundle.Resolve(r.Header.Get("Accept-Language"))
			}
			if sess != nil {
				sess.SetLang(lang)
			}

			w.Header().Set("Content-Language", lang)
			w.Header().Add("Vary", "Accept-Language")
			next.ServeHTTP(w, r.WithContext(requestctx.WithLang(r.Context(), lang)))
		})
	}
}
