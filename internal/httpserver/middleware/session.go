package middleware

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/platform/requestctx"
	appsession "github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/session"
)

type sessionContextKey string

const requestSessionKey sessionContextKey = "site.session"

// SessionStore abstracts the session manager for middleware integration.
type SessionStore interface {
	Load(*http.Request) (*appsession.Session, error)
	New() *appsession.Session
	Save(http.ResponseWriter, *appsession.Session) error
	Destroy(http.ResponseWriter)
}

// ExpiredFunc is told about a session that was found expired, before it is
// replaced with a fresh one.
type ExpiredFunc func(ctx context.Context, expired *appsession.Session)

// Session attaches the decoded session to the request context. The cookie
// is written just before the first byte of the response so redirects and
// streamed responses carry it too.
func Session(store SessionStore, onExpired ExpiredFunc) func(http.Handler) http.Handler {
	if store == nil {
		panic("session store is required")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			sess, err := store.Load(r)
			switch {
			case errors.Is(err, appsession.ErrExpired):
				requestctx.Logger(ctx).Info("session expired", zap.Bool("signed_in", sess != nil && sess.Authenticated()))
				if onExpired != nil && sess != nil {
					onExpired(ctx, sess)
				}
				sess = store.New()
			case err != nil || sess == nil:
				if err != nil {
					requestctx.Logger(ctx).Warn("session load failed", zap.Error(err))
				}
				sess = store.New()
			}

			sw := &sessionWriter{ResponseWriter: w, store: store, sess: sess, ctx: ctx}
			next.ServeHTTP(sw, r.WithContext(context.WithValue(ctx, requestSessionKey, sess)))
			sw.save()
		})
	}
}

// SessionFromContext retrieves the session attached to this request.
func SessionFromContext(ctx context.Context) (*appsession.Session, bool) {
	if ctx == nil {
		return nil, false
	}
	sess, ok := ctx.Value(requestSessionKey).(*appsession.Session)
	return sess, ok && sess != nil
}

type sessionWriter struct {
	http.ResponseWriter
	store SessionStore
	sess  *appsession.Session
	ctx   context.Context
	once  sync.Once
}

func (w *sessionWriter) save() {
	w.once.Do(func() {
		if err := w.store.Save(w.ResponseWriter, w.sess); err != nil {
			requestctx.Logger(w.ctx).Warn("session save failed", zap.Error(err))
		}
	})
}

func (w *sessionWriter) WriteHeader(status int) {
	w.save()
	w.ResponseWriter.WriteHeader(status)
}

func (w *sessionWriter) Write(b []byte) (int, error) {
	w.save()
	return w.ResponseWriter.Write(b)
}

func (w *sessionWriter) Flush() {
	w.save()
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *sessionWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
