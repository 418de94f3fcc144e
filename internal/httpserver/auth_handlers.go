package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/editor"
	custommw "github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/httpserver/middleware"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/i18n"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/platform/events"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/platform/httpx"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/platform/requestctx"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/services"
	appsession "github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/session"
)

const (
	loginPath     = "/auth"
	dashboardPath = "/dashboard"

	// ReasonSignOut marks sessions ended by the user.
	ReasonSignOut = "signout"
)

type authView struct {
	SignUp    bool
	Email     string
	FullName  string
	CSRFToken string
	Lang      string
}

// sessionTracker follows signed-in sessions until they expire.
type sessionTracker interface {
	Track(sessionID, userID string, expiresAt time.Time)
	Forget(sessionID string)
}

type eventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type authHandlers struct {
	auth     *services.AuthService
	managers *services.ManagerRegistry
	tracker  sessionTracker
	events   eventPublisher
	bundle   *i18n.Bundle
	views    *views
	now      func() time.Time
}

// Page renders the sign-in form, or the sign-up form with ?mode=signup.
func (h *authHandlers) Page(w http.ResponseWriter, r *http.Request) {
	if sess, ok := custommw.SessionFromContext(r.Context()); ok && sess.Authenticated() {
		httpx.Redirect(w, r, dashboardPath)
		return
	}
	h.render(w, r, http.StatusOK, authView{SignUp: r.URL.Query().Get("mode") == "signup"}, nil)
}

// SignIn checks the credentials, signs the session in and opens the dashboard.
func (h *authHandlers) SignIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, ok := custommw.SessionFromContext(ctx)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("session_missing", "session unavailable", http.StatusInternalServerError))
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	email := r.PostFormValue("email")
	identity, err := h.auth.SignIn(ctx, email, r.PostFormValue("password"))
	if err != nil {
		h.fail(w, r, authView{Email: email}, err)
		return
	}

	previous := sess.ID()
	if h.managers != nil && previous != "" {
		h.managers.Drop(previous)
	}
	sess.SignIn(appsession.User{UID: identity.UserID, Email: identity.Email, FullName: identity.FullName}, h.now())
	sess.AddFlash(appsession.Flash{Level: string(editor.LevelSuccess), Title: services.AuthSignedInTitle, Body: services.AuthSignedInBody})
	if h.tracker != nil {
		h.tracker.Track(sess.ID(), identity.UserID, sess.ExpiresAt())
	}
	h.publish(ctx, events.Event{Type: events.TypeSessionStarted, UserID: identity.UserID, SessionID: sess.ID()})
	requestctx.Logger(ctx).Info("dashboard sign in", zap.String("uid", identity.UserID))
	httpx.Redirect(w, r, dashboardPath)
}

// SignUp creates an account. The user stays signed out and is asked to
// confirm their email before signing in.
func (h *authHandlers) SignUp(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := services.SignUpForm{
		Email:           r.PostFormValue("email"),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirm_password"),
		FullName:        r.PostFormValue("full_name"),
	}
	view := authView{SignUp: true, Email: form.Email, FullName: form.FullName}
	if _, err := h.auth.SignUp(ctx, form); err != nil {
		h.fail(w, r, view, err)
		return
	}
	notice := editor.Success(services.AuthSignedUpTitle, services.AuthSignedUpBody)
	if !custommw.IsHTMXRequest(ctx) {
		if sess, ok := custommw.SessionFromContext(ctx); ok {
			sess.AddFlash(flashFromNotice(notice))
		}
		http.Redirect(w, r, loginPath, http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, authView{Email: form.Email}, []editor.Notice{notice})
}

// SignOut ends the dashboard session everywhere it is open.
func (h *authHandlers) SignOut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, ok := custommw.SessionFromContext(ctx)
	if ok && sess.Authenticated() {
		user := sess.User()
		h.publish(ctx, events.Event{Type: events.TypeSessionEnded, UserID: user.UID, SessionID: sess.ID(), Reason: ReasonSignOut})
		if h.managers != nil {
			h.managers.Drop(sess.ID())
		}
		if h.tracker != nil {
			h.tracker.Forget(sess.ID())
		}
		sess.SignOut()
		requestctx.Logger(ctx).Info("dashboard sign out", zap.String("uid", user.UID))
	}
	if ok {
		sess.AddFlash(appsession.Flash{Level: string(editor.LevelSuccess), Title: services.AuthSignedOutTitle, Body: services.AuthSignedOutBody})
	}
	httpx.Redirect(w, r, "/")
}

func (h *authHandlers) fail(w http.ResponseWriter, r *http.Request, view authView, err error) {
	var authErr *services.AuthError
	notice := editor.Failure(services.AuthErrorTitle, err)
	if errors.As(err, &authErr) {
		notice = authErr.Notice()
	}
	status := http.StatusUnauthorized
	if custommw.IsHTMXRequest(r.Context()) {
		status = http.StatusOK
	}
	h.render(w, r, status, view, []editor.Notice{notice})
}

func (h *authHandlers) render(w http.ResponseWriter, r *http.Request, status int, view authView, notices []editor.Notice) {
	ctx := r.Context()
	lang := requestctx.Lang(ctx)
	toasts := toastsFromNotices(notices)
	if sess, ok := custommw.SessionFromContext(ctx); ok {
		toasts = append(toastsFromFlashes(sess.Flashes()), toasts...)
	}
	view.CSRFToken = custommw.CSRFTokenFromContext(ctx)
	view.Lang = lang
	if custommw.IsHTMXRequest(ctx) {
		if err := h.views.fragment(w, status, "auth-form", view, toasts); err != nil {
			requestctx.Logger(ctx).Error("render auth form", zap.Error(err))
		}
		return
	}
	data := basePage(r, lang)
	data.Title = h.bundle.T(lang, titleKey(view))
	data.Toasts = toasts
	data.Body = view
	if err := h.views.page(w, status, "auth.tmpl", data); err != nil {
		requestctx.Logger(ctx).Error("render auth page", zap.Error(err))
	}
}

func (h *authHandlers) publish(ctx context.Context, event events.Event) {
	if h.events == nil {
		return
	}
	if err := h.events.Publish(ctx, event); err != nil {
		requestctx.Logger(ctx).Warn("publish session event", zap.String("type", event.Type), zap.Error(err))
	}
}

func titleKey(view authView) string {
	if view.SignUp {
		return "auth.signup_title"
	}
	return "auth.signin_title"
}
