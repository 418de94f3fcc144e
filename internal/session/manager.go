// Package session keeps dashboard sessions in signed, encrypted cookies.
package session

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
)

const (
	defaultCookieName = "site_session"
	defaultCookiePath = "/"
	defaultLifetime   = 12 * time.Hour
	maxFlashes        = 8
)

// ErrExpired indicates the stored session passed its absolute or idle expiry.
var ErrExpired = errors.New("session expired")

// ErrInvalidConfig indicates the manager was initialised with missing or invalid options.
var ErrInvalidConfig = errors.New("session: invalid config")

// User is the signed-in account persisted in the session.
type User struct {
	UID      string `json:"uid"`
	Email    string `json:"email,omitempty"`
	FullName string `json:"fullName,omitempty"`
}

// Flash is a notification carried across one redirect.
type Flash struct {
	Level string `json:"level"`
	Title string `json:"title"`
	Body  string `json:"body,omitempty"`
}

// Data is the persisted session payload.
type Data struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"createdAt"`
	LastActive time.Time `json:"lastActive"`
	ExpiresAt  time.Time `json:"expiresAt,omitempty"`
	CSRFToken  string    `json:"csrfToken,omitempty"`
	Lang       string    `json:"lang,omitempty"`
	User       *User     `json:"user,omitempty"`
	Flashes    []Flash   `json:"flashes,omitempty"`
}

// Session holds mutable state for the current request.
type Session struct {
	data      Data
	dirty     bool
	destroyed bool
	cfg       *Config
}

// Config controls cookie encoding and lifetime limits.
type Config struct {
	CookieName     string
	HashKey        []byte
	BlockKey       []byte
	CookiePath     string
	CookieDomain   string
	CookieSecure   bool
	CookieSameSite http.SameSite

	// Lifetime is the absolute expiry measured from sign-in.
	Lifetime time.Duration
	// IdleTimeout expires sessions not seen for this long. Zero disables it.
	IdleTimeout time.Duration
	Now         func() time.Time
}

// Manager decodes and persists sessions via securecookie.
type Manager struct {
	cfg   Config
	codec *securecookie.SecureCookie
	now   func() time.Time
}

// NewManager constructs a Manager using the provided configuration.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.HashKey) == 0 {
		return nil, fmt.Errorf("%w: hash key is required", ErrInvalidConfig)
	}
	switch len(cfg.BlockKey) {
	case 0, 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: block key must be 16, 24 or 32 bytes", ErrInvalidConfig)
	}
	if cfg.CookieName == "" {
		cfg.CookieName = defaultCookieName
	}
	if cfg.CookiePath == "" {
		cfg.CookiePath = defaultCookiePath
	}
	if cfg.Lifetime <= 0 {
		cfg.Lifetime = defaultLifetime
	}
	if cfg.CookieSameSite == http.SameSiteDefaultMode {
		cfg.CookieSameSite = http.SameSiteLaxMode
	}
	nowFn := cfg.Now
	if nowFn == nil {
		nowFn = time.Now
	}

	codec := securecookie.New(cfg.HashKey, cfg.BlockKey)
	codec.SetSerializer(securecookie.JSONEncoder{})
	codec.MaxAge(int(cfg.Lifetime.Seconds()))

	return &Manager{cfg: cfg, codec: codec, now: nowFn}, nil
}

// Lifetime is the configured absolute session lifetime.
func (m *Manager) Lifetime() time.Duration { return m.cfg.Lifetime }

// Load retrieves the session from the request or creates a new one.
// An expired session returns ErrExpired together with its last state so
// callers can announce the expiry.
func (m *Manager) Load(r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(m.cfg.CookieName)
	if err != nil {
		return m.New(), nil
	}

	var stored Data
	if err := m.codec.Decode(m.cfg.CookieName, cookie.Value, &stored); err != nil {
		return m.New(), nil
	}

	sess := m.sessionFromData(stored)
	if m.isExpired(sess, m.now()) {
		return sess, ErrExpired
	}
	return sess, nil
}

// Save writes the session back as a cookie. Destroyed sessions clear it.
func (m *Manager) Save(w http.ResponseWriter, sess *Session) error {
	if sess == nil {
		return errors.New("session: nil session")
	}
	if sess.destroyed {
		http.SetCookie(w, m.expiredCookie())
		return nil
	}

	sess.Touch(m.now())
	data := sess.data

	encoded, err := m.codec.Encode(m.cfg.CookieName, data)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	cookie := &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    encoded,
		Path:     m.cfg.CookiePath,
		Domain:   m.cfg.CookieDomain,
		Secure:   m.cfg.CookieSecure,
		HttpOnly: true,
		SameSite: m.cfg.CookieSameSite,
	}
	if !data.ExpiresAt.IsZero() {
		expiry := data.ExpiresAt.UTC()
		cookie.Expires = expiry
		remaining := expiry.Sub(m.now())
		if remaining <= 0 {
			cookie.MaxAge = -1
		} else {
			cookie.MaxAge = int(remaining.Round(time.Second).Seconds())
		}
	}
	http.SetCookie(w, cookie)
	return nil
}

// Destroy clears the session cookie immediately.
func (m *Manager) Destroy(w http.ResponseWriter) {
	http.SetCookie(w, m.expiredCookie())
}

// New returns a pristine session.
func (m *Manager) New() *Session {
	now := m.now().UTC()
	return &Session{
		data: Data{
			ID:         mustGenerateToken(32),
			CreatedAt:  now,
			LastActive: now,
			ExpiresAt:  now.Add(m.cfg.Lifetime),
		},
		dirty: true,
		cfg:   &m.cfg,
	}
}

func (m *Manager) sessionFromData(d Data) *Session {
	if d.ID == "" {
		d.ID = mustGenerateToken(32)
		d.CreatedAt = m.now().UTC()
		d.LastActive = d.CreatedAt
		d.ExpiresAt = d.CreatedAt.Add(m.cfg.Lifetime)
	}
	return &Session{data: d, cfg: &m.cfg}
}

func (m *Manager) isExpired(sess *Session, now time.Time) bool {
	now = now.UTC()
	if !sess.data.ExpiresAt.IsZero() && !now.Before(sess.data.ExpiresAt.UTC()) {
		return true
	}
	if m.cfg.IdleTimeout > 0 {
		last := sess.data.LastActive
		if last.IsZero() {
			last = sess.data.CreatedAt
		}
		if !last.IsZero() && now.Sub(last) > m.cfg.IdleTimeout {
			return true
		}
	}
	return false
}

func (m *Manager) expiredCookie() *http.Cookie {
	return &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    "",
		Path:     m.cfg.CookiePath,
		Domain:   m.cfg.CookieDomain,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   m.cfg.CookieSecure,
		HttpOnly: true,
		SameSite: m.cfg.CookieSameSite,
	}
}

// ID returns the stable session identifier.
func (s *Session) ID() string { return s.data.ID }

// CreatedAt returns the session creation timestamp.
func (s *Session) CreatedAt() time.Time { return s.data.CreatedAt }

// LastActive returns the last access timestamp.
func (s *Session) LastActive() time.Time { return s.data.LastActive }

// ExpiresAt returns the absolute expiry.
func (s *Session) ExpiresAt() time.Time { return s.data.ExpiresAt }

// EnsureCSRFToken returns the CSRF token, generating one on first use.
func (s *Session) EnsureCSRFToken() (string, error) {
	if s.data.CSRFToken != "" {
		return s.data.CSRFToken, nil
	}
	token, err := generateToken(32)
	if err != nil {
		return "", err
	}
	s.data.CSRFToken = token
	s.dirty = true
	return token, nil
}

// CSRFToken returns the stored CSRF token.
func (s *Session) CSRFToken() string { return s.data.CSRFToken }

// Lang is the page language the visitor picked, if any.
func (s *Session) Lang() string { return s.data.Lang }

// SetLang remembers the page language.
func (s *Session) SetLang(lang string) {
	if s.data.Lang == lang {
		return
	}
	s.data.Lang = lang
	s.dirty = true
}

// User returns the signed-in user, if any.
func (s *Session) User() *User { return s.data.User }

// Authenticated reports whether a user is signed in.
func (s *Session) Authenticated() bool { return s.data.User != nil && s.data.User.UID != "" }

// SignIn stores user and restarts the session: new id, new CSRF token and a
// fresh absolute expiry.
func (s *Session) SignIn(user User, now time.Time) {
	now = now.UTC()
	copied := user
	s.data.ID = mustGenerateToken(32)
	s.data.CreatedAt = now
	s.data.LastActive = now
	s.data.ExpiresAt = now.Add(s.cfg.Lifetime)
	s.data.CSRFToken = ""
	s.data.User = &copied
	s.dirty = true
}

// SignOut forgets the user but keeps the session for flashes.
func (s *Session) SignOut() {
	if s.data.User == nil {
		return
	}
	s.data.User = nil
	s.data.CSRFToken = ""
	s.dirty = true
}

// AddFlash queues a notification for the next rendered page.
func (s *Session) AddFlash(f Flash) {
	s.data.Flashes = append(s.data.Flashes, f)
	if len(s.data.Flashes) > maxFlashes {
		s.data.Flashes = s.data.Flashes[len(s.data.Flashes)-maxFlashes:]
	}
	s.dirty = true
}

// Flashes drains the queued notifications.
func (s *Session) Flashes() []Flash {
	if len(s.data.Flashes) == 0 {
		return nil
	}
	out := s.data.Flashes
	s.data.Flashes = nil
	s.dirty = true
	return out
}

// Destroy marks the session for deletion at the end of the request.
func (s *Session) Destroy() {
	s.destroyed = true
	s.dirty = true
}

// Destroyed exposes the destroy marker.
func (s *Session) Destroyed() bool { return s.destroyed }

// Touch updates the last active timestamp.
func (s *Session) Touch(now time.Time) {
	now = now.UTC()
	if now.After(s.data.LastActive) {
		s.data.LastActive = now
		s.dirty = true
	}
}

// Dirty indicates whether the session changed during this request.
func (s *Session) Dirty() bool { return s.dirty }

func mustGenerateToken(length int) string {
	token, err := generateToken(length)
	if err != nil {
		panic(err)
	}
	return token
}

func generateToken(length int) (string, error) {
	if length <= 0 {
		length = 32
	}
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
