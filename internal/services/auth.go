package services

import (
	"context"
	"errors"
	"strings"

	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/editor"
)

// Auth notices.
const (
	AuthErrorTitle        = "خطأ"
	AuthMissingFields     = "يرجى ملء جميع الحقول المطلوبة"
	AuthPasswordMismatch  = "كلمات المرور غير متطابقة"
	AuthPasswordTooShort  = "كلمة المرور يجب أن تكون على الأقل 6 أحرف"
	AuthMissingFullName   = "يرجى إدخال الاسم الكامل"
	AuthSignInFailedTitle = "خطأ في تسجيل الدخول"
	AuthSignUpFailedTitle = "خطأ في إنشاء الحساب"
	AuthBadCredentials    = "البريد الإلكتروني أو كلمة المرور غير صحيحة"
	AuthAlreadyRegistered = "المستخدم مسجل مسبقاً. يرجى تسجيل الدخول"
	AuthUnexpected        = "حدث خطأ غير متوقع"
	AuthSignedInTitle     = "تم تسجيل الدخول بنجاح"
	AuthSignedInBody      = "مرحباً بك في لوحة التحكم"
	AuthSignedUpTitle     = "تم إنشاء الحساب بنجاح"
	AuthSignedUpBody      = "يرجى تأكيد بريدك الإلكتروني لإكمال التسجيل"
	AuthSignedOutTitle    = "تم تسجيل الخروج بنجاح"
	AuthSignedOutBody     = "نراك قريباً!"
)

// MinPasswordLength is the shortest password sign-up accepts.
const MinPasswordLength = 6

var (
	// ErrInvalidCredentials is returned by providers for a wrong email or password.
	ErrInvalidCredentials = errors.New("Invalid login credentials")
	// ErrUserExists is returned by providers when signing up a known email.
	ErrUserExists = errors.New("User already registered")
)

// Identity is the signed-in user.
type Identity struct {
	UserID   string
	Email    string
	FullName string
}

// SignUpInput is the data an identity provider needs to create an account.
type SignUpInput struct {
	Email    string
	Password string
	FullName string
}

// IdentityProvider checks credentials and creates accounts.
type IdentityProvider interface {
	SignIn(ctx context.Context, email, password string) (Identity, error)
	SignUp(ctx context.Context, input SignUpInput) (Identity, error)
}

// AuthError is a failed sign-in or sign-up, with the notice to show.
type AuthError struct {
	Title string
	Body  string
	Err   error
}

func (e *AuthError) Error() string { return e.Body }

func (e *AuthError) Unwrap() error { return e.Err }

// Notice returns the toast for the failure.
func (e *AuthError) Notice() editor.Notice {
	return editor.Notice{Level: editor.LevelError, Title: e.Title, Body: e.Body}
}

// SignUpForm is the raw sign-up form.
type SignUpForm struct {
	Email           string
	Password        string
	ConfirmPassword string
	FullName        string
}

// AuthService validates the auth forms and maps provider errors to the
// localized messages.
type AuthService struct {
	provider IdentityProvider
	logger   Logger
}

// NewAuthService constructs the auth service.
func NewAuthService(provider IdentityProvider, logger Logger) (*AuthService, error) {
	if provider == nil {
		return nil, errors.New("auth service: identity provider is required")
	}
	return &AuthService{provider: provider, logger: orNop(logger)}, nil
}

// SignIn checks credentials. Validation happens before the provider is called.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (Identity, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return Identity{}, &AuthError{Title: AuthErrorTitle, Body: AuthMissingFields}
	}
	id, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		s.logger(ctx, "auth.signin.failed", map[string]any{"error": err.Error()})
		return Identity{}, providerError(AuthSignInFailedTitle, err)
	}
	s.logger(ctx, "auth.signin", map[string]any{"user_id": id.UserID})
	return id, nil
}

// SignUp creates an account. The visitor still signs in afterwards.
func (s *AuthService) SignUp(ctx context.Context, form SignUpForm) (Identity, error) {
	form.Email = strings.TrimSpace(form.Email)
	switch {
	case form.Email == "" || form.Password == "":
		return Identity{}, &AuthError{Title: AuthErrorTitle, Body: AuthMissingFields}
	case form.Password != form.ConfirmPassword:
		return Identity{}, &AuthError{Title: AuthErrorTitle, Body: AuthPasswordMismatch}
	case len([]rune(form.Password)) < MinPasswordLength:
		return Identity{}, &AuthError{Title: AuthErrorTitle, Body: AuthPasswordTooShort}
	case strings.TrimSpace(form.FullName) == "":
		return Identity{}, &AuthError{Title: AuthErrorTitle, Body: AuthMissingFullName}
	}
	id, err := s.provider.SignUp(ctx, SignUpInput{
		Email:    form.Email,
		Password: form.Password,
		FullName: strings.TrimSpace(form.FullName),
	})
	if err != nil {
		s.logger(ctx, "auth.signup.failed", map[string]any{"error": err.Error()})
		return Identity{}, providerError(AuthSignUpFailedTitle, err)
	}
	s.logger(ctx, "auth.signup", map[string]any{"user_id": id.UserID})
	return id, nil
}

func providerError(title string, err error) *AuthError {
	body := err.Error()
	switch {
	case errors.Is(err, ErrInvalidCredentials) || strings.Contains(body, ErrInvalidCredentials.Error()):
		body = AuthBadCredentials
	case errors.Is(err, ErrUserExists) || strings.Contains(body, ErrUserExists.Error()):
		body = AuthAlreadyRegistered
	case strings.TrimSpace(body) == "":
		body = AuthUnexpected
	}
	return &AuthError{Title: title, Body: body, Err: err}
}
