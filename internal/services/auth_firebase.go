package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	firebase "firebase.google.com/go/v4"
	firebaseauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"
)

const defaultFirebaseTimeout = 10 * time.Second

// PasswordVerifier checks an email and password against Firebase Auth.
type PasswordVerifier interface {
	VerifyPassword(ctx context.Context, email, password string) (*identitytoolkit.VerifyPasswordResponse, error)
}

// FirebaseUsers is the part of the Admin SDK client the provider uses.
type FirebaseUsers interface {
	CreateUser(ctx context.Context, user *firebaseauth.UserToCreate) (*firebaseauth.UserRecord, error)
	VerifyIDToken(ctx context.Context, idToken string) (*firebaseauth.Token, error)
}

// FirebaseIdentityProvider signs users in through the Identity Toolkit REST
// API and creates accounts with the Admin SDK.
type FirebaseIdentityProvider struct {
	passwords PasswordVerifier
	users     FirebaseUsers
	timeout   time.Duration
}

// NewFirebaseIdentityProvider dials both Firebase clients.
func NewFirebaseIdentityProvider(ctx context.Context, projectID, apiKey string, opts ...option.ClientOption) (*FirebaseIdentityProvider, error) {
	if strings.TrimSpace(projectID) == "" || strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("firebase identity: project id and api key are required")
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("initialise firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialise firebase auth client: %w", err)
	}
	toolkit, err := identitytoolkit.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("initialise identity toolkit: %w", err)
	}
	return NewFirebaseIdentityProviderWithClients(toolkitVerifier{svc: toolkit}, client), nil
}

// NewFirebaseIdentityProviderWithClients wires pre-built clients, mainly for tests.
func NewFirebaseIdentityProviderWithClients(passwords PasswordVerifier, users FirebaseUsers) *FirebaseIdentityProvider {
	return &FirebaseIdentityProvider{passwords: passwords, users: users, timeout: defaultFirebaseTimeout}
}

// SignIn verifies the password and then the returned ID token.
func (p *FirebaseIdentityProvider) SignIn(ctx context.Context, email, password string) (Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.passwords.VerifyPassword(ctx, email, password)
	if err != nil {
		return Identity{}, mapToolkitError(err)
	}
	token, err := p.users.VerifyIDToken(ctx, resp.IdToken)
	if err != nil {
		return Identity{}, fmt.Errorf("verify id token: %w", err)
	}
	return Identity{UserID: token.UID, Email: resp.Email, FullName: resp.DisplayName}, nil
}

// SignUp creates the Firebase user.
func (p *FirebaseIdentityProvider) SignUp(ctx context.Context, input SignUpInput) (Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	params := (&firebaseauth.UserToCreate{}).
		Email(input.Email).
		Password(input.Password).
		DisplayName(input.FullName)
	record, err := p.users.CreateUser(ctx, params)
	if err != nil {
		if firebaseauth.IsEmailAlreadyExists(err) {
			return Identity{}, ErrUserExists
		}
		return Identity{}, err
	}
	return Identity{UserID: record.UID, Email: record.Email, FullName: record.DisplayName}, nil
}

func mapToolkitError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case strings.HasPrefix(apiErr.Message, "INVALID_PASSWORD"),
			strings.HasPrefix(apiErr.Message, "EMAIL_NOT_FOUND"),
			strings.HasPrefix(apiErr.Message, "INVALID_LOGIN_CREDENTIALS"),
			strings.HasPrefix(apiErr.Message, "INVALID_EMAIL"):
			return ErrInvalidCredentials
		}
	}
	return err
}

type toolkitVerifier struct {
	svc *identitytoolkit.Service
}

func (v toolkitVerifier) VerifyPassword(ctx context.Context, email, password string) (*identitytoolkit.VerifyPasswordResponse, error) {
	req := &identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}
	return v.svc.Relyingparty.VerifyPassword(req).Context(ctx).Do()
}
