package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/domain"
	"github.com/Mohamed-Anwar33/arabi-web-canvas-main/internal/repositories"
)

// LocalIdentityProvider keeps accounts in the site's own backend with
// bcrypt password hashes.
type LocalIdentityProvider struct {
	users repositories.UserRepository
	cost  int
	now   func() time.Time
}

// NewLocalIdentityProvider constructs the provider. A cost of zero uses bcrypt.DefaultCost.
func NewLocalIdentityProvider(users repositories.UserRepository, cost int, clock func() time.Time) (*LocalIdentityProvider, error) {
	if users == nil {
		return nil, ErrRepositoryMissing
	}
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &LocalIdentityProvider{users: users, cost: cost, now: utcClock(clock)}, nil
}

// SignIn compares the password with the stored hash. Unknown emails and
// wrong passwords fail the same way.
func (p *LocalIdentityProvider) SignIn(ctx context.Context, email, password string) (Identity, error) {
	user, err := p.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if repositories.IsNotFound(err) {
			return Identity{}, ErrInvalidCredentials
		}
		return Identity{}, err
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return Identity{}, ErrInvalidCredentials
	}
	return Identity{UserID: user.ID, Email: user.Email, FullName: user.FullName}, nil
}

// SignUp hashes the password and stores a new account.
func (p *LocalIdentityProvider) SignUp(ctx context.Context, input SignUpInput) (Identity, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), p.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return Identity{}, errors.New("password is too long")
		}
		return Identity{}, err
	}
	user, err := p.users.Insert(ctx, domain.User{
		Email:        normalizeEmail(input.Email),
		FullName:     input.FullName,
		PasswordHash: hash,
		CreatedAt:    p.now(),
	})
	if err != nil {
		if repositories.IsConflict(err) {
			return Identity{}, ErrUserExists
		}
		return Identity{}, err
	}
	return Identity{UserID: user.ID, Email: user.Email, FullName: user.FullName}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
