package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidInput       = errors.New("invalid input")
	ErrMissingToken       = errors.New("missing token")
	ErrUnknownSubject     = errors.New("unknown subject")
)

type Service struct {
	users     UserStore
	tokens    *TokenService
	cost      int
	dummyHash []byte
	newID     func() string
}

type ServiceConfig struct {
	BcryptCost int
}

func NewService(users UserStore, tokens *TokenService, cfg ServiceConfig) (*Service, error) {
	if users == nil {
		return nil, fmt.Errorf("user store is required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("token service is required")
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}

	// Compared against when the email is unknown so both login failures cost
	// one bcrypt round.
	dummy, err := bcrypt.GenerateFromPassword([]byte("media-api"), cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("prepare password hasher: %w", err)
	}

	return &Service{
		users:     users,
		tokens:    tokens,
		cost:      cfg.BcryptCost,
		dummyHash: dummy,
		newID:     func() string { return primitive.NewObjectID().Hex() },
	}, nil
}

func (s *Service) Signup(ctx context.Context, email, password string) (AdminUser, error) {
	if email == "" || password == "" {
		return AdminUser{}, ErrInvalidInput
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return AdminUser{}, ErrEmailTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return AdminUser{}, fmt.Errorf("lookup admin user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return AdminUser{}, ErrInvalidInput
		}
		return AdminUser{}, fmt.Errorf("hash password: %w", err)
	}

	user := AdminUser{ID: s.newID(), Email: email, HashedPassword: string(hash)}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return AdminUser{}, ErrEmailTaken
		}
		return AdminUser{}, fmt.Errorf("create admin user: %w", err)
	}
	return user, nil
}

// Login returns a signed session token. Unknown email and wrong password both
// yield ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", ErrInvalidInput
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			return "", fmt.Errorf("lookup admin user: %w", err)
		}
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.HashedPassword), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token, _, err := s.tokens.IssueSession(u.ID, u.Email)
	if err != nil {
		return "", err
	}
	return token, nil
}

// Authenticate resolves an Authorization header value to the admin user it
// names. It never caches; every call verifies the token and reads the store.
func (s *Service) Authenticate(ctx context.Context, authorization string) (AdminUser, error) {
	token := BearerToken(authorization)
	if token == "" {
		return AdminUser{}, ErrMissingToken
	}

	claims, err := s.tokens.VerifySession(token)
	if err != nil {
		return AdminUser{}, ErrInvalidToken
	}

	u, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return AdminUser{}, ErrUnknownSubject
		}
		return AdminUser{}, fmt.Errorf("lookup admin user: %w", err)
	}
	return u, nil
}

func BearerToken(authorization string) string {
	parts := strings.SplitN(strings.TrimSpace(authorization), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
