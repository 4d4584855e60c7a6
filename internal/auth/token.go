package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	SessionTTL       = 7 * 24 * time.Hour
	DefaultStreamTTL = 600 * time.Second
)

// ErrInvalidToken covers every verification failure: bad signature, expiry,
// malformed input, and a token of the wrong kind.
var ErrInvalidToken = errors.New("invalid token")

// TokenService signs and verifies HS256 tokens with a single secret fixed at
// construction.
type TokenService struct {
	secret  []byte
	nowFunc func() time.Time
}

func NewTokenService(secret string) (*TokenService, error) {
	if secret == "" {
		return nil, fmt.Errorf("token secret is required")
	}
	return &TokenService{secret: []byte(secret), nowFunc: time.Now}, nil
}

func (s *TokenService) IssueSession(userID, email string) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(SessionTTL)
	claims := SessionClaims{
		Kind:  KindSession,
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token, err := s.sign(claims)
	return token, exp, err
}

// IssueStream signs a playback token for mediaID. A ttl <= 0 means
// DefaultStreamTTL; larger values are not capped, up to the largest
// time.Duration (about 292 years).
func (s *TokenService) IssueStream(mediaID string, ttl time.Duration) (string, time.Time, error) {
	if ttl <= 0 {
		ttl = DefaultStreamTTL
	}
	now := s.now()
	exp := now.Add(ttl)
	claims := StreamClaims{
		Kind:    KindStream,
		MediaID: mediaID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token, err := s.sign(claims)
	return token, exp, err
}

func (s *TokenService) VerifySession(token string) (SessionClaims, error) {
	var claims SessionClaims
	if err := s.parse(token, &claims); err != nil {
		return SessionClaims{}, err
	}
	if claims.Kind != KindSession || claims.Subject == "" {
		return SessionClaims{}, ErrInvalidToken
	}
	return claims, nil
}

func (s *TokenService) VerifyStream(token string) (StreamClaims, error) {
	var claims StreamClaims
	if err := s.parse(token, &claims); err != nil {
		return StreamClaims{}, err
	}
	if claims.Kind != KindStream || claims.MediaID == "" {
		return StreamClaims{}, ErrInvalidToken
	}
	return claims, nil
}

func (s *TokenService) sign(claims jwt.Claims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *TokenService) parse(token string, claims jwt.Claims) error {
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.nowFunc),
	)
	if err != nil {
		return ErrInvalidToken
	}
	return nil
}

// now drops sub-second precision so exp is exactly iat plus the lifetime.
func (s *TokenService) now() time.Time {
	return s.nowFunc().Truncate(time.Second)
}
