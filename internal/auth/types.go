package auth

import "github.com/golang-jwt/jwt/v5"

type AdminUser struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	HashedPassword string `json:"-"`
}

type TokenKind string

const (
	KindSession TokenKind = "session"
	KindStream  TokenKind = "stream"
)

// SessionClaims identify an admin user. Subject is the user id.
type SessionClaims struct {
	Kind  TokenKind `json:"typ"`
	Email string    `json:"email"`
	jwt.RegisteredClaims
}

// StreamClaims grant playback of one media asset and carry no identity.
type StreamClaims struct {
	Kind    TokenKind `json:"typ"`
	MediaID string    `json:"media_id"`
	jwt.RegisteredClaims
}
