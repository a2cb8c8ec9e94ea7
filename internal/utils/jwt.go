package utils // package utils provides helper functions for token creation and hashing

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// AccessToken represents a signed JWT access token along with its expiry.
// The Token field contains the JWT string. Exp mirrors the expiry of the
// session the token was issued for; a token never outlives its session.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// SessionClaims are the claims carried by an access token. The session
// id (sid) binds the token to one persisted session so that a logout or
// a newer login invalidates older tokens.
type SessionClaims struct {
	SessionID string `json:"sid"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// ErrInvalidToken is returned for tokens that fail parsing, signature or
// expiry checks.
var ErrInvalidToken = errors.New("invalid token")

// NewAccessToken builds and signs an HS256 JWT for a session. The subject
// is the user id; iat is the session creation time and exp its expiry.
func NewAccessToken(secret, sessionID, userID, username, role string, issuedAt, exp time.Time) (AccessToken, error) {
	claims := SessionClaims{
		SessionID: sessionID,
		Username:  username,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(issuedAt.UTC()),
			ExpiresAt: jwt.NewNumericDate(exp.UTC()),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp.UTC()}, nil
}

// ParseAccessToken verifies raw with secret and returns its claims. Only
// HMAC signing methods are accepted.
func ParseAccessToken(secret, raw string) (*SessionClaims, error) {
	var claims SessionClaims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	if claims.SessionID == "" || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}
