package utils // package utils provides helper functions for token creation and hashing

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating and parsing signed tokens
)

// AccessToken represents a signed JWT access token along with its expiry.
// The Token field contains the JWT string. Exp stores the expiration
// timestamp as a time.Time. Tokens are self-contained: nothing is persisted
// server-side and validity derives entirely from the signature and expiry.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// TokenClaims carries the identity encoded in a validated access token.
type TokenClaims struct {
	UserID uint64
	Email  string
}

// ErrInvalidToken covers every token failure mode: bad signature, malformed
// structure, unexpected signing method, missing claims or passed expiry.
// Callers get a single failure kind so responses cannot leak which check
// rejected the token.
var ErrInvalidToken = errors.New("invalid token")

// NewAccessToken builds and signs an HS256 JWT for a user. It takes the
// signing secret, the user ID, the user's email and a TTL in minutes. The
// JWT includes the subject (sub), email, expiration (exp) and issued at
// (iat) claims.
func NewAccessToken(secret string, userID uint64, email string, ttlMin int) (AccessToken, error) {
	exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"exp":   exp.Unix(),
		"iat":   time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies the signature and expiry of a raw token string
// and returns the embedded identity. The signing method is pinned to HMAC;
// tokens signed with any other algorithm are rejected.
func ParseAccessToken(secret, raw string) (TokenClaims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return TokenClaims{}, ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return TokenClaims{}, ErrInvalidToken
	}
	// Numeric JSON values decode as float64.
	sub, ok := claims["sub"].(float64)
	if !ok || sub <= 0 {
		return TokenClaims{}, ErrInvalidToken
	}
	email, _ := claims["email"].(string)
	return TokenClaims{UserID: uint64(sub), Email: email}, nil
}
