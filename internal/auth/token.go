package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is the single failure returned for malformed, forged or expired access tokens.
var ErrInvalidToken = errors.New("invalid token")

const defaultAccessTTL = 30 * time.Minute

// TokenManager mints and verifies HS256 access tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = defaultAccessTTL
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Claims describes JWT payload. The subject is the user's email.
type Claims struct {
	jwt.RegisteredClaims
}

// TTL returns the default access token lifetime.
func (tm *TokenManager) TTL() time.Duration {
	return tm.ttl
}

// Issue mints a token for subject using the default lifetime.
func (tm *TokenManager) Issue(subject string) (string, time.Time, error) {
	return tm.Mint(subject, tm.ttl)
}

// Mint builds and signs a token for subject that expires after ttl.
func (tm *TokenManager) Mint(subject string, ttl time.Duration) (string, time.Time, error) {
	now := tm.now()
	expiresAt := now.Add(ttl)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// Verify checks signature and expiry and returns the subject.
func (tm *TokenManager) Verify(tokenStr string) (string, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return tm.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil {
		return "", ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" || claims.ExpiresAt == nil {
		return "", ErrInvalidToken
	}
	if !claims.ExpiresAt.Time.After(tm.now()) {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
