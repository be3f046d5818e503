// Package auth validates the bearer tokens issued by the SkillNexus auth service.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/skillnexus/reputation-service/internal/config"
)

// ErrInvalidToken is returned for any token that fails validation.
var ErrInvalidToken = errors.New("invalid token")

// Claims are the access token claims this service relies on.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Identity is the authenticated caller.
type Identity struct {
	UserID uint
	Role   string
}

// JWTAuthenticator signs and validates HS256 access tokens.
type JWTAuthenticator struct {
	secret []byte
	iss    string
	aud    string
}

// NewJWTAuthenticator creates an authenticator. Empty issuer or audience
// disables the corresponding check.
func NewJWTAuthenticator(secret, iss, aud string) *JWTAuthenticator {
	return &JWTAuthenticator{secret: []byte(secret), iss: iss, aud: aud}
}

// NewFromConfig creates an authenticator from configuration.
func NewFromConfig(cfg *config.AuthConfig) *JWTAuthenticator {
	return NewJWTAuthenticator(cfg.JWTSecret, cfg.Issuer, cfg.Audience)
}

// GenerateToken issues an access token. The auth service owns token issuance;
// this exists for tests and local tooling.
func (a *JWTAuthenticator) GenerateToken(userID uint, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if a.iss != "" {
		claims.Issuer = a.iss
	}
	if a.aud != "" {
		claims.Audience = jwt.ClaimStrings{a.aud}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateAccessToken parses the token and returns the caller identity.
func (a *JWTAuthenticator) ValidateAccessToken(token string) (*Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
	}
	if a.iss != "" {
		opts = append(opts, jwt.WithIssuer(a.iss))
	}
	if a.aud != "" {
		opts = append(opts, jwt.WithAudience(a.aud))
	}

	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || userID == 0 {
		return nil, fmt.Errorf("%w: subject %q is not a user id", ErrInvalidToken, claims.Subject)
	}
	return &Identity{UserID: uint(userID), Role: claims.Role}, nil
}
