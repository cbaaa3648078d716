package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/featherfn/metagate/internal/entity"
)

// JWT validation errors.
var (
	// ErrInvalidToken indicates a token is malformed or fails validation.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken indicates a token has expired.
	ErrExpiredToken = errors.New("token expired")
)

// IdentityClaims defines JWT claims for API principals. The authkey is
// embedded so bearer-authenticated requests can still proxy outbound
// basic-auth invocations.
type IdentityClaims struct {
	Subject   string `json:"subject"`
	Namespace string `json:"namespace"`
	UUID      string `json:"uuid"`
	Key       string `json:"key"`
	jwt.RegisteredClaims
}

// GenerateIdentityToken signs a principal JWT with the configured expiry.
func GenerateIdentityToken(secret string, ident entity.Identity, expiry time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := IdentityClaims{
		Subject:   ident.Subject,
		Namespace: ident.Namespace,
		UUID:      ident.AuthKey.UUID,
		Key:       ident.AuthKey.Key,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseIdentityToken validates a principal JWT and returns the identity
// it carries.
func ParseIdentityToken(secret string, tokenString string) (entity.Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &IdentityClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return entity.Identity{}, ErrExpiredToken
		}
		return entity.Identity{}, ErrInvalidToken
	}
	claims, ok := token.Claims.(*IdentityClaims)
	if !ok || !token.Valid {
		return entity.Identity{}, ErrInvalidToken
	}
	return entity.Identity{
		Subject:   claims.Subject,
		Namespace: claims.Namespace,
		AuthKey:   entity.AuthKey{UUID: claims.UUID, Key: claims.Key},
	}, nil
}
