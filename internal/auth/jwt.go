package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "formqueue"

type Claims struct {
	jwt.RegisteredClaims
}

// GenerateToken issues an HS256 token for subject valid for ttl.
func GenerateToken(secret, subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ValidateToken(secret, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrSignatureInvalid
	}
	return claims, nil
}

// JWTToken accepts per-caller tokens signed with a shared HMAC key.
type JWTToken struct {
	secret string
}

func NewJWTToken(secret string) *JWTToken {
	return &JWTToken{secret: secret}
}

func (a *JWTToken) Authenticate(header string) bool {
	token, ok := ParseBearer(header)
	if !ok || a.secret == "" {
		return false
	}
	_, err := ValidateToken(a.secret, token)
	return err == nil
}
