package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Audience is the audience claim the identity provider sets on user access tokens.
const Audience = "authenticated"

// Claims are the claims read from a locally verified access token.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Verifier resolves a bearer token to an identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// LocalVerifier checks HS256 signatures against a shared signing secret.
type LocalVerifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewLocalVerifier creates a verifier for the given signing secret
func NewLocalVerifier(secret string) *LocalVerifier {
	return &LocalVerifier{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithAudience(Audience),
			jwt.WithExpirationRequired(),
		),
	}
}

// Verify validates the token signature, algorithm, audience and expiry.
func (v *LocalVerifier) Verify(_ context.Context, tokenString string) (Identity, error) {
	claims := &Claims{}
	token, err := v.parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, newError(KindTokenExpired, ErrTokenExpired.Reason, err)
		}
		return Identity{}, newError(KindInvalidToken, ErrInvalidToken.Reason, err)
	}
	if !token.Valid {
		return Identity{}, ErrInvalidToken
	}

	if claims.Subject == "" {
		return Identity{}, newError(KindInvalidToken, reasonMissingSubject, nil)
	}

	return Identity{
		Subject: claims.Subject,
		Email:   claims.Email,
	}, nil
}
