package auth

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/xraph/paystream/types"
)

// JWTConfig configures token verification.
type JWTConfig struct {
	Secret   []byte
	Issuer   string
	Audience string
}

// JWT authorizes identity when the bearer token in ctx is a valid HS256
// token whose subject is identity.
type JWT struct {
	secret []byte
	opts   []jwt.ParserOption
}

// NewJWT creates a JWT provider.
func NewJWT(cfg JWTConfig) (*JWT, error) {
	if len(cfg.Secret) == 0 {
		return nil, fmt.Errorf("auth: jwt secret is empty")
	}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	return &JWT{secret: cfg.Secret, opts: opts}, nil
}

// Require implements Provider.
func (p *JWT) Require(ctx context.Context, identity types.Address) error {
	raw, ok := BearerFrom(ctx)
	if !ok {
		return fmt.Errorf("%w: no bearer token", ErrUnauthorized)
	}

	token, err := jwt.Parse(raw, func(*jwt.Token) (any, error) {
		return p.secret, nil
	}, p.opts...)
	if err != nil || !token.Valid {
		return fmt.Errorf("%w: invalid token", ErrUnauthorized)
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return fmt.Errorf("%w: token has no subject", ErrUnauthorized)
	}
	if types.Address(sub) != identity {
		return fmt.Errorf("%w: token subject is not %s", ErrUnauthorized, identity.Short())
	}
	return nil
}

// Sign issues an HS256 token for subject. It is used by tooling and tests
// that need to act as a stream party.
func Sign(secret []byte, subject types.Address, claims jwt.RegisteredClaims) (string, error) {
	claims.Subject = string(subject)
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
