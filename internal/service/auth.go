package service

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/agendei/agendei/internal/config"
	"github.com/agendei/agendei/internal/domain/principal"
)

// ErrUnauthenticated is returned for a missing, malformed or unverifiable token.
var ErrUnauthenticated = errors.New("unauthenticated")

// Claims are the JWT claims carried by an access token. Tokens are issued
// by the identity provider; this service only verifies them.
type Claims struct {
	jwt.RegisteredClaims
	TenantID string `json:"tid"`
	Role     string `json:"role"`
}

// PrincipalResolver turns a bearer token into a verified principal.
type PrincipalResolver struct {
	secret func() []byte
	parser *jwt.Parser
}

// NewPrincipalResolver creates a resolver for HS256 tokens signed with
// cfg.JWTSecret.
func NewPrincipalResolver(cfg config.Auth) *PrincipalResolver {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(cfg.Leeway),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	static := []byte(cfg.JWTSecret)
	return &PrincipalResolver{
		secret: func() []byte { return static },
		parser: jwt.NewParser(opts...),
	}
}

// WithSecretSource makes the resolver read the signing secret from fn on
// every verification, so a rotated secret takes effect without a restart.
func (r *PrincipalResolver) WithSecretSource(fn func() []byte) *PrincipalResolver {
	r.secret = fn
	return r
}

// Resolve verifies token and returns its principal.
func (r *PrincipalResolver) Resolve(token string) (principal.Principal, error) {
	secret := r.secret()
	if len(secret) == 0 {
		return principal.Principal{}, fmt.Errorf("%w: no signing secret configured", ErrUnauthenticated)
	}
	var claims Claims
	if _, err := r.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}); err != nil {
		return principal.Principal{}, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}

	p := principal.Principal{
		TenantID: claims.TenantID,
		Role:     principal.Role(claims.Role),
		Subject:  claims.Subject,
	}
	if err := p.Validate(); err != nil {
		return principal.Principal{}, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	return p, nil
}
