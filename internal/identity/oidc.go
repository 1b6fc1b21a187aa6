package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/safeguardai/console/internal/config"
)

// OIDCProvider verifies Google-style OIDC ID tokens against the
// provider's published JWKS.
type OIDCProvider struct {
	cache    *jwk.Cache
	jwksURL  string
	issuer   string
	audience string
}

func NewOIDCProvider(ctx context.Context, cfg config.IdentityConfig) (*OIDCProvider, error) {
	cache := jwk.NewCache(ctx)
	if err := cache.Register(cfg.JWKSURL, jwk.WithMinRefreshInterval(15*time.Minute)); err != nil {
		return nil, fmt.Errorf("registering JWKS endpoint: %w", err)
	}

	return &OIDCProvider{
		cache:    cache,
		jwksURL:  cfg.JWKSURL,
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
	}, nil
}

func (p *OIDCProvider) Verify(ctx context.Context, rawToken string) (*Identity, error) {
	keySet, err := p.cache.Get(ctx, p.jwksURL)
	if err != nil {
		return nil, fmt.Errorf("fetching provider key set: %w", err)
	}

	opts := []jwt.ParseOption{
		jwt.WithKeySet(keySet),
		jwt.WithIssuer(p.issuer),
		jwt.WithValidate(true),
	}
	if p.audience != "" {
		opts = append(opts, jwt.WithAudience(p.audience))
	}

	token, err := jwt.Parse([]byte(rawToken), opts...)
	if err != nil {
		return nil, NewError("Invalid or expired sign-in token.")
	}

	ident := &Identity{UID: token.Subject()}
	if email, ok := token.Get("email"); ok {
		ident.Email, _ = email.(string)
	}
	if name, ok := token.Get("name"); ok {
		ident.Name, _ = name.(string)
	}

	if ident.UID == "" || ident.Email == "" {
		return nil, NewError("Sign-in token is missing required identity claims.")
	}

	return ident, nil
}
