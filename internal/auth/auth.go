// Package auth verifies the identity handle issued by the site's login service.
//
// inkpad never establishes sessions itself. The login service signs an HS256
// token carrying the identity id and its cached display projection; every
// dashboard request presents it as a cookie or a bearer header.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CookieName carries the identity token for browser clients.
const CookieName = "inkpad_session"

// ErrInvalidToken is returned for any token that fails verification.
var ErrInvalidToken = errors.New("invalid identity token")

// Actor is the authenticated identity acting on a request.
type Actor struct {
	IdentityID string
	Handle     string
	Picture    string
}

type claims struct {
	jwt.RegisteredClaims
	Handle  string `json:"handle"`
	Picture string `json:"picture"`
}

// Verifier checks identity tokens against a shared secret.
type Verifier struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewVerifier creates a verifier. issuer may be empty to accept any issuer.
func NewVerifier(secret []byte, issuer string) *Verifier {
	return &Verifier{secret: secret, issuer: issuer, now: time.Now}
}

// Verify parses token and returns the actor it identifies.
func (v *Verifier) Verify(token string) (Actor, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Actor{}, ErrInvalidToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	var parsed claims
	if _, err := jwt.ParseWithClaims(token, &parsed, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...); err != nil {
		return Actor{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if strings.TrimSpace(parsed.Subject) == "" {
		return Actor{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return Actor{
		IdentityID: parsed.Subject,
		Handle:     parsed.Handle,
		Picture:    parsed.Picture,
	}, nil
}

// Issue signs a token for actor valid for ttl.
// The login service owns issuance in production; inkpad uses it for dev and tests.
func (v *Verifier) Issue(actor Actor, ttl time.Duration) (string, error) {
	now := v.now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.IdentityID,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Handle:  actor.Handle,
		Picture: actor.Picture,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign identity token: %w", err)
	}
	return signed, nil
}

type actorKey struct{}

// WithActor stores actor in ctx.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the actor stored in ctx.
func ActorFrom(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(Actor)
	return actor, ok
}
