// Package session owns the lifecycle of the backend bearer token: stored
// when a staff member logs in, resolved on every request, deleted at
// logout. This replaces the old ambient client-storage token with an
// explicit, session-scoped value.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// ErrNoSession reports an unknown or expired console session id.
var ErrNoSession = errors.New("session not found")

// Store maps console session ids to backend bearer tokens.
type Store interface {
	// Create stores the token under a fresh session id and returns the id.
	Create(ctx context.Context, token string) (string, error)
	// Lookup returns the token for a session id, or ErrNoSession.
	Lookup(ctx context.Context, sessionID string) (string, error)
	// Delete ends a session.
	Delete(ctx context.Context, sessionID string) error
}

type ctxKey struct{}
type tokenCtxKey struct{}

// WithID attaches the caller's console session id to the context.
func WithID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, sessionID)
}

// IDFromContext extracts the console session id, if any.
func IDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	return id, ok && id != ""
}

// WithToken attaches the already-resolved backend token to the context. The
// session middleware sets it once per request so gateway calls need no
// second store lookup.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenCtxKey{}, token)
}

// TokenFromContext extracts the resolved backend token, if any.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenCtxKey{}).(string)
	return token, ok && token != ""
}

// ContextTokenSource resolves the backend token for the session carried in
// the request context. It satisfies the gateways' TokenSource; requests
// without a session simply go out unauthenticated.
type ContextTokenSource struct {
	store Store
}

func NewContextTokenSource(store Store) *ContextTokenSource {
	return &ContextTokenSource{store: store}
}

func (s *ContextTokenSource) Token(ctx context.Context) (string, bool) {
	if token, ok := TokenFromContext(ctx); ok {
		return token, true
	}

	// Contexts that carry only a session id fall back to a store lookup.
	id, ok := IDFromContext(ctx)
	if !ok {
		return "", false
	}
	token, err := s.store.Lookup(ctx, id)
	if err != nil {
		return "", false
	}
	return token, true
}

// TokenTTL derives a session lifetime from the token itself. Backend tokens
// are usually JWTs; when an exp claim is present and in the future the
// session expires with the token, otherwise the configured fallback is used.
// The token is decoded without verification: the console never validates
// backend tokens, it only carries them.
func TokenTTL(token string, fallback time.Duration, now time.Time) time.Duration {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return fallback
	}
	if claims.ExpiresAt == nil {
		return fallback
	}
	ttl := claims.ExpiresAt.Time.Sub(now)
	if ttl <= 0 {
		return fallback
	}
	return ttl
}
