// Package auth verifies credentials against bcrypt hashes from configuration
// and carries the authenticated actor through request contexts.
package auth

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/popeskul/insdr-dispatch/internal/config"
)

//go:generate mockgen -source=auth.go -destination=mocks/mock_auth.go -package=mocks

// Authenticator checks a secret presented for an identity.
type Authenticator interface {
	Verify(ctx context.Context, identity, secret string) bool
	IsAdmin(identity string) bool
}

type bcryptAuthenticator struct {
	hashes map[string]string
	admin  string
	// hash compared when the identity is unknown
	dummy []byte
}

// NewAuthenticator builds an Authenticator over cfg.Users (name to bcrypt hash).
func NewAuthenticator(cfg config.AuthConfig) Authenticator {
	hashes := make(map[string]string, len(cfg.Users))
	for name, hash := range cfg.Users {
		hashes[name] = hash
	}

	dummy, _ := bcrypt.GenerateFromPassword([]byte("insdr-dispatch"), bcrypt.DefaultCost)

	return &bcryptAuthenticator{
		hashes: hashes,
		admin:  cfg.AdminUser,
		dummy:  dummy,
	}
}

func (a *bcryptAuthenticator) Verify(_ context.Context, identity, secret string) bool {
	hash, ok := a.hashes[identity]
	if !ok || identity == "" {
		_ = bcrypt.CompareHashAndPassword(a.dummy, []byte(secret))
		return false
	}

	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}

func (a *bcryptAuthenticator) IsAdmin(identity string) bool {
	return identity != "" && identity == a.admin
}

// HashPassword returns the bcrypt hash stored under auth.users.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password must not be empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(hash), nil
}

type actorKey struct{}

// WithActor returns a copy of ctx carrying the authenticated actor.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the actor stored by WithActor.
func ActorFromContext(ctx context.Context) (string, bool) {
	actor, ok := ctx.Value(actorKey{}).(string)
	return actor, ok && actor != ""
}
