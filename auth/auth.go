// Package auth verifies that an operation was authorized by a given
// identity.
//
// The engine never decides who the caller is. It asks a Provider whether the
// identity that owns a role (sender, recipient, delegate, admin) authorized
// the current invocation, and the Provider answers from whatever the context
// carries: a plain caller address or a signed bearer token.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/paystream/types"
)

// ErrUnauthorized is returned when identity did not authorize the call.
var ErrUnauthorized = errors.New("paystream: unauthorized")

// Provider checks authorization of identity for the invocation in ctx.
type Provider interface {
	Require(ctx context.Context, identity types.Address) error
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, identity types.Address) error

// Require implements Provider.
func (f ProviderFunc) Require(ctx context.Context, identity types.Address) error {
	return f(ctx, identity)
}

type callerKey struct{}
type bearerKey struct{}

// WithCaller returns a context whose invocation is signed by caller.
func WithCaller(ctx context.Context, caller types.Address) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFrom returns the caller set by WithCaller.
func CallerFrom(ctx context.Context) (types.Address, bool) {
	c, ok := ctx.Value(callerKey{}).(types.Address)
	return c, ok && !c.IsZero()
}

// WithBearer attaches a signed bearer token to ctx.
func WithBearer(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerKey{}, token)
}

// BearerFrom returns the token set by WithBearer.
func BearerFrom(ctx context.Context) (string, bool) {
	t, ok := ctx.Value(bearerKey{}).(string)
	return t, ok && t != ""
}

// Caller authorizes identity when it equals the caller in ctx.
type Caller struct{}

// NewCaller returns the context-based provider.
func NewCaller() Caller { return Caller{} }

// Require implements Provider.
func (Caller) Require(ctx context.Context, identity types.Address) error {
	caller, ok := CallerFrom(ctx)
	if !ok {
		return fmt.Errorf("%w: no caller in context", ErrUnauthorized)
	}
	if caller != identity {
		return fmt.Errorf("%w: %s is not %s", ErrUnauthorized, caller.Short(), identity.Short())
	}
	return nil
}

// RequireAny returns the first identity in order that authorized the call.
// Zero identities are skipped.
func RequireAny(ctx context.Context, p Provider, identities ...types.Address) (types.Address, error) {
	for _, identity := range identities {
		if identity.IsZero() {
			continue
		}
		if err := p.Require(ctx, identity); err == nil {
			return identity, nil
		} else if !errors.Is(err, ErrUnauthorized) {
			return "", err
		}
	}
	return "", ErrUnauthorized
}
