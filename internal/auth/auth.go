// Package auth provides request authentication for the itemshelf API.
// An Authenticator inspects an incoming request and either yields the
// caller identity or one of the sentinel errors below; the subject it
// reports is what the item handlers stamp onto created items.
package auth

import (
	"context"
	"errors"
	"net/http"
)

// AuthMethod identifies which credential scheme authenticated a request.
type AuthMethod string

// Supported authentication methods. These match the auth_mode values
// accepted by the configuration.
const (
	AuthMethodNone   AuthMethod = "none"
	AuthMethodMTLS   AuthMethod = "mtls"
	AuthMethodBasic  AuthMethod = "basic"
	AuthMethodAPIKey AuthMethod = "apikey"
	AuthMethodMulti  AuthMethod = "multi"
)

// AuthInfo is the identity extracted from a successfully authenticated
// request. Claims carries method-specific extras (certificate fields
// for mTLS); most code only needs Subject.
type AuthInfo struct {
	Method  AuthMethod
	Subject string
	Claims  map[string]any
}

// Authenticator validates a request and returns the caller identity.
type Authenticator interface {
	Authenticate(r *http.Request) (*AuthInfo, error)
	Method() AuthMethod
}

// Sentinel errors for authentication failures. ErrUnauthenticated
// means no credentials were presented at all; the others mean
// credentials were presented and rejected.
var (
	ErrUnauthenticated    = errors.New("unauthenticated: no credentials provided")
	ErrInvalidCert        = errors.New("invalid client certificate")
	ErrInvalidAPIKey      = errors.New("invalid API key")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type contextKey string

const authInfoKey contextKey = "auth_info"

// FromContext retrieves the AuthInfo stored by the auth middleware.
func FromContext(ctx context.Context) (*AuthInfo, bool) {
	info, ok := ctx.Value(authInfoKey).(*AuthInfo)
	return info, ok
}

// WithAuthInfo stores AuthInfo in the context.
func WithAuthInfo(ctx context.Context, info *AuthInfo) context.Context {
	return context.WithValue(ctx, authInfoKey, info)
}
