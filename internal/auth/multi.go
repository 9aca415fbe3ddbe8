package auth

import (
	"errors"
	"net/http"
)

// MultiAuthenticator chains authenticators. A request is tried against
// each in order until one accepts it. ErrUnauthenticated means "no
// credentials for this method" and moves on to the next; any other
// error means credentials were presented and rejected, which fails the
// request outright.
type MultiAuthenticator struct {
	chain []Authenticator
}

// NewMultiAuthenticator creates an authenticator that tries each of
// the given authenticators in order.
func NewMultiAuthenticator(authenticators ...Authenticator) *MultiAuthenticator {
	return &MultiAuthenticator{chain: authenticators}
}

// Authenticate returns the first successful result from the chain.
// Presented-but-invalid credentials short-circuit with that method's
// error; a fully exhausted chain returns ErrUnauthenticated.
func (a *MultiAuthenticator) Authenticate(r *http.Request) (*AuthInfo, error) {
	for _, authenticator := range a.chain {
		info, err := authenticator.Authenticate(r)
		if err == nil {
			return info, nil
		}
		if !errors.Is(err, ErrUnauthenticated) {
			return nil, err
		}
	}

	return nil, ErrUnauthenticated
}

// Method returns the authentication method type.
func (a *MultiAuthenticator) Method() AuthMethod {
	return AuthMethodMulti
}
