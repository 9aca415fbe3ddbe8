package auth_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ymori/itemshelf/internal/auth"
)

// stubAuthenticator is a test double for auth.Authenticator.
type stubAuthenticator struct {
	info   *auth.AuthInfo
	err    error
	method auth.AuthMethod
	called bool
}

func (s *stubAuthenticator) Authenticate(_ *http.Request) (*auth.AuthInfo, error) {
	s.called = true
	return s.info, s.err
}

func (s *stubAuthenticator) Method() auth.AuthMethod {
	return s.method
}

func accepting(method auth.AuthMethod, subject string) *stubAuthenticator {
	return &stubAuthenticator{
		info:   &auth.AuthInfo{Method: method, Subject: subject},
		method: method,
	}
}

func rejecting(method auth.AuthMethod, err error) *stubAuthenticator {
	return &stubAuthenticator{err: err, method: method}
}

func TestMultiAuthenticator_Authenticate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		chain       []*stubAuthenticator
		wantSubject string
		wantMethod  auth.AuthMethod
		wantErrIs   error
		wantCalled  []bool
	}{
		{
			name:      "empty chain",
			chain:     nil,
			wantErrIs: auth.ErrUnauthenticated,
		},
		{
			name: "single authenticator accepts",
			chain: []*stubAuthenticator{
				accepting(auth.AuthMethodBasic, "ymori"),
			},
			wantSubject: "ymori",
			wantMethod:  auth.AuthMethodBasic,
		},
		{
			name: "single authenticator rejects",
			chain: []*stubAuthenticator{
				rejecting(auth.AuthMethodBasic, auth.ErrInvalidCredentials),
			},
			wantErrIs: auth.ErrInvalidCredentials,
		},
		{
			name: "first accepts, second never tried",
			chain: []*stubAuthenticator{
				accepting(auth.AuthMethodAPIKey, "shelfctl"),
				accepting(auth.AuthMethodBasic, "ymori"),
			},
			wantSubject: "shelfctl",
			wantMethod:  auth.AuthMethodAPIKey,
			wantCalled:  []bool{true, false},
		},
		{
			name: "no credentials for first, second accepts",
			chain: []*stubAuthenticator{
				rejecting(auth.AuthMethodMTLS, auth.ErrUnauthenticated),
				accepting(auth.AuthMethodBasic, "ymori"),
			},
			wantSubject: "ymori",
			wantMethod:  auth.AuthMethodBasic,
			wantCalled:  []bool{true, true},
		},
		{
			name: "rejected credentials short-circuit the chain",
			chain: []*stubAuthenticator{
				rejecting(auth.AuthMethodBasic, auth.ErrInvalidCredentials),
				accepting(auth.AuthMethodAPIKey, "shelfctl"),
			},
			wantErrIs:  auth.ErrInvalidCredentials,
			wantCalled: []bool{true, false},
		},
		{
			name: "whole chain without credentials",
			chain: []*stubAuthenticator{
				rejecting(auth.AuthMethodMTLS, auth.ErrUnauthenticated),
				rejecting(auth.AuthMethodBasic, auth.ErrUnauthenticated),
				rejecting(auth.AuthMethodAPIKey, auth.ErrUnauthenticated),
			},
			wantErrIs:  auth.ErrUnauthenticated,
			wantCalled: []bool{true, true, true},
		},
		{
			name: "middle of three accepts",
			chain: []*stubAuthenticator{
				rejecting(auth.AuthMethodMTLS, auth.ErrUnauthenticated),
				accepting(auth.AuthMethodAPIKey, "importer"),
				accepting(auth.AuthMethodBasic, "ymori"),
			},
			wantSubject: "importer",
			wantMethod:  auth.AuthMethodAPIKey,
			wantCalled:  []bool{true, true, false},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// Arrange
			chain := make([]auth.Authenticator, len(tt.chain))
			for i, s := range tt.chain {
				chain[i] = s
			}
			multi := auth.NewMultiAuthenticator(chain...)
			req := httptest.NewRequest(http.MethodGet, "/api/v1/items", nil)

			// Act
			info, err := multi.Authenticate(req)

			// Assert
			if tt.wantErrIs != nil {
				if err == nil {
					t.Fatal("Authenticate() error = nil, want error")
				}
				if !errors.Is(err, tt.wantErrIs) {
					t.Errorf("Authenticate() error = %v, want errors.Is %v", err, tt.wantErrIs)
				}
			} else {
				if err != nil {
					t.Fatalf("Authenticate() error = %v, want nil", err)
				}
				if info == nil {
					t.Fatal("Authenticate() returned nil AuthInfo")
				}
				if info.Subject != tt.wantSubject {
					t.Errorf("Subject = %q, want %q", info.Subject, tt.wantSubject)
				}
				if info.Method != tt.wantMethod {
					t.Errorf("Method = %q, want %q", info.Method, tt.wantMethod)
				}
			}

			for i, wantCalled := range tt.wantCalled {
				if tt.chain[i].called != wantCalled {
					t.Errorf("authenticator %d called = %v, want %v", i, tt.chain[i].called, wantCalled)
				}
			}
		})
	}
}

func TestMultiAuthenticator_Method(t *testing.T) {
	t.Parallel()

	multi := auth.NewMultiAuthenticator()

	if multi.Method() != auth.AuthMethodMulti {
		t.Errorf("Method() = %q, want %q", multi.Method(), auth.AuthMethodMulti)
	}
}
