package auth

import (
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// BasicAuthenticator verifies HTTP Basic credentials against a static
// table of bcrypt hashes loaded from configuration.
type BasicAuthenticator struct {
	users map[string]string // username -> bcrypt hash
}

// NewBasicAuthenticator parses a "user1:hash1,user2:hash2" config
// string into a Basic authenticator. Hashes are bcrypt; the first
// colon in each entry separates username from hash.
func NewBasicAuthenticator(usersConfig string) (*BasicAuthenticator, error) {
	users, err := parseUserEntries(usersConfig)
	if err != nil {
		return nil, err
	}
	return &BasicAuthenticator{users: users}, nil
}

// parseUserEntries splits the comma-separated user:hash list. Empty
// entries are skipped; a list with no valid entries is an error.
func parseUserEntries(usersConfig string) (map[string]string, error) {
	trimmed := strings.TrimSpace(usersConfig)
	if trimmed == "" {
		return nil, fmt.Errorf("basic auth: users config must not be empty")
	}

	users := make(map[string]string)
	for _, entry := range strings.Split(trimmed, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		// Bcrypt hashes contain '$' but never a colon, so the first
		// colon is the separator.
		username, hash, found := strings.Cut(entry, ":")
		if !found {
			return nil, fmt.Errorf("basic auth: invalid entry format, expected user:hash")
		}
		if username == "" || hash == "" {
			return nil, fmt.Errorf("basic auth: username and hash must not be empty")
		}

		users[username] = hash
	}

	if len(users) == 0 {
		return nil, fmt.Errorf("basic auth: no valid user entries found")
	}

	return users, nil
}

// Authenticate reads the Basic auth header and checks the password
// against the stored bcrypt hash for that user.
func (a *BasicAuthenticator) Authenticate(r *http.Request) (*AuthInfo, error) {
	username, password, ok := r.BasicAuth()
	if !ok {
		return nil, ErrUnauthenticated
	}

	// Unknown user and wrong password are indistinguishable to the
	// caller so accounts cannot be enumerated.
	hash, exists := a.users[username]
	if !exists {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return &AuthInfo{
		Method:  AuthMethodBasic,
		Subject: username,
	}, nil
}

// Method returns the authentication method type.
func (a *BasicAuthenticator) Method() AuthMethod {
	return AuthMethodBasic
}
