package auth

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"
)

// APIKeyHeader is the HTTP header name for API key authentication.
const APIKeyHeader = "X-API-Key"

// APIKeyAuthenticator checks the X-API-Key header against a static set
// of keys. Comparison is constant-time.
type APIKeyAuthenticator struct {
	keys map[string]string // key value -> key name
}

// NewAPIKeyAuthenticator parses a "key1:name1,key2:name2" config
// string into an API key authenticator. The name becomes the subject
// of authenticated requests.
func NewAPIKeyAuthenticator(keysConfig string) (*APIKeyAuthenticator, error) {
	trimmed := strings.TrimSpace(keysConfig)
	if trimmed == "" {
		return nil, fmt.Errorf("apikey auth: keys config must not be empty")
	}

	keys := make(map[string]string)
	for _, entry := range strings.Split(trimmed, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		key, name, found := strings.Cut(entry, ":")
		if !found {
			return nil, fmt.Errorf("apikey auth: invalid entry format, expected key:name")
		}

		key = strings.TrimSpace(key)
		name = strings.TrimSpace(name)
		if key == "" || name == "" {
			return nil, fmt.Errorf("apikey auth: key and name must not be empty")
		}

		keys[key] = name
	}

	if len(keys) == 0 {
		return nil, fmt.Errorf("apikey auth: no valid key entries found")
	}

	return &APIKeyAuthenticator{keys: keys}, nil
}

// Authenticate validates the X-API-Key header. Every configured key is
// compared in constant time so lookup order leaks nothing about which
// prefix matched.
func (a *APIKeyAuthenticator) Authenticate(r *http.Request) (*AuthInfo, error) {
	apiKey := r.Header.Get(APIKeyHeader)
	if apiKey == "" {
		return nil, ErrUnauthenticated
	}

	for key, name := range a.keys {
		if subtle.ConstantTimeCompare([]byte(apiKey), []byte(key)) == 1 {
			return &AuthInfo{
				Method:  AuthMethodAPIKey,
				Subject: name,
			}, nil
		}
	}

	return nil, ErrInvalidAPIKey
}

// Method returns the authentication method type.
func (a *APIKeyAuthenticator) Method() AuthMethod {
	return AuthMethodAPIKey
}
