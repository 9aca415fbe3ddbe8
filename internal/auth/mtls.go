package auth

import (
	"crypto/x509"
	"net/http"
)

// MTLSAuthenticator derives identity from the verified TLS client
// certificate. Certificate verification itself happens in the TLS
// handshake; this only maps the peer certificate to an AuthInfo.
type MTLSAuthenticator struct{}

// NewMTLSAuthenticator creates a new mTLS authenticator.
func NewMTLSAuthenticator() *MTLSAuthenticator {
	return &MTLSAuthenticator{}
}

// Authenticate requires a TLS connection carrying at least one peer
// certificate. The subject comes from the certificate CommonName,
// falling back to a SAN when the CN is empty.
func (a *MTLSAuthenticator) Authenticate(r *http.Request) (*AuthInfo, error) {
	if r.TLS == nil {
		return nil, ErrUnauthenticated
	}
	if len(r.TLS.PeerCertificates) == 0 {
		return nil, ErrInvalidCert
	}

	cert := r.TLS.PeerCertificates[0]

	subject := peerSubject(cert)
	if subject == "" {
		return nil, ErrInvalidCert
	}

	claims := make(map[string]any)
	if len(cert.Subject.Organization) > 0 {
		claims["organizations"] = cert.Subject.Organization
	}
	if len(cert.DNSNames) > 0 {
		claims["dns_names"] = cert.DNSNames
	}

	return &AuthInfo{
		Method:  AuthMethodMTLS,
		Subject: subject,
		Claims:  claims,
	}, nil
}

// peerSubject picks an identity for the peer: CommonName first, then
// the first DNS SAN, then the first URI SAN. SPIFFE-style certs carry
// no CN at all, only a URI.
func peerSubject(cert *x509.Certificate) string {
	if cn := cert.Subject.CommonName; cn != "" {
		return cn
	}
	if len(cert.DNSNames) > 0 {
		return cert.DNSNames[0]
	}
	if len(cert.URIs) > 0 {
		return cert.URIs[0].String()
	}
	return ""
}

// Method returns the authentication method type.
func (a *MTLSAuthenticator) Method() AuthMethod {
	return AuthMethodMTLS
}
