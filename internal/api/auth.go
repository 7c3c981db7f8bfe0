package api

import (
	"errors"
	"net/http"
	"strings"
)

// ErrUnauthorized is returned when a request carries no usable identity.
var ErrUnauthorized = errors.New("unauthorized")

// Authenticator resolves the calling user of a request.
type Authenticator interface {
	Authenticate(r *http.Request) (string, error)
}

// HeaderAuthenticator trusts a user ID header set by an upstream proxy.
type HeaderAuthenticator struct {
	Header string
}

// Authenticate returns the header value, or ErrUnauthorized when it is blank.
func (a HeaderAuthenticator) Authenticate(r *http.Request) (string, error) {
	header := a.Header
	if header == "" {
		header = "X-User-ID"
	}
	user := strings.TrimSpace(r.Header.Get(header))
	if user == "" {
		return "", ErrUnauthorized
	}
	return user, nil
}
