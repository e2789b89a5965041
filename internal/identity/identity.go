// Package identity abstracts "who is the current user". Session and
// login handling live outside this service; the management API only
// ever needs a stable user id.
package identity

import "net/http"

// Provider extracts the current user's id from a request. An empty id
// means the request is unauthenticated.
type Provider interface {
	UserID(r *http.Request) string
}

// HeaderProvider trusts the X-User-ID header set by an authenticating
// proxy in front of the service.
type HeaderProvider struct{}

func (HeaderProvider) UserID(r *http.Request) string {
	return r.Header.Get("X-User-ID")
}
