package ports

import "context"

// CredentialProvider supplies the bearer token attached to backend requests.
// An empty token means the request is sent without Authorization.
type CredentialProvider interface {
	AccessToken(ctx context.Context) string
}

// UnauthorizedHandler is invoked by the HTTP client after a 401 response
type UnauthorizedHandler func(ctx context.Context)
