package ports

import (
	"context"
	"io"
)

// Credentials is the body posted to the auth endpoint.
type Credentials struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// AuthClient talks to the remote auth endpoint.
//
// Both calls return the access token on success. Well-formed rejections are
// returned as *domain.AuthError and transport failures as *domain.NetworkError.
type AuthClient interface {
	Login(ctx context.Context, creds Credentials) (string, error)
	Register(ctx context.Context, creds Credentials) (string, error)
}

// CatalogSource opens the raw catalog document.
type CatalogSource interface {
	// Open returns a reader over the CSV text. The caller closes it.
	Open(ctx context.Context) (io.ReadCloser, error)

	// Location describes where the catalog comes from, for logs and events.
	Location() string
}
