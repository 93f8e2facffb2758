package port

import "context"

type Authenticator interface {
	// Authenticate checks a username/password pair on demand and returns the
	// resolved display name when the pair is valid.
	Authenticate(ctx context.Context, username, password string) (displayName string, ok bool, err error)
}
