package interfaces

import "context"

// AuthVerifier resolves a bearer credential to a stable user identifier.
// The scan core treats the result as an opaque optional string; the real
// session system lives outside this module.
type AuthVerifier interface {
	// Verify returns the user id for a credential, or an error when the
	// credential is invalid or expired.
	Verify(ctx context.Context, credential string) (string, error)
}
