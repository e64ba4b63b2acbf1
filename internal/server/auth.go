package server

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/gitgauge/gitgauge/internal/interfaces"
)

// ErrInvalidCredential rejects a bearer token the verifier does not know.
var ErrInvalidCredential = errors.New("server: invalid credential")

// StaticVerifier accepts exactly one pre-shared token and maps it to a fixed
// user id. It exists for development and single-tenant deployments; anything
// multi-user plugs a real session verifier into Config.Verifier.
type StaticVerifier struct {
	Token  string
	UserID string
}

var _ interfaces.AuthVerifier = (*StaticVerifier)(nil)

// Verify implements interfaces.AuthVerifier.
func (v *StaticVerifier) Verify(_ context.Context, credential string) (string, error) {
	if v.Token == "" {
		return "", ErrInvalidCredential
	}
	if subtle.ConstantTimeCompare([]byte(credential), []byte(v.Token)) != 1 {
		return "", ErrInvalidCredential
	}
	userID := v.UserID
	if userID == "" {
		userID = "default"
	}
	return userID, nil
}
