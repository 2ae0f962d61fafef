package core

import "context"

// GoogleUser is the profile carried by a verified Google ID token.
type GoogleUser struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// IdentityVerifier validates a Google ID token against the configured
// client id and returns the profile it carries.
type IdentityVerifier interface {
	Verify(ctx context.Context, idToken string) (GoogleUser, error)
}
