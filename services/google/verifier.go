package googlesvc

import (
	"context"

	"github.com/pkg/errors"
	"google.golang.org/api/idtoken"

	"github.com/aulamovil/backend/core"
)

// Verifier validates Google ID tokens against the configured OAuth
// client id, using Google's published signing keys.
type Verifier struct {
	clientID string
}

var _ core.IdentityVerifier = (*Verifier)(nil)

func NewVerifier(conf *core.Config) *Verifier {
	return &Verifier{clientID: conf.GoogleClientID}
}

func (v *Verifier) Verify(ctx context.Context, idToken string) (core.GoogleUser, error) {
	payload, err := idtoken.Validate(ctx, idToken, v.clientID)
	if err != nil {
		return core.GoogleUser{}, errors.Wrap(err, "validating google id token")
	}
	return core.GoogleUser{
		Email:   claimString(payload, "email"),
		Name:    claimString(payload, "name"),
		Picture: claimString(payload, "picture"),
	}, nil
}

func claimString(payload *idtoken.Payload, key string) string {
	if val, ok := payload.Claims[key].(string); ok {
		return val
	}
	return ""
}
