package auth

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/idtoken"
)

var ErrInvalidToken = errors.New("invalid token")

// Identity is the verified caller of a request.
type Identity struct {
	UID     string
	Email   string
	Name    string
	Picture string
}

// Verifier checks a bearer token.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

type googleValidator func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

// GoogleVerifier validates Google Sign-In ID tokens issued for one client id.
type GoogleVerifier struct {
	audience string
	validate googleValidator
}

func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{audience: clientID, validate: idtoken.Validate}
}

func (v *GoogleVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	payload, err := v.validate(ctx, token, v.audience)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	id := &Identity{
		UID:     payload.Subject,
		Email:   claimString(payload.Claims, "email"),
		Name:    claimString(payload.Claims, "name"),
		Picture: claimString(payload.Claims, "picture"),
	}
	if id.Email == "" {
		return nil, fmt.Errorf("%w: token carries no email", ErrInvalidToken)
	}
	return id, nil
}

func claimString(claims map[string]interface{}, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}

// Chain tries verifiers in order and returns the first success.
type Chain []Verifier

func (ch Chain) Verify(ctx context.Context, token string) (*Identity, error) {
	err := ErrInvalidToken
	for _, v := range ch {
		id, verr := v.Verify(ctx, token)
		if verr == nil {
			return id, nil
		}
		err = verr
	}
	return nil, err
}
