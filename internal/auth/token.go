package auth

import (
	"fmt"
	"time"

	"jawara/pkg/types"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwt"
)

// Claims is what a bearer token carries about its account.
type Claims struct {
	UserID string
	Email  string
	Role   types.Role
}

// TokenIssuer signs and verifies HS256 bearer tokens.
type TokenIssuer struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, expiry time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(secret),
		expiry: expiry,
		now:    time.Now,
	}
}

func (t *TokenIssuer) Issue(user *types.User) (string, error) {
	now := t.now()

	token, err := jwt.NewBuilder().
		Subject(user.ID).
		IssuedAt(now).
		Expiration(now.Add(t.expiry)).
		Claim("email", user.Email).
		Claim("role", string(user.Role)).
		Build()
	if err != nil {
		return "", fmt.Errorf("failed to build token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256(), t.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return string(signed), nil
}

// Parse verifies the signature and expiry of raw and returns its claims.
func (t *TokenIssuer) Parse(raw string) (*Claims, error) {
	token, err := jwt.Parse(
		[]byte(raw),
		jwt.WithKey(jwa.HS256(), t.secret),
		jwt.WithValidate(true),
		jwt.WithClock(jwt.ClockFunc(t.now)),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", types.ErrInvalidToken, err)
	}

	userID, ok := token.Subject()
	if !ok || userID == "" {
		return nil, fmt.Errorf("%w: missing subject", types.ErrInvalidToken)
	}

	claims := &Claims{UserID: userID}

	// email is informational; role is required for authorization.
	_ = token.Get("email", &claims.Email)

	var role string
	if err := token.Get("role", &role); err != nil {
		return nil, fmt.Errorf("%w: missing role", types.ErrInvalidToken)
	}
	claims.Role = types.Role(role)
	if !claims.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", types.ErrInvalidToken, role)
	}

	return claims, nil
}
