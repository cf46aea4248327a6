package sdk

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mitchellh/mapstructure"
)

// AccessClaims is the claim set the dashboard API embeds in access tokens:
// the authenticated user's name and directory groups plus the standard
// registered claims.
type AccessClaims struct {
	Username string   `json:"username"`
	Groups   []string `json:"groups,omitempty"`
	jwt.RegisteredClaims
}

// ParseAccessToken decodes the claims of an access token WITHOUT verifying
// its signature. The client never holds the signing key; the result is only
// good for display (expiry, principal) and must not be used for
// authorization decisions.
func ParseAccessToken(token string) (*AccessClaims, error) {
	var claims AccessClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, fmt.Errorf("failed to parse access token: %w", err)
	}
	return &claims, nil
}

// UserFromToken builds a profile from the claims of an access token. Claims
// the server issues as scalars are lifted into lists.
func UserFromToken(token string) (*User, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("failed to parse access token: %w", err)
	}

	var u User
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &u,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build claims decoder: %w", err)
	}
	if err := decoder.Decode(map[string]any(claims)); err != nil {
		return nil, fmt.Errorf("failed to decode user claims: %w", err)
	}
	if u.Username == "" {
		if sub, _ := claims.GetSubject(); sub != "" {
			u.Username = sub
		}
	}
	if u.Username == "" {
		return nil, fmt.Errorf("access token carries no username")
	}
	return &u, nil
}

// mintUnsignedToken produces an alg=none token for the development login
// fallback. The API rejects such tokens; they only make the local session
// look like a real one.
func mintUnsignedToken(user *User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		Username: user.Username,
		Groups:   user.Groups,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
}
