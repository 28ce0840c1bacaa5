package tokens

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/inkfeed/inkfeed/internal/identity"
	"github.com/inkfeed/inkfeed/pkg/middleware"
)

// GenerateAccessToken creates a signed JWT access token for the session
func GenerateAccessToken(secret string, s *identity.Session, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":            s.UID,
		"name":           s.DisplayName,
		"email":          s.Email,
		"email_verified": s.EmailVerified,
		"iat":            time.Now().Unix(),
		"exp":            time.Now().Add(ttl).Unix(),
	}
	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return jt.SignedString([]byte(secret))
}

// Verifier validates HS256 access tokens minted by GenerateAccessToken.
// It satisfies middleware.Verifier.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

type parsedToken struct {
	claims jwt.MapClaims
}

func (t *parsedToken) Claims(v interface{}) error {
	mm, ok := v.(*map[string]interface{})
	if !ok {
		return fmt.Errorf("unsupported claims type %T", v)
	}
	*mm = t.claims
	return nil
}

func (v *Verifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	parsed, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("unexpected claims type")
	}
	return &parsedToken{claims: claims}, nil
}
