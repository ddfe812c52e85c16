package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Tokens signs and validates the session cookie. A token is a HS256
// JWT whose "sub" claim is the session ID.
type Tokens struct {
	Secret []byte
	TTL    time.Duration
}

func NewTokens(secret []byte, ttl time.Duration) *Tokens {
	return &Tokens{
		Secret: secret,
		TTL:    ttl,
	}
}

// Sign returns a token for session id.
func (t *Tokens) Sign(id string) (string, error) {
	token := jwt.New(jwt.SigningMethodHS256)
	claims := token.Claims.(jwt.MapClaims)
	claims["sub"] = id
	claims["exp"] = time.Now().Add(t.TTL).Unix()

	tokenStr, err := token.SignedString(t.Secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}

	return tokenStr, nil
}

// Parse validates tokenStr and returns the session ID it was signed for.
func (t *Tokens) Parse(tokenStr string) (string, error) {
	token, err := jwt.Parse(
		tokenStr,
		func(tok *jwt.Token) (interface{}, error) {
			if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("invalid signing method")
			}
			return t.Secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))
	if err != nil {
		return "", fmt.Errorf("parsing token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("unexpected claims type")
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", errors.New("token has no subject")
	}

	return sub, nil
}
