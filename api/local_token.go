package api

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/Davi2004/TarefasPlus/domain"
)

// SignLocalToken issues an HS256 ID token accepted when the server runs with
// LOCAL_AUTH_MODE=hs256.
func SignLocalToken(secret string, id domain.Identity, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("LOCAL_AUTH_SHARED_SECRET must be set")
	}
	if !id.Valid() {
		return "", errors.New("email is required")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   id.Email,
		"email": id.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	if id.Name != "" {
		claims["name"] = id.Name
	}
	if id.Image != "" {
		claims["picture"] = id.Image
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
