package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Skotchmaster/storefront/internal/models"
)

var ErrInvalidToken = errors.New("invalid access token")

type AccessClaims struct {
	Role  models.Role `json:"role"`
	Email string      `json:"email"`
	Name  string      `json:"name,omitempty"`
	jwt.RegisteredClaims
}

func SignAccessToken(u models.User, secret []byte, exp time.Time) (string, error) {
	claims := AccessClaims{
		Role:  u.Role,
		Email: u.Email,
		Name:  u.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func AccessClaimsFromToken(tokenStr string, secret []byte) (*AccessClaims, error) {
	var claims AccessClaims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return secret, nil
	})
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	if !tkn.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

// User rebuilds the signed-in user carried by the claims.
func (c *AccessClaims) User() *models.User {
	return &models.User{ID: c.Subject, Email: c.Email, Name: c.Name, Role: c.Role}
}
