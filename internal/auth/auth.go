// Package auth verifies the bearer tokens that identify the acting user.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid bearer token")
)

const (
	RoleRequester  = "requester"
	RoleTechnician = "technician"
)

type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type Actor struct {
	ID   string
	Role string
}

// Tokens signs and verifies HS256 tokens with one shared secret.
type Tokens struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewTokens(secret, issuer string) (*Tokens, error) {
	if secret == "" {
		return nil, errors.New("auth: empty jwt secret")
	}
	return &Tokens{secret: []byte(secret), issuer: issuer, now: time.Now}, nil
}

func (t *Tokens) Mint(subject, role string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("auth: empty subject")
	}
	now := t.now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

func (t *Tokens) Parse(raw string) (Actor, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, opts...)
	if err != nil {
		return Actor{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return Actor{}, fmt.Errorf("%w: no subject", ErrInvalidToken)
	}
	return Actor{ID: claims.Subject, Role: claims.Role}, nil
}

const actorKey = "auth.actor"

// Middleware rejects requests without a valid bearer token and stores the actor on the
// echo context.
func Middleware(t *Tokens) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, err := bearer(c.Request().Header.Get(echo.HeaderAuthorization))
			if err == nil {
				var actor Actor
				if actor, err = t.Parse(raw); err == nil {
					c.Set(actorKey, actor)
					return next(c)
				}
			}
			return c.JSON(http.StatusUnauthorized, map[string]string{
				"code":    "UNAUTHORIZED",
				"message": err.Error(),
			})
		}
	}
}

func ActorFrom(c echo.Context) (Actor, bool) {
	a, ok := c.Get(actorKey).(Actor)
	return a, ok
}

func bearer(header string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrMissingToken
	}
	return strings.TrimSpace(token), nil
}
