package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "mkv"

var (
	// ErrMissingBearer is returned when a request carries no bearer token
	ErrMissingBearer = errors.New("missing bearer token")
	// ErrInvalidToken is returned when a bearer token does not verify
	ErrInvalidToken = errors.New("invalid bearer token")
)

// MintToken creates an HS256 token for subject, valid for ttl (0 = no expiry).
func MintToken(secret, subject string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("secret is required")
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:   issuer,
		Subject:  subject,
		IssuedAt: jwt.NewNumericDate(now),
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// VerifyToken checks signature, issuer and expiry of token.
func VerifyToken(secret, token string) (*jwt.RegisteredClaims, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return &claims, nil
}

// authenticator guards the settings routes. Without a secret every non-empty
// bearer token is accepted.
type authenticator struct {
	secret string
}

func newAuthenticator(secret string) *authenticator {
	if secret == "" {
		Logger.Warningf("no auth secret configured, accepting any bearer token")
	}
	return &authenticator{secret: secret}
}

func (a *authenticator) check(r *http.Request) error {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return ErrMissingBearer
	}
	if a.secret == "" {
		return nil
	}
	_, err := VerifyToken(a.secret, token)
	return err
}

func (a *authenticator) middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := a.check(r); err != nil {
			Logger.Debugf("rejected %s %s: %v", r.Method, r.URL.Path, err)
			w.Header().Set("WWW-Authenticate", "Bearer")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			countRequest(r.Method, http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}
