package identity

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

const UserIdHeader = "X-User-Id"

var (
	ErrMissingToken = errors.New("missing authentication token")
	ErrInvalidToken = errors.New("invalid token")
)

type contextKey struct{}

func WithUser(ctx context.Context, userId string) context.Context {
	return context.WithValue(ctx, contextKey{}, userId)
}

func UserFromContext(ctx context.Context) (string, bool) {
	userId, ok := ctx.Value(contextKey{}).(string)
	return userId, ok && userId != ""
}

// Authenticator resolves the user of a request. With a public key it
// requires an RS256 bearer token and takes the user from the sub claim.
// Without one it trusts the X-User-Id header, which is only suitable for
// local single user deployments.
type Authenticator struct {
	publicKey *rsa.PublicKey
	logger    *slog.Logger
}

func NewAuthenticator(publicKeyPEM string, logger *slog.Logger) (*Authenticator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Authenticator{logger: logger.With("component", "auth")}

	if strings.TrimSpace(publicKeyPEM) != "" {
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(publicKeyPEM))
		if err != nil {
			return nil, fmt.Errorf("failed to parse public key: %w", err)
		}
		a.publicKey = key
	}
	return a, nil
}

func (a *Authenticator) authenticate(r *http.Request) (string, error) {
	if a.publicKey == nil {
		userId := strings.TrimSpace(r.Header.Get(UserIdHeader))
		if userId == "" {
			return "", ErrMissingToken
		}
		if strings.Contains(userId, "/") {
			return "", fmt.Errorf("%w: malformed user id", ErrInvalidToken)
		}
		return userId, nil
	}

	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return "", ErrMissingToken
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(strings.TrimSpace(token), claims, func(t *jwt.Token) (interface{}, error) {
		return a.publicKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}

func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userId, err := a.authenticate(r)
		if err != nil {
			a.logger.Info("rejected unauthenticated request", "path", r.URL.Path, "error", err)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), userId)))
	})
}
