package identity

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) (*rsa.PrivateKey, string) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)

	return key, string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
}

func signToken(t *testing.T, key *rsa.PrivateKey, method jwt.SigningMethod, claims jwt.RegisteredClaims) string {
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userId, ok := UserFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		_, _ = w.Write([]byte(userId))
	})
}

func serve(handler http.Handler, setup func(r *http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/notes", nil)
	setup(req)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHeaderAuthentication(t *testing.T) {
	auth, err := NewAuthenticator("", nil)
	require.NoError(t, err)
	handler := auth.Middleware(echoUser())

	rec := serve(handler, func(r *http.Request) { r.Header.Set(UserIdHeader, "user-1") })
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", rec.Body.String())

	rec = serve(handler, func(r *http.Request) {})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(handler, func(r *http.Request) { r.Header.Set(UserIdHeader, "user-1/assistantConversations") })
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTokenAuthentication(t *testing.T) {
	key, publicPEM := generateKey(t)
	auth, err := NewAuthenticator(publicPEM, nil)
	require.NoError(t, err)
	handler := auth.Middleware(echoUser())

	valid := signToken(t, key, jwt.SigningMethodRS256, jwt.RegisteredClaims{
		Subject:   "user_2abc",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	rec := serve(handler, func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+valid) })
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user_2abc", rec.Body.String())

	t.Run("HeaderIgnored", func(t *testing.T) {
		rec := serve(handler, func(r *http.Request) { r.Header.Set(UserIdHeader, "user-1") })
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Expired", func(t *testing.T) {
		expired := signToken(t, key, jwt.SigningMethodRS256, jwt.RegisteredClaims{
			Subject:   "user_2abc",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		})
		rec := serve(handler, func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+expired) })
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("WrongKey", func(t *testing.T) {
		other, _ := generateKey(t)
		forged := signToken(t, other, jwt.SigningMethodRS256, jwt.RegisteredClaims{
			Subject:   "user_2abc",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})
		rec := serve(handler, func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+forged) })
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("MissingSubject", func(t *testing.T) {
		token := signToken(t, key, jwt.SigningMethodRS256, jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})
		rec := serve(handler, func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) })
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestInvalidPublicKey(t *testing.T) {
	_, err := NewAuthenticator("not a key", nil)
	assert.Error(t, err)
}
