package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/fudahub/fudahub/internal/auth/middleware"
	"github.com/fudahub/fudahub/internal/rbac"
)

func TestIssueAndParseRoundTrip(t *testing.T) {
	svc := auth.NewAuthService("test-secret", time.Hour)

	token, err := svc.IssueJWT("user-1", "player")
	require.NoError(t, err)

	claims, err := svc.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Sub)
	assert.Equal(t, "player", claims.Role)
	assert.Equal(t, "fudahub", claims.Issuer)
}

func TestParseRejectsForeignSignature(t *testing.T) {
	token, err := auth.NewAuthService("secret-a", time.Hour).IssueJWT("user-1", "player")
	require.NoError(t, err)

	_, err = auth.NewAuthService("secret-b", time.Hour).Parse(token)
	assert.Error(t, err)
}

func TestJWTMiddleware(t *testing.T) {
	svc := auth.NewAuthService("test-secret", time.Hour)
	var gotSub, gotRole string
	handler := auth.JWTMiddleware(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSub = rbac.SubjectFromContext(r.Context())
		gotRole = rbac.RoleFromContext(r.Context())
	}))

	// No credentials.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Garbage token.
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Valid token lands subject and role in the context.
	token, err := svc.IssueJWT("user-7", "admin")
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-7", gotSub)
	assert.Equal(t, "admin", gotRole)
}
