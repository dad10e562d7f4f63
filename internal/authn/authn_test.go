package authn

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arxos/crystalgeo/internal/config"
)

func testConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret: "0123456789abcdef0123456789abcdef",
		Issuer: "crystalgeo-test",
		Expiry: time.Hour,
	}
}

func TestAuthenticateAndVerifyRoundTrip(t *testing.T) {
	mgr, err := NewManager(testConfig(), "admin", "hunter22")
	require.NoError(t, err)

	token, expiresAt, err := mgr.Authenticate("admin", "hunter22")
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := mgr.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Subject)
	assert.Equal(t, "crystalgeo-test", claims.Issuer)
}

func TestAuthenticateRejectsWrongCredentials(t *testing.T) {
	mgr, err := NewManager(testConfig(), "admin", "hunter22")
	require.NoError(t, err)

	_, _, err = mgr.Authenticate("admin", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = mgr.Authenticate("intruder", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyRejectsGarbageToken(t *testing.T) {
	mgr, err := NewManager(testConfig(), "admin", "hunter22")
	require.NoError(t, err)
	_, err = mgr.Verify("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	cfg := testConfig()
	cfg.Expiry = -time.Minute
	mgr, err := NewManager(cfg, "admin", "hunter22")
	require.NoError(t, err)

	token, _, err := mgr.Authenticate("admin", "hunter22")
	require.NoError(t, err)
	_, err = mgr.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	mgr, err := NewManager(testConfig(), "admin", "hunter22")
	require.NoError(t, err)

	foreignCfg := testConfig()
	foreignCfg.Secret = "ffffffffffffffffffffffffffffffff"
	foreign, err := NewManager(foreignCfg, "admin", "hunter22")
	require.NoError(t, err)

	token, _, err := foreign.Authenticate("admin", "hunter22")
	require.NoError(t, err)
	_, err = mgr.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewManagerRequiresCredentials(t *testing.T) {
	_, err := NewManager(testConfig(), "", "pass")
	require.Error(t, err)
	_, err = NewManager(testConfig(), "admin", "")
	require.Error(t, err)
}

func TestMiddlewareGatesRequests(t *testing.T) {
	mgr, err := NewManager(testConfig(), "admin", "hunter22")
	require.NoError(t, err)

	handler := mgr.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, _, err := mgr.Authenticate("admin", "hunter22")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
