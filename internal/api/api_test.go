package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arxos/crystalgeo/internal/applog"
	"github.com/arxos/crystalgeo/internal/authn"
	"github.com/arxos/crystalgeo/internal/config"
)

const testPassword = "correct-horse-battery"

func newTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	mgr, err := authn.NewManager(config.JWTConfig{
		Secret: "0123456789abcdef0123456789abcdef",
		Issuer: "crystalgeo-test",
		Expiry: time.Hour,
	}, "admin", testPassword)
	require.NoError(t, err)

	s := NewServer(applog.New(), mgr, nil, nil, config.RateLimitConfig{
		RequestsPerSecond: 1000,
		Burst:             1000,
	})
	return s, s.Router()
}

func login(t *testing.T, router http.Handler) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"username": "admin", "password": testPassword})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/auth/login", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp loginResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp.Token
}

func authedRequest(method, path, token string, body []byte) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestHealthEndpoint(t *testing.T) {
	_, router := newTestServer(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	_, router := newTestServer(t)
	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "wrong"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/auth/login", bytes.NewReader(body)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestScriptRunRequiresToken(t *testing.T) {
	_, router := newTestServer(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/scripts/abc/run", bytes.NewReader([]byte("{}"))))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestScriptRunAndFetchAtoms(t *testing.T) {
	_, router := newTestServer(t)
	token := login(t, router)

	body, _ := json.Marshal(scriptRunRequest{
		Basis:    "cubic",
		Bounds:   BoundsJSON{H: 1, K: 1, L: 1},
		Material: MaterialJSON{E1: 6},
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/v1/scripts/cube/run", token, body))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp scriptRunResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "cube", resp.ScriptID)
	assert.Equal(t, 18, resp.AtomCount)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodGet, "/v1/scripts/cube/atoms", token, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var atoms []AtomJSON
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&atoms))
	assert.Len(t, atoms, 18)
}

func TestScriptRunMapsInvalidBoundsTo400(t *testing.T) {
	_, router := newTestServer(t)
	token := login(t, router)

	body, _ := json.Marshal(scriptRunRequest{
		Basis:    "cubic",
		Bounds:   BoundsJSON{H: 1.5, K: 1, L: 1},
		Material: MaterialJSON{E1: 6},
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/v1/scripts/bad/run", token, body))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScriptRunMapsUnsupportedMaterialTo400(t *testing.T) {
	_, router := newTestServer(t)
	token := login(t, router)

	body, _ := json.Marshal(scriptRunRequest{
		Basis:    "cubic",
		Bounds:   BoundsJSON{H: 1, K: 1, L: 1},
		Material: MaterialJSON{E1: 7}, // nitrogen has no elemental lattice
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/v1/scripts/bad/run", token, body))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScriptRunRejectsUnknownOpKind(t *testing.T) {
	_, router := newTestServer(t)
	token := login(t, router)

	body, _ := json.Marshal(scriptRunRequest{
		Basis:    "cubic",
		Bounds:   BoundsJSON{H: 1, K: 1, L: 1},
		Material: MaterialJSON{E1: 6},
		Ops:      []ScriptOpJSON{{Kind: "twirl"}},
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/v1/scripts/bad/run", token, body))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScriptAtomsUnknownID(t *testing.T) {
	_, router := newTestServer(t)
	token := login(t, router)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodGet, "/v1/scripts/nope/atoms", token, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMatchEndpoint(t *testing.T) {
	_, router := newTestServer(t)
	token := login(t, router)

	body, _ := json.Marshal(matchRequest{
		Queries: []AtomJSON{{X: 0, Y: 0, Z: 0, Number: 6}},
		Targets: []AtomJSON{
			{X: 0, Y: 0, Z: 0, Number: 6},
			{X: 0.15, Y: 0, Z: 0, Number: 6},
			{X: 5, Y: 5, Z: 5, Number: 6},
		},
		Radius:       0.2,
		MaxNeighbors: 8,
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/v1/match", token, body))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp matchResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Counts, 1)
	assert.Equal(t, 2, resp.Counts[0])
	assert.Equal(t, []uint32{0, 1}, resp.Indices[0])
	assert.False(t, resp.CacheHit)
}

func TestReconstructEndpointEmptyResult(t *testing.T) {
	_, router := newTestServer(t)
	token := login(t, router)

	// Two isolated atoms are pathological and fully removed; the endpoint
	// answers 200 with an empty topology rather than an error.
	body, _ := json.Marshal(reconstructRequest{
		Atoms: []AtomJSON{
			{X: 0, Y: 0, Z: 0, Number: 6},
			{X: 0.154, Y: 0, Z: 0, Number: 6},
		},
		Material: MaterialJSON{E1: 6},
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/v1/reconstruct", token, body))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp reconstructResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.NotEmpty(t, resp.RunID)
	assert.Empty(t, resp.Atoms)
	assert.Empty(t, resp.Bonds)
}

func TestCompileScriptRoundTrip(t *testing.T) {
	ops, err := compileScript([]ScriptOpJSON{
		{Kind: "push_scope", Mode: "concave"},
		{Kind: "push_origin", Origin: &Vec3JSON{H: 1}},
		{Kind: "plane", Normal: &Vec3JSON{H: 1}},
		{Kind: "pop_origin"},
		{Kind: "replace", Replace: &ReplaceJSON{Empty: true}},
		{Kind: "pop_scope"},
	})
	require.NoError(t, err)
	assert.Len(t, ops, 6)
}

func TestCompileScriptMissingFieldErrors(t *testing.T) {
	_, err := compileScript([]ScriptOpJSON{{Kind: "plane"}})
	require.Error(t, err)
	_, err = compileScript([]ScriptOpJSON{{Kind: "push_origin"}})
	require.Error(t, err)
	_, err = compileScript([]ScriptOpJSON{{Kind: "push_scope", Mode: "spiral"}})
	require.Error(t, err)
}
