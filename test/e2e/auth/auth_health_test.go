package auth_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/aussiebroadwan/authcore/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

// TestLivezEndpoint verifies the liveness check endpoint.
func TestLivezEndpoint(t *testing.T) {
	srv := setupAuthServer(t, nil)

	health, err := srv.client().GetLiveness(t.Context())
	assertHealthy(t, health, err)
	require.NotEmpty(t, health.Version)
}

// TestReadyzEndpoint verifies the readiness check covers the database and signer.
func TestReadyzEndpoint(t *testing.T) {
	srv := setupAuthServer(t, nil)

	health, err := srv.client().GetReadiness(t.Context())
	assertHealthy(t, health, err)
	require.Equal(t, "ok", health.Checks["database"])
	require.Equal(t, "ok", health.Checks["signer"])
}

// TestJWKSEndpoint verifies the published keys verify issued access tokens.
func TestJWKSEndpoint(t *testing.T) {
	srv := setupAuthServer(t, nil)
	session := srv.loginAdmin(t)

	resp, err := http.Get(srv.BaseURL + "/.well-known/jwks.json")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var jwks jwtx.JWKS
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&jwks))
	require.Len(t, jwks.Keys, 1, "AUTH_NUM_KEYS=1")

	key := jwks.Keys[0]
	require.Equal(t, "OKP", key.Kty)
	require.Equal(t, "Ed25519", key.Crv)
	require.Equal(t, jwtx.AlgorithmEdDSA, key.Alg)
	t.Logf("Key ID: %s, Algorithm: %s, Use: %s", key.Kid, key.Alg, key.Use)

	claims := verifyWithJWKS(t, jwks, session.AccessToken())
	require.Equal(t, session.User().ID, claims.Subject)
	require.Equal(t, "access", claims.Type)
	require.Equal(t, "authcore-e2e", claims.Issuer)
}
