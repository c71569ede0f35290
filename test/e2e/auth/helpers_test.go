package auth_test

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/authcore/internal/auth/app"
	"github.com/aussiebroadwan/authcore/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/authcore/pkg/authsdk"
	"github.com/aussiebroadwan/authcore/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

/*
 * Common constants and helper functions for auth service end-to-end tests.
 * The service runs in-process behind an httptest server with the dev mail
 * sender, so emailed links are read back from disk.
 */

const (
	adminEmail    = "admin@example.com"
	adminName     = "Administrator"
	adminPassword = "Admin1234"
)

// authServer is a running service instance.
type authServer struct {
	BaseURL  string
	MailDir  string
	AssetDir string
	DBFile   string
}

// relaxedRateLimits keep tests that make many rapid requests from being
// throttled.
var relaxedRateLimits = map[string]string{
	"RATELIMIT_STRICT_REQUESTS":   "1000",
	"RATELIMIT_MODERATE_REQUESTS": "1000",
}

// setupAuthServer starts the service with relaxed rate limits. extra
// overrides or adds environment variables.
func setupAuthServer(t *testing.T, extra map[string]string) *authServer {
	t.Helper()

	env := map[string]string{}
	for k, v := range relaxedRateLimits {
		env[k] = v
	}
	for k, v := range extra {
		env[k] = v
	}
	return startAuthServer(t, env)
}

// setupAuthServerWithDefaultRateLimits starts the service with the
// production rate limits. Only rate limit tests should use it.
func setupAuthServerWithDefaultRateLimits(t *testing.T) *authServer {
	t.Helper()
	return startAuthServer(t, nil)
}

func startAuthServer(t *testing.T, extra map[string]string) *authServer {
	t.Helper()

	dir := t.TempDir()
	srv := &authServer{
		MailDir:  filepath.Join(dir, "mail"),
		AssetDir: filepath.Join(dir, "assets"),
		DBFile:   filepath.Join(dir, "auth.db"),
	}

	env := map[string]string{
		"ENV":                "test",
		"LOG_LEVEL":          "error",
		"LOG_FORMAT":         "json",
		"AUTH_DATABASE_FILE": srv.DBFile,
		"AUTH_PEPPER_FILE":   filepath.Join(dir, "pepper"),
		"AUTH_ISSUER":        "authcore-e2e",
		"AUTH_NUM_KEYS":      "1",
		"APP_BASE_URL":       "http://app.example.com",
		"MAIL_DRIVER":        "dev",
		"MAIL_DEV_DIR":       srv.MailDir,
		"ASSET_DRIVER":       "local",
		"ASSET_LOCAL_DIR":    srv.AssetDir,
		"ASSET_BASE_URL":     "http://assets.example.com",
		"BOOTSTRAP_EMAIL":    adminEmail,
		"BOOTSTRAP_PASSWORD": adminPassword,
		"BOOTSTRAP_NAME":     adminName,
	}
	for k, v := range extra {
		env[k] = v
	}
	for k, v := range env {
		t.Setenv(k, v)
	}

	cfg, err := app.LoadConfig()
	require.NoError(t, err)

	application, err := app.New(cfg)
	require.NoError(t, err)
	application.Start()

	server := httptest.NewServer(application.Handler())
	t.Cleanup(func() {
		server.Close()
		application.Stop()
	})

	srv.BaseURL = server.URL
	return srv
}

func (s *authServer) client() *authsdk.SDKClient {
	return authsdk.NewSDKClient(s.BaseURL)
}

// loginAdmin logs in as the bootstrapped account.
func (s *authServer) loginAdmin(t *testing.T) *authsdk.Session {
	t.Helper()

	session, err := s.client().Login(t.Context(), adminEmail, adminPassword)
	require.NoError(t, err, "Login should succeed")
	require.NotNil(t, session, "Session should not be nil")
	return session
}

var tokenLinkRe = regexp.MustCompile(`\?token=(\S+)`)

// waitForEmailToken waits for the dev sender to write an email tagged tag
// and returns the token from its link. Delivery is asynchronous.
func (s *authServer) waitForEmailToken(t *testing.T, tag string) string {
	t.Helper()

	var body string
	require.Eventually(t, func() bool {
		matches, _ := filepath.Glob(filepath.Join(s.MailDir, "*_"+tag+".txt"))
		if len(matches) == 0 {
			return false
		}
		// Timestamped names sort chronologically; take the newest.
		data, err := os.ReadFile(matches[len(matches)-1])
		if err != nil {
			return false
		}
		body = string(data)
		return true
	}, 5*time.Second, 20*time.Millisecond, "no %s email delivered", tag)

	m := tokenLinkRe.FindStringSubmatch(body)
	require.Len(t, m, 2, "email has no token link: %s", body)

	token, err := url.QueryUnescape(strings.TrimSpace(m[1]))
	require.NoError(t, err)
	return token
}

// totpSecret reads the stored TOTP secret of email straight from the
// database. The API only ever returns it inside a QR image.
func (s *authServer) totpSecret(t *testing.T, email string) string {
	t.Helper()

	db, err := sqlite.NewStore(s.DBFile)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	u, err := db.Users().GetUserByEmail(context.Background(), email)
	require.NoError(t, err)
	require.NotNil(t, u.TOTPSecret, "user has no TOTP secret")
	return *u.TOTPSecret
}

// verifyWithJWKS checks token against the published keys only, the way a
// downstream service would.
func verifyWithJWKS(t *testing.T, jwks jwtx.JWKS, token string) jwtx.Claims {
	t.Helper()

	keys := jwtx.NewKeySet()
	for _, k := range jwks.Keys {
		pub, err := base64.RawURLEncoding.DecodeString(k.X)
		require.NoError(t, err)
		require.Len(t, pub, ed25519.PublicKeySize)
		require.NoError(t, keys.Add(k.Kid, ed25519.PublicKey(pub)))
	}

	claims, err := jwtx.NewVerifierEdDSA(keys, "authcore-e2e").Verify(token)
	require.NoError(t, err)
	return claims
}

// assertHealthy verifies a health check response is OK.
func assertHealthy(t *testing.T, health authsdk.HealthResponse, err error) {
	t.Helper()
	require.NoError(t, err)
	require.Equal(t, "ok", health.Status)
}

// assertUnauthorized checks that err is a 401 from the service.
func assertUnauthorized(t *testing.T, err error, context string) {
	t.Helper()
	require.Error(t, err, context)
	require.True(t, authsdk.IsUnauthorized(err), "%s - expected 401, got: %v", context, err)
}
