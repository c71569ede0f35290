package app

import (
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/require"
)

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := parseConfig(env.Options{Environment: map[string]string{}})
	require.NoError(t, err)

	require.Equal(t, "authcore", cfg.Issuer)
	require.Equal(t, TokenStoreSQLite, cfg.TokenStore)
	require.Equal(t, MailDriverDev, cfg.MailDriver)
	require.Equal(t, AssetDriverNone, cfg.AssetDriver)
	require.Equal(t, 30*time.Minute, cfg.AccessTTL)
	require.Equal(t, 30*24*time.Hour, cfg.RefreshTTL)
	require.Equal(t, 10*time.Minute, cfg.ResetPasswordTTL)
	require.EqualValues(t, 1, cfg.TOTPWindow)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, 5, cfg.RateLimitStrictRequests)
}

func TestParseConfigOverrides(t *testing.T) {
	cfg, err := parseConfig(env.Options{Environment: map[string]string{
		"AUTH_ISSUER":           "example",
		"AUTH_TOKEN_STORE":      "redis",
		"AUTH_REDIS_URL":        "redis://localhost:6379/0",
		"AUTH_ACCESS_TTL":       "5m",
		"MAIL_DRIVER":           "postmark",
		"POSTMARK_SERVER_TOKEN": "server-token",
		"MAIL_FROM":             "noreply@example.com",
		"ASSET_DRIVER":          "s3",
		"S3_BUCKET":             "qr",
		"S3_REGION":             "ap-southeast-2",
		"PORT":                  "9090",
	}})
	require.NoError(t, err)

	require.Equal(t, "example", cfg.Issuer)
	require.Equal(t, TokenStoreRedis, cfg.TokenStore)
	require.Equal(t, 5*time.Minute, cfg.AccessTTL)
	require.Equal(t, "qr", cfg.S3Bucket)
	require.Equal(t, 9090, cfg.Port)
}

func TestParseConfigRejects(t *testing.T) {
	tests := map[string]map[string]string{
		"redis without url":      {"AUTH_TOKEN_STORE": "redis"},
		"unknown token store":    {"AUTH_TOKEN_STORE": "memcached"},
		"postmark without token": {"MAIL_DRIVER": "postmark", "MAIL_FROM": "noreply@example.com"},
		"unknown mail driver":    {"MAIL_DRIVER": "smtp"},
		"s3 without bucket":      {"ASSET_DRIVER": "s3", "S3_REGION": "us-east-1"},
		"local without base url": {"ASSET_DRIVER": "local"},
		"bootstrap email only":   {"BOOTSTRAP_EMAIL": "admin@example.com"},
		"port out of range":      {"PORT": "70000"},
		"zero access ttl":        {"AUTH_ACCESS_TTL": "0s"},
		"malformed duration":     {"AUTH_REFRESH_TTL": "forever"},
	}

	for name, environ := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := parseConfig(env.Options{Environment: environ})
			require.Error(t, err)
		})
	}
}
