package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Token store backends.
const (
	TokenStoreSQLite = "sqlite"
	TokenStoreRedis  = "redis"
)

// Mail and asset drivers.
const (
	MailDriverDev      = "dev"
	MailDriverPostmark = "postmark"

	AssetDriverNone  = "none"
	AssetDriverLocal = "local"
	AssetDriverS3    = "s3"
)

type Config struct {
	Issuer         string        `env:"AUTH_ISSUER"            envDefault:"authcore"`
	SigningKeyFile string        `env:"AUTH_SIGNING_KEY_FILE"`                  // Optional: PEM key; empty means ephemeral keys
	NumKeys        int           `env:"AUTH_NUM_KEYS"          envDefault:"3"`  // Ephemeral mode only
	PepperFile     string        `env:"AUTH_PEPPER_FILE"       envDefault:"pepper"`
	DatabaseFile   string        `env:"AUTH_DATABASE_FILE"     envDefault:"auth.db"`
	StoreTimeout   time.Duration `env:"AUTH_STORE_TIMEOUT"     envDefault:"5s"`

	AccessTTL        time.Duration `env:"AUTH_ACCESS_TTL"         envDefault:"30m"`
	RefreshTTL       time.Duration `env:"AUTH_REFRESH_TTL"        envDefault:"720h"`
	ResetPasswordTTL time.Duration `env:"AUTH_RESET_PASSWORD_TTL" envDefault:"10m"`
	VerifyEmailTTL   time.Duration `env:"AUTH_VERIFY_EMAIL_TTL"   envDefault:"10m"`

	TOTPIssuer string `env:"AUTH_TOTP_ISSUER" envDefault:"AuthCore"` // Label shown in authenticator apps
	TOTPWindow uint   `env:"AUTH_TOTP_WINDOW" envDefault:"1"`

	TokenStore  string `env:"AUTH_TOKEN_STORE"  envDefault:"sqlite"` // sqlite or redis
	RedisURL    string `env:"AUTH_REDIS_URL"`
	RedisPrefix string `env:"AUTH_REDIS_PREFIX" envDefault:"authcore"`

	AppBaseURL string `env:"APP_BASE_URL" envDefault:"http://localhost:3000"` // Links in emails point here

	MailDriver           string `env:"MAIL_DRIVER"  envDefault:"dev"`
	MailDevDir           string `env:"MAIL_DEV_DIR" envDefault:"mail"`
	MailFrom             string `env:"MAIL_FROM"`
	MailReplyTo          string `env:"MAIL_REPLY_TO"`
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`

	AssetDriver      string `env:"ASSET_DRIVER"    envDefault:"none"`
	AssetLocalDir    string `env:"ASSET_LOCAL_DIR" envDefault:"assets"`
	AssetBaseURL     string `env:"ASSET_BASE_URL"`
	S3Bucket         string `env:"S3_BUCKET"`
	S3Region         string `env:"S3_REGION"`
	S3AccessKeyID    string `env:"S3_ACCESS_KEY_ID"`
	S3SecretKey      string `env:"S3_SECRET_KEY"`
	S3Endpoint       string `env:"S3_ENDPOINT"`
	S3ForcePathStyle bool   `env:"S3_FORCE_PATH_STYLE"`
	S3Prefix         string `env:"S3_PREFIX"`

	DeliveryWorkers   int           `env:"DELIVERY_WORKERS"    envDefault:"2"`
	DeliveryQueueSize int           `env:"DELIVERY_QUEUE_SIZE" envDefault:"64"`
	DeliveryTimeout   time.Duration `env:"DELIVERY_TIMEOUT"    envDefault:"30s"`

	// Optional: seeds the first account on an empty database.
	BootstrapEmail    string `env:"BOOTSTRAP_EMAIL"`
	BootstrapPassword string `env:"BOOTSTRAP_PASSWORD"`
	BootstrapName     string `env:"BOOTSTRAP_NAME" envDefault:"Admin"`

	RateLimitStrictRequests   int           `env:"RATELIMIT_STRICT_REQUESTS"   envDefault:"5"`
	RateLimitStrictWindow     time.Duration `env:"RATELIMIT_STRICT_WINDOW"     envDefault:"1m"`
	RateLimitModerateRequests int           `env:"RATELIMIT_MODERATE_REQUESTS" envDefault:"20"`
	RateLimitModerateWindow   time.Duration `env:"RATELIMIT_MODERATE_WINDOW"   envDefault:"1m"`

	Env                  string        `env:"ENV"                   envDefault:"dev"`  // dev, staging, prod
	LogLevel             string        `env:"LOG_LEVEL"             envDefault:"info"` // debug, info, warn, error
	LogFormat            string        `env:"LOG_FORMAT"            envDefault:"json"` // json, text
	Port                 int           `env:"PORT"                  envDefault:"8080"`
	ShutdownGracePeriod  time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`
	HousekeepingInterval time.Duration `env:"HOUSEKEEPING_INTERVAL" envDefault:"1h"`
}

// LoadConfig reads an optional .env file, then the process environment.
func LoadConfig() (Config, error) {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()
	return parseConfig(env.Options{})
}

func parseConfig(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every inconsistent setting at once.
func (c Config) Validate() error {
	var errs []error

	if c.Issuer == "" {
		errs = append(errs, errors.New("AUTH_ISSUER must not be empty"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}
	for name, d := range map[string]time.Duration{
		"AUTH_ACCESS_TTL":         c.AccessTTL,
		"AUTH_REFRESH_TTL":        c.RefreshTTL,
		"AUTH_RESET_PASSWORD_TTL": c.ResetPasswordTTL,
		"AUTH_VERIFY_EMAIL_TTL":   c.VerifyEmailTTL,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}

	switch c.TokenStore {
	case TokenStoreSQLite:
	case TokenStoreRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("AUTH_REDIS_URL is required when AUTH_TOKEN_STORE=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown AUTH_TOKEN_STORE %q", c.TokenStore))
	}

	switch c.MailDriver {
	case MailDriverDev:
	case MailDriverPostmark:
		if c.PostmarkServerToken == "" || c.MailFrom == "" {
			errs = append(errs, errors.New("POSTMARK_SERVER_TOKEN and MAIL_FROM are required when MAIL_DRIVER=postmark"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown MAIL_DRIVER %q", c.MailDriver))
	}

	switch c.AssetDriver {
	case AssetDriverNone:
	case AssetDriverLocal:
		if c.AssetBaseURL == "" {
			errs = append(errs, errors.New("ASSET_BASE_URL is required when ASSET_DRIVER=local"))
		}
	case AssetDriverS3:
		if c.S3Bucket == "" || c.S3Region == "" {
			errs = append(errs, errors.New("S3_BUCKET and S3_REGION are required when ASSET_DRIVER=s3"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown ASSET_DRIVER %q", c.AssetDriver))
	}

	if (c.BootstrapEmail == "") != (c.BootstrapPassword == "") {
		errs = append(errs, errors.New("BOOTSTRAP_EMAIL and BOOTSTRAP_PASSWORD must be set together"))
	}

	return errors.Join(errs...)
}
