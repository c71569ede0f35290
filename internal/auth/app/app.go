package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/authcore/internal/auth/http"
	"github.com/aussiebroadwan/authcore/internal/auth/service"
	"github.com/aussiebroadwan/authcore/internal/auth/store"
	"github.com/aussiebroadwan/authcore/internal/auth/store/drivers/redisstore"
	"github.com/aussiebroadwan/authcore/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/authcore/pkg/assetx"
	"github.com/aussiebroadwan/authcore/pkg/cryptox"
	"github.com/aussiebroadwan/authcore/pkg/httpx"
	"github.com/aussiebroadwan/authcore/pkg/jwtx"
	"github.com/aussiebroadwan/authcore/pkg/mailx"
	"github.com/aussiebroadwan/authcore/pkg/qrx"
	"github.com/aussiebroadwan/authcore/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the auth service application with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db          *sqlite.Store
	redisTokens *redisstore.Tokens // nil unless AUTH_TOKEN_STORE=redis
	tokens      store.Tokens
	keyManager  *jwtx.KeyManager
	hasher      *cryptox.Argon2Hasher
	sender      mailx.Sender
	assets      assetx.Storage
	queue       *service.DeliveryQueue

	// Services
	tokenService        *service.TokenService
	authService         *service.AuthService
	mfaService          *service.MFAService
	bootstrapService    *service.BootstrapService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "authcore",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	pepper, err := cryptox.LoadOrCreatePepper(cfg.PepperFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load pepper: %w", err)
	}
	app.hasher = cryptox.NewArgon2Hasher(pepper)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	ctx := context.Background()
	if err := app.initTokenStore(ctx); err != nil {
		app.closeStores()
		return nil, err
	}

	keyManager, err := InitAuthKeys(cfg, app.logger)
	if err != nil {
		app.closeStores()
		return nil, fmt.Errorf("failed to initialize JWT keys: %w", err)
	}
	app.keyManager = keyManager

	if err := app.initDelivery(ctx); err != nil {
		app.closeStores()
		return nil, err
	}

	app.initServices()

	if err := app.bootstrap(ctx); err != nil {
		app.closeStores()
		return nil, err
	}

	app.initHTTP()

	return app, nil
}

// Handler exposes the routed HTTP handler, e.g. for httptest servers.
func (app *Application) Handler() http.Handler { return app.router }

// Start launches the background workers without the HTTP listener.
func (app *Application) Start() {
	app.queue.Start()
	app.housekeepingService.Start()
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.Start()

	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = app.Shutdown()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		// Perform graceful shutdown
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown stops accepting requests, then drains background work before
// closing the stores the work depends on.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.Stop()

	app.logger.Info("auth service stopped")
	return nil
}

// Stop drains the background workers and releases every store and
// transport. It is the counterpart of Start.
func (app *Application) Stop() {
	app.housekeepingService.Stop()
	app.queue.Stop()

	if err := app.sender.Close(); err != nil {
		app.logger.Error("error closing mail sender", "error", err)
	}
	app.closeStores()
}

func (app *Application) closeStores() {
	if app.redisTokens != nil {
		if err := app.redisTokens.Close(); err != nil {
			app.logger.Error("error closing redis", "error", err)
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database", "error", err)
		}
	}
}

// initDatabase initializes the database and applies migrations
func (app *Application) initDatabase() error {
	db, err := sqlite.NewStore(app.cfg.DatabaseFile)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		app.db = nil
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "file", app.cfg.DatabaseFile)
	return nil
}

func (app *Application) initTokenStore(ctx context.Context) error {
	if app.cfg.TokenStore != TokenStoreRedis {
		app.tokens = app.db.Tokens()
		return nil
	}

	rctx, cancel := context.WithTimeout(ctx, app.cfg.StoreTimeout)
	defer cancel()

	tokens, err := redisstore.Open(rctx, app.cfg.RedisURL, app.cfg.RedisPrefix)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	app.redisTokens = tokens
	app.tokens = tokens

	app.logger.Info("token store: redis", "prefix", app.cfg.RedisPrefix)
	return nil
}

// initDelivery builds the mail transport, the asset storage and the queue
// that runs both off the request path.
func (app *Application) initDelivery(ctx context.Context) error {
	switch app.cfg.MailDriver {
	case MailDriverPostmark:
		sender, err := mailx.NewPostmarkSender(mailx.PostmarkConfig{
			ServerToken:  app.cfg.PostmarkServerToken,
			AccountToken: app.cfg.PostmarkAccountToken,
			From:         app.cfg.MailFrom,
			ReplyTo:      app.cfg.MailReplyTo,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize mail sender: %w", err)
		}
		app.sender = sender
	default:
		app.sender = mailx.NewDevSender(app.cfg.MailDevDir)
		app.logger.Warn("dev mail sender in use, emails are written to disk", "dir", app.cfg.MailDevDir)
	}

	// Unreachable mail is not fatal; deliveries fail and get logged.
	vctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := app.sender.Verify(vctx); err != nil {
		app.logger.Warn("mail sender verification failed", "driver", app.cfg.MailDriver, "error", err)
	} else {
		app.logger.Info("mail sender ready", "driver", app.cfg.MailDriver)
	}

	switch app.cfg.AssetDriver {
	case AssetDriverLocal:
		assets, err := assetx.NewLocalStorage(app.cfg.AssetLocalDir, app.cfg.AssetBaseURL)
		if err != nil {
			return fmt.Errorf("failed to initialize asset storage: %w", err)
		}
		app.assets = assets
	case AssetDriverS3:
		assets, err := assetx.NewS3Storage(ctx, assetx.S3Config{
			Bucket:         app.cfg.S3Bucket,
			Region:         app.cfg.S3Region,
			AccessKeyID:    app.cfg.S3AccessKeyID,
			SecretKey:      app.cfg.S3SecretKey,
			Endpoint:       app.cfg.S3Endpoint,
			BaseURL:        app.cfg.AssetBaseURL,
			ForcePathStyle: app.cfg.S3ForcePathStyle,
			Prefix:         app.cfg.S3Prefix,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize asset storage: %w", err)
		}
		app.assets = assets
	}

	app.queue = service.NewDeliveryQueue(
		app.logger,
		app.cfg.DeliveryWorkers,
		app.cfg.DeliveryQueueSize,
		app.cfg.DeliveryTimeout,
	)
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	mailer := &service.Mailer{
		Queue:      app.queue,
		Sender:     app.sender,
		Assets:     app.assets,
		AppBaseURL: app.cfg.AppBaseURL,
		Logger:     app.logger,
	}

	app.tokenService = &service.TokenService{
		KeyManager:       app.keyManager,
		Tokens:           app.tokens,
		Issuer:           app.cfg.Issuer,
		AccessTTL:        app.cfg.AccessTTL,
		RefreshTTL:       app.cfg.RefreshTTL,
		ResetPasswordTTL: app.cfg.ResetPasswordTTL,
		VerifyEmailTTL:   app.cfg.VerifyEmailTTL,
		StoreTimeout:     app.cfg.StoreTimeout,
	}

	app.authService = &service.AuthService{
		Users:        app.db.Users(),
		Tokens:       app.tokenService,
		Hasher:       app.hasher,
		Mailer:       mailer,
		StoreTimeout: app.cfg.StoreTimeout,
	}

	app.mfaService = &service.MFAService{
		Users:        app.db.Users(),
		QR:           qrx.Renderer{},
		Mailer:       mailer,
		Issuer:       app.cfg.TOTPIssuer,
		Window:       app.cfg.TOTPWindow,
		StoreTimeout: app.cfg.StoreTimeout,
	}

	app.bootstrapService = &service.BootstrapService{
		Users:  app.db.Users(),
		Hasher: app.hasher,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.tokens,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// bootstrap seeds the configured first account on an empty database.
func (app *Application) bootstrap(ctx context.Context) error {
	if app.cfg.BootstrapEmail == "" {
		return nil
	}

	ctx = slogx.WithContext(ctx, app.logger)
	_, err := app.bootstrapService.Bootstrap(ctx, app.cfg.BootstrapEmail, app.cfg.BootstrapPassword, app.cfg.BootstrapName)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, service.ErrBootstrapAlready):
		app.logger.Info("bootstrap skipped, users already exist")
		return nil
	default:
		return fmt.Errorf("failed to bootstrap: %w", err)
	}
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	checks := map[string]httpapi.Pinger{"database": app.db}
	if app.redisTokens != nil {
		checks["token_store"] = app.redisTokens
	}

	router := httpapi.NewRouter(app.keyManager.KeySet, BuildVersion, app.logger, checks)

	// Wire services to router
	router.TokenService = app.tokenService
	router.AuthService = app.authService
	router.MFAService = app.mfaService
	router.StrictLimit = httpx.RateLimitConfig{
		RequestsPerWindow: app.cfg.RateLimitStrictRequests,
		Window:            app.cfg.RateLimitStrictWindow,
		Burst:             app.cfg.RateLimitStrictRequests,
	}
	router.ModerateLimit = httpx.RateLimitConfig{
		RequestsPerWindow: app.cfg.RateLimitModerateRequests,
		Window:            app.cfg.RateLimitModerateWindow,
		Burst:             app.cfg.RateLimitModerateRequests,
	}
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
