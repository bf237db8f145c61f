package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrSnakeDoc/inkpad/internal/auth"
	"github.com/MrSnakeDoc/inkpad/internal/config"
	"github.com/MrSnakeDoc/inkpad/internal/dashboard"
	"github.com/MrSnakeDoc/inkpad/internal/domain"
	"github.com/MrSnakeDoc/inkpad/internal/httpserver"
	"github.com/MrSnakeDoc/inkpad/internal/httpserver/deps"
	"github.com/MrSnakeDoc/inkpad/internal/index"
	"github.com/MrSnakeDoc/inkpad/internal/logger"
	"github.com/MrSnakeDoc/inkpad/internal/redis"
	"github.com/MrSnakeDoc/inkpad/internal/sources/fixtures"
	redisstore "github.com/MrSnakeDoc/inkpad/internal/store/redis"
	"github.com/MrSnakeDoc/inkpad/internal/store/sqlite"
	"github.com/MrSnakeDoc/inkpad/internal/utils"
	"github.com/MrSnakeDoc/inkpad/internal/version"
)

// datastore is what a driver must provide to back the app.
type datastore interface {
	domain.Store
	domain.Seeder
}

type App struct {
	cfg    *config.Config
	logger logger.Logger
	server *httpserver.Server
	store  datastore
}

func New() *App {
	cfg := config.Load()
	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)
	ctx := context.Background()

	store, err := openStore(ctx, cfg, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to open %s store: %v", cfg.StoreDriver, err)
		os.Exit(1)
	}
	loggerClient.Info("store initialized", logger.String("driver", cfg.StoreDriver))

	hasher := domain.NewBcryptHasher(cfg.BcryptCost)
	if cfg.SeedFile != "" {
		if err := seed(ctx, cfg.SeedFile, hasher, store, loggerClient); err != nil {
			loggerClient.Errorf("Failed to seed store from %s: %v", cfg.SeedFile, err)
			utils.MustClose(store, "store", loggerClient)
			os.Exit(1)
		}
	}

	resolver := domain.NewResolver(store, store, store, store)
	credentials := domain.NewCredentialService(store, hasher)

	// Dependencies passed to routes.
	d := deps.Deps{
		Logger:               loggerClient,
		StartTime:            time.Now(),
		Build:                version.Current(),
		TimeNow:              time.Now,
		AllowedHosts:         cfg.AllowedHosts,
		AllowedCIDRS:         cfg.AllowedCIDRS,
		TrustProxy:           cfg.TrustProxy,
		Store:                store,
		StoreDriver:          cfg.StoreDriver,
		Dashboard:            dashboard.New(store, resolver, credentials, loggerClient),
		Verifier:             auth.NewVerifier([]byte(cfg.SessionSecret), cfg.SessionIssuer),
		LoginURL:             cfg.LoginURL,
		PasswordBurst:        cfg.PasswordBurst,
		PasswordRefillPerMin: cfg.PasswordRefill,
	}

	return &App{
		cfg:    cfg,
		logger: loggerClient,
		server: httpserver.New(cfg, loggerClient, d),
		store:  store,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting inkpad %s on %s", version.Current(), a.cfg.ListenPort)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		utils.MustClose(a.store, "store", a.logger)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	utils.MustClose(a.store, "store", a.logger)
	a.logger.Info("✅ inkpad stopped cleanly")
	_ = a.logger.Sync()
	return nil
}

// Token mints an identity token for identityID so the dashboard can be used
// locally without the login service.
func Token(identityID string) (string, error) {
	cfg := config.Load()
	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)
	ctx := context.Background()

	store, err := openStore(ctx, cfg, loggerClient)
	if err != nil {
		return "", fmt.Errorf("open %s store: %w", cfg.StoreDriver, err)
	}
	defer utils.MustClose(store, "store", loggerClient)

	if cfg.SeedFile != "" {
		if err := seed(ctx, cfg.SeedFile, domain.NewBcryptHasher(cfg.BcryptCost), store, loggerClient); err != nil {
			return "", err
		}
	}

	return issueToken(ctx, store, auth.NewVerifier([]byte(cfg.SessionSecret), cfg.SessionIssuer), identityID, cfg.TokenTTL)
}

func issueToken(ctx context.Context, identities domain.IdentityStore, v *auth.Verifier, identityID string, ttl time.Duration) (string, error) {
	identity, err := identities.GetIdentity(ctx, identityID)
	if err != nil {
		return "", fmt.Errorf("look up identity: %w", err)
	}
	return v.Issue(auth.Actor{
		IdentityID: identity.ID,
		Handle:     identity.Handle,
		Picture:    identity.Picture,
	}, ttl)
}

func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (datastore, error) {
	switch cfg.StoreDriver {
	case config.DriverRedis:
		// Fail fast if Redis stays unavailable.
		client, err := redis.New(ctx, redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			RedisDB:        cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, log)
		if err != nil {
			return nil, err
		}
		return redisstore.NewStore(client), nil
	case config.DriverSQLite:
		log.Info("opening sqlite database", logger.String("path", cfg.SQLitePath))
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.DriverMemory:
		log.Warn("memory store selected, data is lost on restart")
		return index.NewMemoryIndex(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func seed(ctx context.Context, path string, hasher domain.Hasher, store domain.Seeder, log logger.Logger) error {
	loaded, err := fixtures.NewLoader(path).Load()
	if err != nil {
		return err
	}
	ds, err := fixtures.NewMapper(hasher).Map(loaded)
	if err != nil {
		return fmt.Errorf("invalid fixtures: %w", err)
	}
	if err := fixtures.Apply(ctx, store, ds); err != nil {
		return err
	}
	log.Info("store seeded from fixtures",
		logger.String("file", path),
		logger.Int("identities", len(ds.Identities)),
		logger.Int("profiles", len(ds.Profiles)),
		logger.Int("posts", len(ds.Posts)),
		logger.Int("comments", len(ds.Comments)))
	return nil
}
