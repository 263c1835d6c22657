package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"luxepos/internal/cache"
	"luxepos/internal/config"
	"luxepos/internal/httpapi"
	"luxepos/internal/logging"
	"luxepos/internal/market"
	"luxepos/internal/service"
	"luxepos/internal/session"
	"luxepos/internal/store"
	"luxepos/internal/store/memory"
	pgstore "luxepos/internal/store/postgres"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("luxepos stopped")
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "luxepos",
		Usage: "jewelry point-of-sale backend",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env-file",
				Value: ".env",
				Usage: "dotenv file read before LUXE_* variables",
			},
		},
		DefaultCommand: "serve",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API",
				Action: runServe,
			},
			{
				Name:  "migrate",
				Usage: "apply database migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "seed", Usage: "load the demo catalog into an empty database"},
				},
				Action: runMigrate,
			},
			{
				Name:      "hash-password",
				Usage:     "print a bcrypt hash for LUXE_CREDENTIALS",
				ArgsUsage: "<password>",
				Action:    runHashPassword,
			},
		},
	}
}

func runServe(c *cli.Context) error {
	cfg, err := config.Load(c.String("env-file"))
	if err != nil {
		return err
	}
	if err := validateSecurityConfig(cfg); err != nil {
		return errors.Wrap(err, "invalid security configuration")
	}

	log, logCloser, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})
	if err != nil {
		return errors.Wrap(err, "configure logging")
	}
	defer logCloser.Close()

	ctx, cancel := context.WithTimeout(c.Context, 10*time.Second)
	defer cancel()

	closers := make([]func() error, 0, 3)
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				log.WithError(err).Warn("close error")
			}
		}
	}()

	var repo store.Repository
	if cfg.DatabaseURL != "" {
		pg, err := openPostgres(ctx, cfg.DatabaseURL, true, log)
		if err != nil {
			return errors.Wrap(err, "postgres unavailable and LUXE_DATABASE_URL is set; refusing to start with in-memory fallback")
		}
		repo = pg
		closers = append(closers, pg.Close)
		log.Info("repository: postgres")
	} else {
		repo = memory.NewSeeded()
		log.Info("repository: in-memory")
	}

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			_ = redisClient.Close()
			if cfg.SessionBackend == "redis" {
				return errors.Wrap(err, "redis session backend unavailable")
			}
			log.WithError(err).Warn("redis unavailable, market cache disabled")
			redisClient = nil
		} else {
			closers = append(closers, redisClient.Close)
		}
	}

	sessions, err := openSessionStore(cfg, redisClient)
	if err != nil {
		return err
	}
	if closer, ok := sessions.(interface{ Close() error }); ok {
		closers = append(closers, closer.Close)
	}
	log.WithField("backend", cfg.SessionBackend).Info("session store ready")

	auth, err := newAuthenticator(cfg)
	if err != nil {
		return err
	}
	guard := session.NewGuard(auth, sessions, log)
	if err := guard.Restore(ctx); err != nil {
		log.WithError(err).Warn("could not restore session")
	}

	marketCache := cache.MarketCache(cache.NoopMarketCache{})
	if redisClient != nil {
		marketCache = cache.NewRedisMarketCache(redisClient)
		log.Info("market cache: redis")
	}
	feed := market.NewCachedFeed(market.NewStaticFeed(), marketCache, cfg.MarketCacheTTL, log)

	svc := service.New(repo, feed, log)
	tokens := httpapi.NewTokenIssuer(cfg.AuthSecret, cfg.AccessTokenTTL)
	api := httpapi.New(svc, guard, tokens, httpapi.Options{
		AllowedOrigin: cfg.AllowedOrigin,
		StaticDir:     cfg.StaticDir,
		Logger:        log,
	})

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.Address()).Info("luxepos listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
		close(serveErr)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case err := <-serveErr:
		if err != nil {
			return errors.Wrap(err, "server error")
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("shutdown error")
	}

	log.Info("server stopped")
	return nil
}

// openPostgres migrates the schema, connects and seeds an empty database.
func openPostgres(ctx context.Context, databaseURL string, seed bool, log logrus.FieldLogger) (*pgstore.Store, error) {
	version, err := pgstore.Migrate(databaseURL)
	if err != nil {
		return nil, err
	}
	log.WithField("version", version).Info("schema migrated")

	pg, err := pgstore.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if seed {
		seeded, err := pg.SeedIfEmpty(ctx)
		if err != nil {
			_ = pg.Close()
			return nil, err
		}
		if seeded {
			log.Info("loaded demo catalog")
		}
	}
	return pg, nil
}

func openSessionStore(cfg config.Config, redisClient *redis.Client) (session.Store, error) {
	switch cfg.SessionBackend {
	case "redis":
		if redisClient == nil {
			return nil, errors.New("redis session backend requires LUXE_REDIS_ADDR")
		}
		return session.NewRedisStore(redisClient, cfg.AccessTokenTTL), nil
	case "bolt":
		return session.OpenBoltStore(cfg.BoltPath)
	default:
		return session.NewMemoryStore(), nil
	}
}

func newAuthenticator(cfg config.Config) (session.Authenticator, error) {
	if cfg.AuthMode == "credentials" {
		return session.NewCredentialAuthenticator(cfg.Credentials)
	}
	return session.MockAuthenticator{}, nil
}

func runMigrate(c *cli.Context) error {
	cfg, err := config.Load(c.String("env-file"))
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return errors.New("LUXE_DATABASE_URL is required to migrate")
	}

	log, logCloser, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})
	if err != nil {
		return errors.Wrap(err, "configure logging")
	}
	defer logCloser.Close()

	pg, err := openPostgres(c.Context, cfg.DatabaseURL, c.Bool("seed"), log)
	if err != nil {
		return err
	}
	return pg.Close()
}

func runHashPassword(c *cli.Context) error {
	password := c.Args().First()
	if password == "" {
		return cli.Exit("usage: luxepos hash-password <password>", 2)
	}
	hash, err := session.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, hash)
	return err
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("LUXE_AUTH_SECRET must be set and at least 32 characters")
	}
	if cfg.AuthMode == "credentials" && len(nonEmpty(cfg.Credentials)) == 0 {
		return fmt.Errorf("LUXE_CREDENTIALS must list at least one email:bcrypt-hash pair in credentials mode")
	}
	return nil
}

func nonEmpty(values []string) []string {
	out := values[:0:0]
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
