package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hamarabooks/internal/blog"
	"hamarabooks/internal/cart"
	"hamarabooks/internal/catalog"
	"hamarabooks/internal/config"
	"hamarabooks/internal/contact"
	"hamarabooks/internal/httpx"
	"hamarabooks/internal/identity"
	"hamarabooks/internal/logging"
	"hamarabooks/internal/platform/firebase"
	"hamarabooks/internal/profile"
	"hamarabooks/internal/statestore"
	"hamarabooks/internal/wishlist"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := logging.MustNew(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var checks []func(context.Context) error

	var pool *pgxpool.Pool
	if cfg.DatabaseDSN != "" {
		var err error
		if pool, err = openDB(ctx, cfg.DatabaseDSN); err != nil {
			return err
		}
		defer pool.Close()
		logger.Info("database connection OK", zap.String("dsn", config.RedactDSN(cfg.DatabaseDSN)))
		checks = append(checks, pool.Ping)
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			return fmt.Errorf("cannot ping redis at %s: %w", cfg.RedisAddr, err)
		}
		logger.Info("redis connection OK", zap.String("addr", cfg.RedisAddr))
		checks = append(checks, func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}

	var repo catalog.Repository
	if pool != nil {
		repo = catalog.NewPostgresRepository(pool)
	} else {
		seed, err := catalog.NewSeedRepository()
		if err != nil {
			return err
		}
		repo = seed
	}
	books, err := catalog.Load(ctx, repo)
	if err != nil {
		return err
	}
	if books.Len() == 0 {
		logger.Warn("catalog is empty; run the seed command")
	}
	logger.Info("catalog loaded", zap.Int("books", books.Len()))

	posts, err := blog.Load()
	if err != nil {
		return err
	}

	orders, err := profile.LoadOrders()
	if err != nil {
		return err
	}

	var contactRepo contact.Repository = contact.NewMemoryRepository()
	if pool != nil {
		contactRepo = contact.NewPostgresRepository(pool)
	}

	cartSvc := cart.NewService(newStore[cart.Cart](rdb, "cart", cfg.StateTTL), books)
	wishlistSvc := wishlist.NewService(newStore[wishlist.Wishlist](rdb, "wishlist", cfg.StateTTL), books)

	fbClient := firebase.NewClient(cfg.Firebase.APIKey)
	provider := identity.NewFirebaseProvider(identity.FirebaseConfig{
		APIKey:      cfg.Firebase.APIKey,
		AuthDomain:  cfg.Firebase.AuthDomain,
		ProjectID:   cfg.Firebase.ProjectID,
		CallbackURL: cfg.Firebase.CallbackURL,
	}, fbClient)
	if cfg.Firebase.APIKey == "" {
		logger.Warn("FIREBASE_API_KEY is not set; sign-in will fail")
	}
	identitySvc := identity.NewService(provider, newStore[identity.State](rdb, "identity", cfg.StateTTL), logger)

	profileSvc := profile.NewService(identitySvc, cartSvc, wishlistSvc,
		newStore[profile.Details](rdb, "profile", cfg.StateTTL), orders)

	authLimiter := httpx.NewRateLimiter(cfg.AuthRateLimitRPS, cfg.AuthRateBurst)

	router := newRouter(handlers{
		catalog:  catalog.NewHTTPHandler(books),
		cart:     cart.NewHTTPHandler(cartSvc, logger),
		wishlist: wishlist.NewHTTPHandler(wishlistSvc, cartSvc, logger),
		identity: identity.NewHTTPHandler(identitySvc, cfg.Firebase.CallbackURL, logger),
		blog:     blog.NewHTTPHandler(posts),
		contact:  contact.NewHTTPHandler(contact.NewService(contactRepo, logger), logger),
		profile:  profile.NewHTTPHandler(profileSvc, logger),
	}, routerConfig{
		clientSecret:   cfg.ClientTokenSecret,
		clientTTL:      cfg.StateTTL,
		secureCookie:   cfg.EnableHSTS,
		allowedOrigins: cfg.AllowedOrigins,
		enableHSTS:     cfg.EnableHSTS,
		catalogLatency: cfg.CatalogLatency,
		authLimiter:    authLimiter,
		trustProxy:     cfg.TrustProxy,
		ready: func(ctx context.Context) error {
			for _, check := range checks {
				if err := check(ctx); err != nil {
					return err
				}
			}
			return nil
		},
	}, logger)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           otelhttp.NewHandler(router, "hamarabooks-api"),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("server exited")
	return nil
}

// newStore keeps per-client state in Redis when configured, otherwise in memory.
func newStore[T any](rdb *redis.Client, prefix string, ttl time.Duration) statestore.Store[T] {
	if rdb != nil {
		return statestore.NewRedisStore[T](rdb, prefix, ttl)
	}
	return statestore.NewMemoryStore[T](ttl)
}

func openDB(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot create db pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("cannot ping database (%s): %w", config.RedactDSN(dsn), err)
	}
	return pool, nil
}

