package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"animeshop-be/internal/api"
	"animeshop-be/internal/auth"
	"animeshop-be/internal/cache"
	"animeshop-be/internal/cart"
	"animeshop-be/internal/config"
	"animeshop-be/internal/db"
	"animeshop-be/internal/logger"
	"animeshop-be/internal/metrics"
	"animeshop-be/internal/middleware"
	"animeshop-be/internal/order"
	"animeshop-be/internal/product"
	"animeshop-be/internal/storage"
	"animeshop-be/internal/transport"
	"animeshop-be/internal/user"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var (
	initDBFunc      = db.InitDB
	startServerFunc = func(srv *http.Server) error { return srv.ListenAndServe() }
)

func main() {
	if err := run(); err != nil {
		logger.L().Fatal("server stopped", zap.Error(err))
	}
}

func run() error {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	if cfg.IsProduction() {
		transport.HideErrorDetails()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database := initDBFunc(cfg)
	defer db.Close(database)

	router, cleanup, err := newServer(ctx, cfg, database)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.L().Info("HTTP server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.AppEnv))
		errCh <- startServerFunc(srv)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.L().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newServer wires repositories, services and the router. The returned func
// releases the limiter and cache connections.
func newServer(ctx context.Context, cfg *config.Config, database *mongo.Database) (http.Handler, func(), error) {
	productRepo := product.NewRepository(database)
	userRepo := user.NewRepository(database)
	orderRepo := order.NewRepository(database)

	indexCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := productRepo.EnsureIndexes(indexCtx); err != nil {
		return nil, nil, fmt.Errorf("product indexes: %w", err)
	}
	if err := userRepo.EnsureIndexes(indexCtx); err != nil {
		return nil, nil, fmt.Errorf("user indexes: %w", err)
	}
	if err := orderRepo.EnsureIndexes(indexCtx); err != nil {
		return nil, nil, fmt.Errorf("order indexes: %w", err)
	}

	catalogCache, closeCache := newCache(ctx, cfg)

	images, err := storage.New(ctx, cfg)
	if err != nil {
		closeCache()
		return nil, nil, fmt.Errorf("image storage: %w", err)
	}

	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
	userSvc := user.NewService(userRepo, issuer)

	if _, err := userSvc.EnsureAdmin(ctx, user.RegisterInput{
		FirstName: cfg.AdminFirstName,
		LastName:  cfg.AdminLastName,
		Email:     cfg.AdminEmail,
		Password:  cfg.AdminPassword,
	}); err != nil {
		logger.L().Warn("admin bootstrap failed", zap.String("email", cfg.AdminEmail), zap.Error(err))
	}

	guard := auth.NewGuard(issuer)
	handler := api.NewHandler(api.Deps{
		Products:       product.NewService(productRepo, catalogCache, cfg.CacheTTL),
		Users:          userSvc,
		Carts:          cart.NewService(orderRepo, productRepo),
		Orders:         order.NewService(orderRepo, userRepo),
		Images:         images,
		Guard:          guard,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})

	limiter := middleware.NewLimiter(cfg.InternalSecretKey, guard)
	router := setupRouter(cfg, limiter, handler)

	cleanup := func() {
		limiter.Close()
		closeCache()
	}
	return router, cleanup, nil
}

// newCache returns the Redis catalog cache when REDIS_ADDR is set and
// reachable, and a no-op cache otherwise.
func newCache(ctx context.Context, cfg *config.Config) (cache.Cache, func()) {
	if cfg.RedisAddr == "" {
		return cache.NewNoop(), func() {}
	}

	rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		logger.L().Warn("redis unavailable, catalog cache disabled", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		return cache.NewNoop(), func() {}
	}

	logger.L().Info("redis connected", zap.String("addr", cfg.RedisAddr))
	return cache.NewRedis(rdb, "animeshop:"), func() { _ = rdb.Close() }
}

func setupRouter(cfg *config.Config, limiter *middleware.Limiter, h *api.Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(logger.RequestIDMiddleware)
	r.Use(middleware.LoggingMiddleware)
	r.Use(middleware.Recovery)
	r.Use(metrics.Middleware)
	r.Use(limiter.Middleware)
	r.Use(middleware.CORS(middleware.DefaultCORSOptions(cfg.CORSOrigins)))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	if cfg.StorageDriver == config.StorageLocal || cfg.StorageDriver == "" {
		prefix := "/" + strings.Trim(cfg.UploadURLPrefix, "/")
		r.Handle(prefix+"/*", http.StripPrefix(prefix, http.FileServer(http.Dir(cfg.UploadDir))))
	}

	h.Routes(r)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		transport.Message(w, http.StatusNotFound, "Not Found - "+r.URL.Path)
	})
	return r
}
