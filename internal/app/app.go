package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	apigrpc "github.com/Dhoini/publishing-platform/internal/api/grpc"
	"github.com/Dhoini/publishing-platform/internal/api/rest"
	"github.com/Dhoini/publishing-platform/internal/api/rest/handlers"
	"github.com/Dhoini/publishing-platform/internal/auth"
	"github.com/Dhoini/publishing-platform/internal/clock"
	"github.com/Dhoini/publishing-platform/internal/config"
	"github.com/Dhoini/publishing-platform/internal/domain"
	"github.com/Dhoini/publishing-platform/internal/integration/stripe"
	"github.com/Dhoini/publishing-platform/internal/kafka"
	"github.com/Dhoini/publishing-platform/internal/metrics"
	authmw "github.com/Dhoini/publishing-platform/internal/middleware"
	"github.com/Dhoini/publishing-platform/internal/repository/cache"
	"github.com/Dhoini/publishing-platform/internal/repository/postgres"
	"github.com/Dhoini/publishing-platform/internal/service"
	"github.com/Dhoini/publishing-platform/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// Publisher издатель событий, которого нужно закрыть при остановке
type Publisher interface {
	service.EventPublisher
	Close() error
}

// App представляет собой контейнер для всех компонентов приложения
type App struct {
	cfg       *config.Config
	log       *logger.Logger
	pool      *pgxpool.Pool
	store     *postgres.Store
	redis     *redis.Client
	publisher Publisher
	runtime   *metrics.RuntimeMetrics
	http      *rest.Server
	grpc      *apigrpc.Server
}

// OpenStore подключается к PostgreSQL и при необходимости применяет миграции
func OpenStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (*pgxpool.Pool, *postgres.Store, error) {
	if cfg.Database.MigrateOnStart {
		if err := postgres.Migrate(cfg.Database.URL, log); err != nil {
			return nil, nil, err
		}
	}
	pool, err := postgres.NewConnection(ctx, cfg.Database.URL, postgres.PoolConfig{
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	}, log)
	if err != nil {
		return nil, nil, err
	}
	return pool, postgres.NewStore(pool, log), nil
}

// OpenRedis возвращает nil без ошибки, если Redis не настроен или недоступен:
// кеш и лимитер необязательны.
func OpenRedis(ctx context.Context, cfg *config.Config, log *logger.Logger) *redis.Client {
	if cfg.Redis.Addr == "" {
		log.Info("Redis is not configured, cache and rate limiting disabled")
		return nil
	}
	client, err := cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, log)
	if err != nil {
		log.Warnw("Redis unavailable, continuing without cache", "error", err)
		return nil
	}
	return client
}

// PlanCatalog каталог тарифов из настроек цен
func PlanCatalog(cfg *config.Config) domain.PlanCatalog {
	p := cfg.Pricing
	return domain.NewPlanCatalog(p.MediumPrice, p.PremiumPrice, p.BoostPrice, p.MediumPriceRef, p.PremiumPriceRef)
}

// New собирает HTTP и gRPC серверы со всеми зависимостями
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (_ *App, err error) {
	if err := cfg.ValidateServer(); err != nil {
		return nil, err
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	a := &App{cfg: cfg, log: log}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	a.pool, a.store, err = OpenStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	platformMetrics := metrics.NewPlatformMetrics(registry)
	a.runtime = metrics.NewRuntimeMetrics(registry, a.pool, log)
	a.runtime.StartRecording(15 * time.Second)

	a.publisher, err = newKafkaPublisher(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	gateway, err := stripe.NewGateway(stripe.Config{
		APIKey:           cfg.Stripe.APIKey,
		WebhookSecret:    cfg.Stripe.WebhookSecret,
		BaseURL:          cfg.Stripe.BaseURL,
		MaxRetryElapsed:  cfg.Stripe.MaxRetryElapsed,
		BreakerFailures:  cfg.Stripe.BreakerFailures,
		BreakerOpenDelay: cfg.Stripe.BreakerOpenDelay,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("init stripe gateway: %w", err)
	}

	clk := clock.New()
	catalog := PlanCatalog(cfg)

	var (
		invalidator service.SubscriptionCacheInvalidator = cache.NopInvalidator{}
		current     service.CurrentSubscriptionReader
		limiter     authmw.Limiter
	)
	if a.redis = OpenRedis(ctx, cfg, log); a.redis != nil {
		subsCache := cache.NewSubscriptionCache(a.redis, cfg.Redis.CacheTTL, log)
		invalidator = subsCache
		current = cache.NewCurrentSubscriptionReader(a.store.Subscriptions(), subsCache, clk, log)
		limiter = cache.NewRateLimiter(a.redis, cfg.Auth.RateLimit, cfg.Auth.RateLimitWindow)
	}

	validator := &auth.DefaultTokenValidator{Secret: []byte(cfg.Auth.JWTSecret), Issuer: cfg.Auth.Issuer, Clock: clk}
	issuer := auth.NewJWTIssuer(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL, clk)

	guard := service.NewPublishingGuard(a.store, platformMetrics, log)
	authors := service.NewAuthorService(a.store, auth.NewBcryptHasher(bcrypt.DefaultCost), issuer, clk, log)
	content := service.NewContentService(a.store, guard, clk, log)
	listing := service.NewListingService(a.store, clk)
	boosts := service.NewBoostService(a.store, gateway, catalog, platformMetrics, log)
	tags := service.NewTagService(a.store, clk, log)
	subs := service.NewSubscriptionService(service.SubscriptionDeps{
		Store:     a.store,
		Gateway:   gateway,
		Catalog:   catalog,
		Publisher: a.publisher,
		Cache:     invalidator,
		Current:   current,
		Metrics:   platformMetrics,
		Clock:     clk,
		Log:       log,
	})
	webhooks := service.NewWebhookReconciler(service.WebhookDeps{
		Store:     a.store,
		Gateway:   gateway,
		Publisher: a.publisher,
		Cache:     invalidator,
		Metrics:   platformMetrics,
		Clock:     clk,
		Log:       log,
	})

	router := rest.SetupRouter(rest.RouterDeps{
		Auth:          handlers.NewAuthHandler(authors, log),
		Articles:      handlers.NewArticleHandler(content, listing, boosts, log),
		Subscriptions: handlers.NewSubscriptionHandler(subs, log),
		Tags:          handlers.NewTagHandler(tags, log),
		Webhooks:      handlers.NewWebhookHandler(webhooks, log),
		JWT:           authmw.NewJWTMiddleware(log, validator, a.store.Authors()),
		Limiter:       limiter,
		Store:         a.store,
		Registry:      registry,
		Log:           log,
	})

	a.http = rest.NewServer(router, cfg, log)
	a.grpc = apigrpc.NewServer(cfg.GRPC.Port, a.store, validator, log)
	return a, nil
}

// newKafkaPublisher kafka-go издатель или NopPublisher, если брокеры не заданы
func newKafkaPublisher(ctx context.Context, cfg *config.Config, log *logger.Logger) (Publisher, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		log.Info("Kafka brokers are not configured, domain events are not published")
		return kafka.NopPublisher{}, nil
	}
	if cfg.Kafka.EnsureTopics {
		if err := kafka.EnsureKafkaTopics(ctx, cfg.Kafka.Brokers, log); err != nil {
			return nil, fmt.Errorf("ensure kafka topics: %w", err)
		}
	}
	producer, err := kafka.NewKafkaProducer(cfg.Kafka.Brokers, log)
	if err != nil {
		return nil, fmt.Errorf("init kafka producer: %w", err)
	}
	return producer, nil
}

// Run запускает серверы и блокируется до отмены ctx или ошибки сервера
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)
	go func() { errCh <- a.http.Start() }()
	go func() { errCh <- a.grpc.Start() }()
	a.grpc.WatchStore(15 * time.Second)

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("Shutdown signal received")
	case runErr = <-errCh:
		a.log.Errorw("Server stopped unexpectedly", "error", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("http shutdown: %w", err))
	}
	a.grpc.Stop()
	a.log.Info("Servers stopped gracefully")
	return runErr
}

// Close освобождает соединения в обратном порядке
func (a *App) Close() {
	if a.runtime != nil {
		a.runtime.Stop()
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Errorw("Error closing event publisher", "error", err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Errorw("Error closing Redis client", "error", err)
		}
	}
	if a.store != nil {
		_ = a.store.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
}
