package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"cart-service/internal/api"
	"cart-service/internal/catalog"
	"cart-service/internal/config"
	"cart-service/internal/coupon"
	"cart-service/internal/currency"
	"cart-service/internal/events"
	"cart-service/internal/pricing"
	"cart-service/internal/repository"
	"cart-service/internal/session"
	"cart-service/internal/sharding"
	"cart-service/migrations"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

func connectDB(cfg config.DBConfig) (*sql.DB, error) {
	var db *sql.DB
	var err error
	for i := 0; i < 10; i++ {
		db, err = sql.Open("mysql", cfg.DSN())
		if err == nil {
			err = db.Ping()
			if err == nil {
				logger.Info().Msgf("Connected to DB %s", cfg.Name)
				return db, nil
			}
		}
		logger.Warn().Err(err).Msgf("Retry %d: failed to connect to DB %s (%s:%s)", i+1, cfg.Name, cfg.Host, cfg.Port)
		time.Sleep(3 * time.Second)
	}
	return nil, fmt.Errorf("failed to connect to DB %s at %s:%s after retries: %v", cfg.Name, cfg.Host, cfg.Port, err)
}

func newKVStore(cfg *config.Config) (repository.KVStore, error) {
	switch cfg.StateBackend {
	case "mysql":
		dbs := make([]*sql.DB, 0, len(cfg.DBShards))
		for _, shard := range cfg.DBShards {
			db, err := connectDB(shard)
			if err != nil {
				return nil, err
			}
			dbs = append(dbs, db)
		}
		if err := migrations.AutoMigrateKV(3, dbs...); err != nil {
			return nil, fmt.Errorf("failed to migrate cart_kv table: %w", err)
		}
		return repository.NewMySQLStore(dbs, sharding.NewShardRouter(len(dbs))), nil
	case "memory":
		return repository.NewMemoryStore(), nil
	default:
		rdb := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
		})
		return repository.NewRedisStore(rdb), nil
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}

	table, err := currency.DefaultTable().Rebase(cfg.ReferenceCurrency)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid currency table")
	}

	store, err := newKVStore(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize state store")
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.EventsEnabled {
		publisher = events.NewKafkaPublisher(config.NewKafkaWriter(cfg))
	}

	engine := pricing.NewEngine(table, pricing.Delivery{Threshold: cfg.DeliveryThreshold, Charge: cfg.DeliveryCharge})
	rule := coupon.Rule{Code: cfg.CouponCode, Percent: cfg.CouponPercent}
	sessions := session.NewManager(engine, rule, repository.NewSessionRepository(store), publisher)
	go sessions.StartEviction(context.Background(), cfg.SessionIdleTTL)

	if !table.Has(cfg.CatalogCurrency) {
		logger.Fatal().Msgf("Catalog currency %s is not supported", cfg.CatalogCurrency)
	}
	products := catalog.NewClient(cfg.CatalogURL, cfg.CatalogCurrency, cfg.CatalogSeed)
	cartHandler := api.NewCartHandler(sessions, table, products)

	e := echo.New()

	limiterConfig := middleware.RateLimiterConfig{
		Skipper: middleware.DefaultSkipper,
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(cfg.RateLimit),
				Burst:     cfg.RateBurst,
				ExpiresIn: 3 * time.Minute,
			}),
		IdentifierExtractor: func(context echo.Context) (string, error) {
			return context.RealIP(), nil
		},
		ErrorHandler: func(context echo.Context, err error) error {
			return context.JSON(429, map[string]string{"error": "rate limit exceeded"})
		},
		DenyHandler: func(context echo.Context, identifier string, err error) error {
			return context.JSON(429, map[string]string{"error": "rate limit exceeded"})
		},
	}

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.RateLimiterWithConfig(limiterConfig))

	var guards []echo.MiddlewareFunc
	if cfg.JWTSecret != "" {
		guards = append(guards, api.JWTMiddleware(cfg.JWTSecret))
	}
	api.RegisterRoutes(e, cartHandler, guards...)

	e.GET("/cart/health", func(c echo.Context) error {
		return c.JSON(200, map[string]interface{}{
			"status":   "ok",
			"service":  "cart-service",
			"backend":  cfg.StateBackend,
			"sessions": sessions.Len(),
			"time":     time.Now().Format(time.RFC3339),
		})
	})

	logger.Info().Msgf("Starting cart-service on :%s with %s state backend", cfg.Port, cfg.StateBackend)
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
