package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DBConfig is the connection settings of one MySQL shard.
type DBConfig struct {
	Host string
	Port string
	User string
	Pass string
	Name string
}

func (c DBConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s", c.User, c.Pass, c.Host, c.Port, c.Name)
}

// Config is read once from the environment at startup.
type Config struct {
	Env  string
	Port string

	StateBackend string // "redis", "mysql" or "memory"
	RedisAddr    string
	DBShards     []DBConfig

	KafkaBrokers  []string
	EventsTopic   string
	EventsEnabled bool

	JWTSecret       string
	CatalogURL      string
	CatalogCurrency string // currency of catalog prices that carry none
	CatalogSeed     int64  // seeds the catalog's new/hot/discount markers

	SessionIdleTTL time.Duration

	ReferenceCurrency string
	CouponCode        string
	CouponPercent     decimal.Decimal
	DeliveryThreshold decimal.Decimal
	DeliveryCharge    decimal.Decimal

	RateLimit float64
	RateBurst int
}

// Load reads the configuration from the environment, falling back to defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Env:               getEnv("ENV", "development"),
		Port:              getEnv("PORT", "8084"),
		StateBackend:      getEnv("STATE_BACKEND", "redis"),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		KafkaBrokers:      getKafkaBrokerURLs(),
		EventsTopic:       getEnv("CART_EVENTS_TOPIC", "cart-topic"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		CatalogURL:        getEnv("CATALOG_URL", "https://fakestoreapi.com"),
		CatalogCurrency:   getEnv("CATALOG_CURRENCY", "USD"),
		ReferenceCurrency: getEnv("REFERENCE_CURRENCY", "USD"),
		CouponCode:        getEnv("COUPON_CODE", "INDIAISGREAT"),
	}

	var err error
	if cfg.EventsEnabled, err = strconv.ParseBool(getEnv("CART_EVENTS_ENABLED", "false")); err != nil {
		return nil, fmt.Errorf("CART_EVENTS_ENABLED: %w", err)
	}
	if cfg.CouponPercent, err = getDecimal("COUPON_PERCENT", "30"); err != nil {
		return nil, err
	}
	if cfg.CouponPercent.LessThanOrEqual(decimal.Zero) || cfg.CouponPercent.GreaterThan(decimal.NewFromInt(100)) {
		return nil, fmt.Errorf("COUPON_PERCENT must be in (0, 100], got %s", cfg.CouponPercent)
	}
	if cfg.DeliveryThreshold, err = getDecimal("DELIVERY_THRESHOLD", "120"); err != nil {
		return nil, err
	}
	if cfg.DeliveryCharge, err = getDecimal("DELIVERY_CHARGE", "10"); err != nil {
		return nil, err
	}
	if cfg.CatalogSeed, err = strconv.ParseInt(getEnv("CATALOG_SEED", "1"), 10, 64); err != nil {
		return nil, fmt.Errorf("CATALOG_SEED: %w", err)
	}
	if cfg.SessionIdleTTL, err = time.ParseDuration(getEnv("SESSION_IDLE_TTL", "30m")); err != nil {
		return nil, fmt.Errorf("SESSION_IDLE_TTL: %w", err)
	}
	if cfg.SessionIdleTTL <= 0 {
		return nil, fmt.Errorf("SESSION_IDLE_TTL must be positive, got %s", cfg.SessionIdleTTL)
	}
	if cfg.RateLimit, err = strconv.ParseFloat(getEnv("RATE_LIMIT", "5"), 64); err != nil {
		return nil, fmt.Errorf("RATE_LIMIT: %w", err)
	}
	if cfg.RateBurst, err = strconv.Atoi(getEnv("RATE_BURST", "10")); err != nil {
		return nil, fmt.Errorf("RATE_BURST: %w", err)
	}

	shards, err := strconv.Atoi(getEnv("DB_SHARDS", "1"))
	if err != nil || shards < 1 {
		return nil, fmt.Errorf("DB_SHARDS must be a positive integer")
	}
	for i := 1; i <= shards; i++ {
		prefix := fmt.Sprintf("DB%d_", i)
		cfg.DBShards = append(cfg.DBShards, DBConfig{
			Host: getEnv(prefix+"HOST", "127.0.0.1"),
			Port: getEnv(prefix+"PORT", "3306"),
			User: getEnv(prefix+"USER", "root"),
			Pass: os.Getenv(prefix + "PASS"),
			Name: getEnv(prefix+"NAME", "cart-db"),
		})
	}

	switch cfg.StateBackend {
	case "redis", "mysql", "memory":
	default:
		return nil, fmt.Errorf("unknown STATE_BACKEND %q", cfg.StateBackend)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDecimal(key, fallback string) (decimal.Decimal, error) {
	v, err := decimal.NewFromString(getEnv(key, fallback))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func getKafkaBrokerURLs() []string {
	brokers := os.Getenv("KAFKA_BROKERS")
	if brokers == "" {
		brokers = "localhost:9092,localhost:9093,localhost:9094" // Default brokers
	}
	return strings.Split(brokers, ",")
}
