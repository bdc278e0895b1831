package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config представляет структуру конфигурации для приложения.
type Config struct {
	App struct {
		Name string `mapstructure:"name"`
		Env  string `mapstructure:"env"`
	} `mapstructure:"app"`
	Server struct {
		Port            string        `mapstructure:"port"`
		ReadTimeout     time.Duration `mapstructure:"read_timeout"`
		WriteTimeout    time.Duration `mapstructure:"write_timeout"`
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	} `mapstructure:"server"`
	Database struct {
		URL            string `mapstructure:"url"`
		MaxConns       int32  `mapstructure:"max_conns"`
		MinConns       int32  `mapstructure:"min_conns"`
		MigrateOnStart bool   `mapstructure:"migrate_on_start"`
	} `mapstructure:"database"`
	Redis struct {
		Addr     string        `mapstructure:"addr"`
		Password string        `mapstructure:"password"`
		DB       int           `mapstructure:"db"`
		CacheTTL time.Duration `mapstructure:"cache_ttl"`
	} `mapstructure:"redis"`
	Kafka struct {
		Brokers      []string `mapstructure:"brokers"`
		EnsureTopics bool     `mapstructure:"ensure_topics"`
	} `mapstructure:"kafka"`
	Stripe struct {
		APIKey           string        `mapstructure:"api_key"`
		WebhookSecret    string        `mapstructure:"webhook_secret"`
		BaseURL          string        `mapstructure:"base_url"`
		MaxRetryElapsed  time.Duration `mapstructure:"max_retry_elapsed"`
		BreakerFailures  uint32        `mapstructure:"breaker_failures"`
		BreakerOpenDelay time.Duration `mapstructure:"breaker_open_delay"`
	} `mapstructure:"stripe"`
	Pricing struct {
		MediumPrice     int64  `mapstructure:"medium_price"`
		PremiumPrice    int64  `mapstructure:"premium_price"`
		BoostPrice      int64  `mapstructure:"boost_price"`
		MediumPriceRef  string `mapstructure:"medium_price_ref"`
		PremiumPriceRef string `mapstructure:"premium_price_ref"`
	} `mapstructure:"pricing"`
	Auth struct {
		JWTSecret       string        `mapstructure:"jwt_secret"`
		Issuer          string        `mapstructure:"issuer"`
		TokenTTL        time.Duration `mapstructure:"token_ttl"`
		RateLimit       int           `mapstructure:"rate_limit"`
		RateLimitWindow time.Duration `mapstructure:"rate_limit_window"`
	} `mapstructure:"auth"`
	GRPC struct {
		Port string `mapstructure:"port"`
	} `mapstructure:"grpc"`
	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "publishing-platform")
	v.SetDefault("app.env", "development")

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.migrate_on_start", true)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.cache_ttl", 15*time.Minute)

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.ensure_topics", false)

	v.SetDefault("stripe.api_key", "")
	v.SetDefault("stripe.webhook_secret", "")
	v.SetDefault("stripe.base_url", "")
	v.SetDefault("stripe.max_retry_elapsed", 30*time.Second)
	v.SetDefault("stripe.breaker_failures", 5)
	v.SetDefault("stripe.breaker_open_delay", 30*time.Second)

	v.SetDefault("pricing.medium_price", 200)
	v.SetDefault("pricing.premium_price", 1000)
	v.SetDefault("pricing.boost_price", 500)
	v.SetDefault("pricing.medium_price_ref", "")
	v.SetDefault("pricing.premium_price_ref", "")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "publishing-platform")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("auth.rate_limit", 5)
	v.SetDefault("auth.rate_limit_window", time.Minute)

	v.SetDefault("grpc.port", "50051")
	v.SetDefault("log.level", "info")
}

// LoadConfig загружает конфигурацию: .env (если есть), затем config.yaml
// из dir (если есть), затем переменные окружения вида DATABASE_URL.
func LoadConfig(dir string) (*Config, error) {
	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load(dir + "/.env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Kafka.Brokers = splitList(cfg.Kafka.Brokers)

	return &cfg, nil
}

// splitList разбирает KAFKA_BROKERS="a:9092,b:9092"
func splitList(items []string) []string {
	var out []string
	for _, item := range items {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// ValidateServer проверяет параметры, без которых HTTP сервер не стартует
func (c *Config) ValidateServer() error {
	var missing []string
	if c.Database.URL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.Auth.JWTSecret == "" {
		missing = append(missing, "AUTH_JWT_SECRET")
	}
	if c.Stripe.APIKey == "" {
		missing = append(missing, "STRIPE_API_KEY")
	}
	if c.Stripe.WebhookSecret == "" {
		missing = append(missing, "STRIPE_WEBHOOK_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// IsProduction окружение production
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
