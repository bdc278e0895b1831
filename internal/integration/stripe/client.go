package stripe

import (
	"fmt"
	"time"

	"github.com/Dhoini/publishing-platform/pkg/logger"
	"github.com/sony/gobreaker/v2"
	stripego "github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
)

const serviceName = "stripe"

// Config конфигурация клиента Stripe
type Config struct {
	APIKey        string
	WebhookSecret string

	// BaseURL переопределяет адрес API (stripe-mock, тесты)
	BaseURL string

	MaxRetryElapsed  time.Duration
	BreakerFailures  uint32
	BreakerOpenDelay time.Duration
}

// Gateway реализует платежный шлюз поверх Stripe SDK.
// Вызовы API проходят через повторные попытки и автоматический выключатель.
type Gateway struct {
	api           *client.API
	webhookSecret string
	breaker       *gobreaker.CircuitBreaker[*stripego.PaymentIntent]
	maxElapsed    time.Duration
	log           *logger.Logger
}

// NewGateway создает шлюз Stripe
func NewGateway(cfg Config, log *logger.Logger) (*Gateway, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("stripe api key is not configured")
	}
	if cfg.WebhookSecret == "" {
		return nil, fmt.Errorf("stripe webhook secret is not configured")
	}
	if cfg.MaxRetryElapsed <= 0 {
		cfg.MaxRetryElapsed = 30 * time.Second
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerOpenDelay <= 0 {
		cfg.BreakerOpenDelay = 30 * time.Second
	}

	var backends *stripego.Backends
	if cfg.BaseURL != "" {
		backendCfg := &stripego.BackendConfig{
			URL:               stripego.String(cfg.BaseURL),
			MaxNetworkRetries: stripego.Int64(0),
			LeveledLogger:     &stripego.LeveledLogger{Level: stripego.LevelError},
		}
		backends = &stripego.Backends{
			API:     stripego.GetBackendWithConfig(stripego.APIBackend, backendCfg),
			Connect: stripego.GetBackendWithConfig(stripego.ConnectBackend, backendCfg),
			Uploads: stripego.GetBackendWithConfig(stripego.UploadsBackend, backendCfg),
		}
	}

	api := &client.API{}
	api.Init(cfg.APIKey, backends)

	g := &Gateway{
		api:           api,
		webhookSecret: cfg.WebhookSecret,
		maxElapsed:    cfg.MaxRetryElapsed,
		log:           log,
	}
	g.breaker = gobreaker.NewCircuitBreaker[*stripego.PaymentIntent](gobreaker.Settings{
		Name:    serviceName,
		Timeout: cfg.BreakerOpenDelay,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !isRetryableStripeError(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warnw("Stripe circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})
	return g, nil
}
