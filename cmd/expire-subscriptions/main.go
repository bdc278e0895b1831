package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Dhoini/publishing-platform/internal/app"
	"github.com/Dhoini/publishing-platform/internal/clock"
	"github.com/Dhoini/publishing-platform/internal/config"
	"github.com/Dhoini/publishing-platform/internal/kafka"
	"github.com/Dhoini/publishing-platform/internal/metrics"
	"github.com/Dhoini/publishing-platform/internal/repository/cache"
	"github.com/Dhoini/publishing-platform/internal/service"
	"github.com/Dhoini/publishing-platform/pkg/logger"
	"github.com/spf13/cobra"
)

type sweeper interface {
	ExpireLapsedSubscriptions(ctx context.Context, asOf time.Time) (int64, error)
}

func main() {
	var (
		configDir string
		asOfFlag  string
	)

	cmd := &cobra.Command{
		Use:          "expire-subscriptions",
		Short:        "Mark subscriptions whose valid_to has passed as expired",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			asOf, err := parseAsOf(asOfFlag, clock.New().Now())
			if err != nil {
				return err
			}

			cfg, err := config.LoadConfig(configDir)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			level, _ := logger.ParseLevel(cfg.Log.Level)
			log := logger.New(level)
			defer func() { _ = log.Sync() }()

			ctx := cmd.Context()
			pool, store, err := app.OpenStore(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer pool.Close()
			defer store.Close()

			var publisher app.Publisher = kafka.NopPublisher{}
			if len(cfg.Kafka.Brokers) > 0 {
				publisher, err = kafka.NewSaramaProducer(kafka.NewConfig(cfg.Kafka.Brokers), log)
				if err != nil {
					return fmt.Errorf("init kafka producer: %w", err)
				}
			}
			defer publisher.Close()

			var invalidator service.SubscriptionCacheInvalidator = cache.NopInvalidator{}
			if client := app.OpenRedis(ctx, cfg, log); client != nil {
				defer client.Close()
				invalidator = cache.NewSubscriptionCache(client, cfg.Redis.CacheTTL, log)
			}

			svc := service.NewExpiryService(store, publisher, invalidator, metrics.Nop{}, log)
			return runSweep(ctx, svc, asOf, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&configDir, "config-dir", ".", "directory with .env and config.yaml")
	cmd.Flags().StringVar(&asOfFlag, "as-of", "", "RFC3339 instant to expire against (default: now)")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func parseAsOf(v string, now time.Time) (time.Time, error) {
	if v == "" {
		return now.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --as-of %q: %w", v, err)
	}
	return t.UTC(), nil
}

func runSweep(ctx context.Context, s sweeper, asOf time.Time, out io.Writer) error {
	n, err := s.ExpireLapsedSubscriptions(ctx, asOf)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Marked %d subscriptions as expired\n", n)
	return nil
}
