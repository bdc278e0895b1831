package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	apigrpc "github.com/Dhoini/publishing-platform/internal/api/grpc"
	"github.com/Dhoini/publishing-platform/internal/app"
	"github.com/Dhoini/publishing-platform/internal/config"
	"github.com/Dhoini/publishing-platform/pkg/logger"
	"github.com/spf13/cobra"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func main() {
	var configDir string

	root := &cobra.Command{
		Use:           "server",
		Short:         "Publishing platform HTTP and gRPC server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := load(configDir)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log.Infow("Publishing platform starting up...", "env", cfg.App.Env)
			a, err := app.New(ctx, cfg, log)
			if err != nil {
				log.Errorw("Failed to initialize application", "error", err)
				return err
			}
			defer a.Close()

			return a.Run(ctx)
		},
	}
	root.PersistentFlags().StringVar(&configDir, "config-dir", ".", "directory with .env and config.yaml")

	root.AddCommand(&cobra.Command{
		Use:   "healthcheck",
		Short: "Exit 0 if the local gRPC health endpoint reports SERVING",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := load(configDir)
			if err != nil {
				return err
			}

			client, err := apigrpc.NewClient(apigrpc.DefaultClientOptions("localhost:"+cfg.GRPC.Port), log)
			if err != nil {
				return err
			}
			defer client.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 3*time.Second)
			defer cancel()

			st, err := client.Check(ctx, apigrpc.ServiceName)
			if err != nil {
				return err
			}
			if st != healthpb.HealthCheckResponse_SERVING {
				return fmt.Errorf("service status %s", st)
			}
			fmt.Fprintln(cmd.OutOrStdout(), st.String())
			return nil
		},
	})

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func load(dir string) (*config.Config, *logger.Logger, error) {
	cfg, err := config.LoadConfig(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	level, err := logger.ParseLevel(cfg.Log.Level)
	log := logger.New(level)
	if err != nil {
		log.Warnw("Unknown log level, using info", "level", cfg.Log.Level)
	}
	return cfg, log, nil
}
