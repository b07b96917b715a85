package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/devmon-lab/chreos/pkg/cli/config"
	controller "github.com/devmon-lab/chreos/pkg/controller/http"
	"github.com/devmon-lab/chreos/pkg/service/insight"
	"github.com/devmon-lab/chreos/pkg/usecase"
)

func cmdServe() *cli.Command {
	var (
		serverCfg    config.Server
		firestoreCfg config.Firestore
		redisCfg     config.Redis
		slackCfg     config.Slack
		geminiCfg    config.Gemini
		areasCfg     config.Areas
	)

	flags := joinFlags(
		serverCfg.Flags(),
		firestoreCfg.Flags(),
		redisCfg.Flags(),
		slackCfg.Flags(),
		geminiCfg.Flags(),
		areasCfg.Flags(),
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Start HTTP server",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			logger.Info("Starting chreos server",
				slog.String("addr", serverCfg.Addr),
				slog.Any("firestore", firestoreCfg),
				slog.Any("redis", redisCfg),
				slog.Any("slack", slackCfg),
				slog.Any("gemini", geminiCfg),
				slog.Any("areas", areasCfg),
			)

			repo, err := firestoreCfg.Configure(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			cacheStore, err := redisCfg.Configure(ctx)
			if err != nil {
				return err
			}
			defer cacheStore.Close()

			notifier := slackCfg.ConfigureOptional(logger)

			llmClient := geminiCfg.ConfigureOptional(ctx, logger)
			if closer, ok := llmClient.(interface{ Close() error }); ok && closer != nil {
				defer closer.Close()
			}

			// Create use cases
			ingestUC := usecase.NewIngest(repo)

			var debtOpts []usecase.TechnicalDebtOption
			if notifier != nil {
				debtOpts = append(debtOpts, usecase.WithNotifier(notifier))
			}
			if llmClient != nil {
				debtOpts = append(debtOpts, usecase.WithInsight(insight.New(llmClient)))
			}
			debtUC := usecase.NewTechnicalDebt(repo, debtOpts...)

			analyticsUC := usecase.NewAnalytics(repo, usecase.WithCache(cacheStore))

			// Seed the product area catalog before serving requests so
			// key-module flags are in place for the first analysis
			catalog, err := areasCfg.LoadOptional(logger)
			if err != nil {
				return err
			}
			if catalog != nil {
				if err := ingestUC.SeedAreas(ctx, catalog); err != nil {
					return err
				}
			}

			server := controller.NewServer(ctx, serverCfg.Addr, ingestUC, debtUC, analyticsUC)

			// Start server in goroutine
			go func() {
				logger.Info("HTTP server starting", slog.String("addr", serverCfg.Addr))
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("HTTP server error", slog.Any("error", err))
				}
			}()

			// Wait for interrupt signal
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			select {
			case <-ctx.Done():
				logger.Info("Context cancelled, shutting down...")
			case sig := <-sigChan:
				logger.Info("Signal received, shutting down...", slog.Any("signal", sig))
			}

			// Graceful shutdown
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shutdown server gracefully")
			}

			logger.Info("Server shutdown complete")
			return nil
		},
	}
}
