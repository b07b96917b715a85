package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/devmon-lab/chreos/pkg/service/cache"
)

// Redis holds Redis cache configuration
type Redis struct {
	Addr     string
	Password string
	DB       int
}

// Flags returns CLI flags for Redis configuration
func (r *Redis) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "redis-addr",
			Usage:       "Redis server address (host:port)",
			Category:    "Redis",
			Sources:     cli.EnvVars("CHREOS_REDIS_ADDR"),
			Destination: &r.Addr,
		},
		&cli.StringFlag{
			Name:        "redis-password",
			Usage:       "Redis password",
			Category:    "Redis",
			Sources:     cli.EnvVars("CHREOS_REDIS_PASSWORD"),
			Destination: &r.Password,
		},
		&cli.IntFlag{
			Name:        "redis-db",
			Usage:       "Redis database number",
			Category:    "Redis",
			Value:       0,
			Sources:     cli.EnvVars("CHREOS_REDIS_DB"),
			Destination: &r.DB,
		},
	}
}

// Configure creates and returns a cache store. Without an address the
// in-process memory store is used, so cached responses stay local to
// one instance.
func (r *Redis) Configure(ctx context.Context) (cache.Store, error) {
	logger := ctxlog.From(ctx)

	if !r.IsConfigured() {
		logger.Info("Using in-process analytics cache instead of redis")
		return cache.NewMemory(), nil
	}

	store, err := cache.NewRedis(ctx, r.Addr, r.Password, r.DB)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to init redis cache",
			goerr.V("addr", r.Addr),
			goerr.V("db", r.DB),
		)
	}

	return store, nil
}

// IsConfigured checks if Redis is properly configured
func (r *Redis) IsConfigured() bool {
	return r.Addr != ""
}

// LogValue returns structured log value
func (r Redis) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("addr", r.Addr),
		slog.Bool("has_password", r.Password != ""),
		slog.Int("db", r.DB),
	)
}
