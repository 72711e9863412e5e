package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/swapsphere/swapsphere-api/internal/config"
)

// Pool is the shared connection pool.
var Pool *pgxpool.Pool

// InitDB connects the pool and verifies the connection.
func InitDB(cfg *config.Config) error {
	var err error

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2

	Pool, err = pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err = Pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("connected to database", "host", cfg.DatabaseConfig.Host, "db", cfg.DatabaseConfig.Name)
	return nil
}

// CloseDB closes the pool.
func CloseDB() {
	if Pool != nil {
		Pool.Close()
	}
}

// GetContext returns a context with the standard query timeout.
func GetContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}
