package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// The database only stores try-on analytics: one insert per lifecycle event
// and the occasional stats query. A small pool is enough for both binaries.
const (
	analyticsMaxConns      = 4
	analyticsStmtTimeoutMS = "5000"
	dbConnectTimeout       = 10 * time.Second
)

// NewDBPool connects the analytics pool and verifies it with a ping. appName
// is reported to Postgres as application_name.
func NewDBPool(ctx context.Context, cfg *Config, appName string) (*pgxpool.Pool, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	poolCfg, err := analyticsPoolConfig(cfg.DatabaseURL, appName)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, dbConnectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

func analyticsPoolConfig(databaseURL, appName string) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	poolCfg.MaxConns = analyticsMaxConns
	poolCfg.MinConns = 0
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = time.Minute

	params := poolCfg.ConnConfig.RuntimeParams
	if appName != "" {
		params["application_name"] = appName
	}
	if _, ok := params["statement_timeout"]; !ok {
		params["statement_timeout"] = analyticsStmtTimeoutMS
	}

	return poolCfg, nil
}
