package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/smallbiznis/orderdesk/internal/config"
	"github.com/smallbiznis/orderdesk/internal/observability/logger"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormprom "gorm.io/plugin/prometheus"
)

// Module provides the blocking (gorm) and suspending (pgx) engine handles.
var Module = fx.Module("db",
	fx.Provide(FromAppConfig),
	fx.Provide(OpenGorm),
	fx.Provide(NewPgxPool),
)

// OpenGorm opens the pooled database/sql engine used by the blocking path.
// The process must not serve traffic on a dead connection, so the pool is
// pinged during fx startup and any failure aborts boot.
func OpenGorm(lc fx.Lifecycle, cfg Config, rt *config.RuntimeHolder, log *zap.Logger) (*gorm.DB, error) {
	dialector, err := Dialect(cfg)
	if err != nil {
		return nil, err
	}

	loggerCfg := logger.DefaultGormLoggerConfig()
	if rt != nil {
		loggerCfg.SlowThreshold = time.Duration(rt.Get().SlowQueryMillis) * time.Millisecond
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.NewGormLogger(loggerCfg),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Type, err)
	}

	if err := conn.Use(otelgorm.NewPlugin(otelgorm.WithDBName(cfg.Name))); err != nil {
		return nil, fmt.Errorf("register otelgorm: %w", err)
	}
	if err := conn.Use(gormprom.New(gormprom.Config{
		DBName:          cfg.Name,
		RefreshInterval: 15,
	})); err != nil {
		return nil, fmt.Errorf("register gorm prometheus: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	if cfg.MaxIdleConn > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConn)
	}
	if cfg.MaxOpenConn > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConn)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
	}
	if cfg.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Second)
	}

	if lc != nil {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
				defer cancel()
				if err := sqlDB.PingContext(pingCtx); err != nil {
					return fmt.Errorf("ping %s: %w", cfg.Type, err)
				}
				log.Info("blocking engine connected",
					zap.String("type", cfg.Type),
					zap.String("database", cfg.Name),
				)
				return nil
			},
			OnStop: func(ctx context.Context) error {
				_ = ctx
				return sqlDB.Close()
			},
		})
	}

	return conn, nil
}

// NewPgxPool opens the native pgx pool used by the suspending path. The pool
// is only available for postgres; other engines return a nil pool and the
// suspending store surfaces that at request time.
func NewPgxPool(lc fx.Lifecycle, cfg Config, log *zap.Logger) (*pgxpool.Pool, error) {
	if !cfg.IsPostgres() {
		log.Warn("suspending engine disabled: requires postgres",
			zap.String("type", cfg.Type),
		)
		return nil, nil
	}

	poolCfg, err := pgxpool.ParseConfig(PostgresDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("parse pgx config: %w", err)
	}
	if cfg.MaxOpenConn > 0 {
		poolCfg.MaxConns = int32(cfg.MaxOpenConn)
	}
	if cfg.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = time.Duration(cfg.ConnMaxLifetime) * time.Second
	}
	if cfg.ConnMaxIdleTime > 0 {
		poolCfg.MaxConnIdleTime = time.Duration(cfg.ConnMaxIdleTime) * time.Second
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open pgx pool: %w", err)
	}

	if lc != nil {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
				defer cancel()
				if err := pool.Ping(pingCtx); err != nil {
					return fmt.Errorf("ping pgx pool: %w", err)
				}
				log.Info("suspending engine connected",
					zap.String("database", cfg.Name),
				)
				return nil
			},
			OnStop: func(ctx context.Context) error {
				_ = ctx
				pool.Close()
				return nil
			},
		})
	}

	return pool, nil
}
