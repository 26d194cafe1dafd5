// Package db 提供 GORM 初始化、连接池配置、事务助手与慢查询日志
package db

import (
	"context"
	"fmt"
	"time"

	pkgLogger "github.com/venturecrest/angelnet/pkg/logger"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config 数据库配置
type Config struct {
	Driver             string
	DSN                string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetime    int
	LogEnabled         bool
	SlowQueryThreshold int
}

// DB 数据库实例包装
type DB struct {
	*gorm.DB
}

// Init 建立连接并配置连接池
func Init(cfg Config) (*DB, error) {
	dialector, err := openDialector(cfg)
	if err != nil {
		return nil, err
	}

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		Logger: &queryLogger{
			verbose:       cfg.LogEnabled,
			slowThreshold: time.Duration(cfg.SlowQueryThreshold) * time.Millisecond,
		},
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("unwrap sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	pkgLogger.Info(context.Background(), "Database connected", "driver", cfg.Driver)
	return &DB{DB: gormDB}, nil
}

func openDialector(cfg Config) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "mysql":
		return mysql.Open(cfg.DSN), nil
	case "sqlite":
		return sqlite.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

// Close 关闭底层连接池
func (d *DB) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// WithTx 在单个事务中执行 fn，出错回滚
func (d *DB) WithTx(ctx context.Context, fn func(*gorm.DB) error) error {
	return d.DB.WithContext(ctx).Transaction(fn)
}

// queryLogger 把 GORM 日志接到 pkg/logger，慢查询单独告警
type queryLogger struct {
	verbose       bool
	slowThreshold time.Duration
}

func (l *queryLogger) LogMode(logger.LogLevel) logger.Interface { return l }

func (l *queryLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.verbose {
		pkgLogger.Info(ctx, msg, "data", data)
	}
}

func (l *queryLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	pkgLogger.Warn(ctx, msg, "data", data)
}

func (l *queryLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	pkgLogger.Error(ctx, msg, "data", data)
}

func (l *queryLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	sqlStr, rows := fc()
	args := []interface{}{"duration", elapsed, "rows", rows, "sql", sqlStr}

	switch {
	case err != nil && err != gorm.ErrRecordNotFound:
		pkgLogger.Error(ctx, "SQL failed", append(args, "error", err)...)
	case l.slowThreshold > 0 && elapsed > l.slowThreshold:
		pkgLogger.Warn(ctx, "Slow query", args...)
	case l.verbose:
		pkgLogger.Debug(ctx, "SQL executed", args...)
	}
}
