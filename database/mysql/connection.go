// Package mysql connects the workbench to MySQL through go-sql-driver/mysql.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/gaborage/dbworkbench/config"
	"github.com/gaborage/dbworkbench/database/types"
	"github.com/gaborage/dbworkbench/logger"
)

const (
	defaultPort   = 3306
	pingTimeout   = 10 * time.Second
	healthTimeout = 5 * time.Second
)

// Connection implements types.Interface for MySQL
type Connection struct {
	db     *sql.DB
	config *config.DatabaseConfig
	logger logger.Logger
}

var _ types.Interface = (*Connection)(nil)

var (
	openMySQLDB = func(cfg *mysql.Config) (*sql.DB, error) {
		connector, err := mysql.NewConnector(cfg)
		if err != nil {
			return nil, err
		}
		return sql.OpenDB(connector), nil
	}
	pingMySQLDB = func(ctx context.Context, db *sql.DB) error {
		return db.PingContext(ctx)
	}
)

// driverConfig parses cfg.ConnectionString when set and otherwise builds a
// TCP configuration from the individual fields. Time columns are scanned as time.Time.
func driverConfig(cfg *config.DatabaseConfig) (*mysql.Config, error) {
	if cfg.ConnectionString != "" {
		return mysql.ParseDSN(cfg.ConnectionString)
	}

	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}

	mc := mysql.NewConfig()
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(port))
	mc.User = cfg.Username
	mc.Passwd = cfg.Password
	mc.DBName = cfg.Database
	mc.ParseTime = true
	if cfg.SSLMode != "" && cfg.SSLMode != "disable" {
		mc.TLSConfig = "true"
	}
	return mc, nil
}

// NewConnection opens a pooled MySQL connection and verifies it with a ping.
func NewConnection(cfg *config.DatabaseConfig, log logger.Logger) (*Connection, error) {
	mc, err := driverConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse MySQL config: %w", err)
	}

	db, err := openMySQLDB(mc)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}
	configurePool(db, &cfg.Pool)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := pingMySQLDB(ctx, db); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("Failed to close MySQL database connection after ping failure")
		}
		return nil, fmt.Errorf("failed to ping MySQL database: %w", err)
	}

	log.Info().
		Str("addr", mc.Addr).
		Str("database", mc.DBName).
		Msg("Connected to MySQL database")

	return &Connection{db: db, config: cfg, logger: log}, nil
}

func configurePool(db *sql.DB, pool *config.PoolConfig) {
	if pool.MaxOpen > 0 {
		db.SetMaxOpenConns(pool.MaxOpen)
	}
	if pool.MaxIdle > 0 {
		db.SetMaxIdleConns(pool.MaxIdle)
	}
	if pool.Lifetime > 0 {
		db.SetConnMaxLifetime(pool.Lifetime)
	}
	if pool.IdleTime > 0 {
		db.SetConnMaxIdleTime(pool.IdleTime)
	}
}

// Query executes a query that returns rows
func (c *Connection) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.db.QueryContext(ctx, query, args...)
}

// Health checks database connectivity
func (c *Connection) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	return c.db.PingContext(ctx)
}

// Stats returns database connection statistics
func (c *Connection) Stats() map[string]any {
	stats := c.db.Stats()
	return map[string]any{
		"max_open_connections": stats.MaxOpenConnections,
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"wait_count":           stats.WaitCount,
		"wait_duration":        stats.WaitDuration.String(),
	}
}

// Dialect reports MySQL.
func (c *Connection) Dialect() types.Dialect {
	return types.MySQL
}

// Close closes the database connection
func (c *Connection) Close() error {
	c.logger.Info().Msg("Closing MySQL database connection")
	return c.db.Close()
}
