package tracking

import (
	"context"
	"database/sql"
	"time"

	"github.com/gaborage/dbworkbench/config"
	"github.com/gaborage/dbworkbench/database/types"
	"github.com/gaborage/dbworkbench/logger"
)

// Connection wraps a types.Interface and tracks every query sent through it.
// Health, Stats, Dialect and Close are delegated untouched.
type Connection struct {
	conn     types.Interface
	logger   logger.Logger
	settings Settings
}

var _ types.Interface = (*Connection)(nil)

// NewConnection wraps conn with query tracking configured from cfg.
func NewConnection(conn types.Interface, log logger.Logger, cfg *config.QueryConfig) *Connection {
	return &Connection{
		conn:     conn,
		logger:   log,
		settings: NewSettings(cfg),
	}
}

// Query executes a query with performance tracking
func (tc *Connection) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := tc.conn.Query(ctx, query, args...)

	TrackDBOperation(ctx, &Context{
		Logger:   tc.logger,
		Dialect:  tc.conn.Dialect().String(),
		Settings: tc.settings,
	}, query, args, start, err)
	return rows, err
}

func (tc *Connection) Health(ctx context.Context) error {
	return tc.conn.Health(ctx)
}

func (tc *Connection) Stats() map[string]any {
	return tc.conn.Stats()
}

func (tc *Connection) Dialect() types.Dialect {
	return tc.conn.Dialect()
}

func (tc *Connection) Close() error {
	return tc.conn.Close()
}
