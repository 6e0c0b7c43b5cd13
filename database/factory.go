package database

import (
	"github.com/gaborage/dbworkbench/config"
	"github.com/gaborage/dbworkbench/database/internal/tracking"
	"github.com/gaborage/dbworkbench/database/mysql"
	"github.com/gaborage/dbworkbench/database/postgresql"
	"github.com/gaborage/dbworkbench/database/types"
	"github.com/gaborage/dbworkbench/logger"
)

// NewConnection opens the database described by dbCfg and wraps it with query tracking
// configured from queryCfg. It returns a not-configured *config.ConfigError, matching
// config.ErrNotConfigured, when no database is configured.
func NewConnection(dbCfg *config.DatabaseConfig, queryCfg *config.QueryConfig, log logger.Logger) (Interface, error) {
	if dbCfg == nil || !config.IsDatabaseConfigured(dbCfg) {
		return nil, config.NewNotConfiguredError("database.type")
	}

	dialect, err := types.ParseDialect(dbCfg.Type)
	if err != nil {
		return nil, err
	}

	var conn Interface
	switch dialect {
	case types.PostgreSQL:
		conn, err = postgresql.NewConnection(dbCfg, log)
	case types.MySQL:
		conn, err = mysql.NewConnection(dbCfg, log)
	}
	if err != nil {
		return nil, err
	}

	return tracking.NewConnection(conn, log, queryCfg), nil
}
