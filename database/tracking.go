package database

import (
	"github.com/gaborage/dbworkbench/database/internal/tracking"
)

// TrackedConnection wraps an Interface with query logging, spans and metrics.
type TrackedConnection = tracking.Connection

// NewTrackedConnection wraps conn with query tracking. Use it for connections
// opened outside NewConnection.
var NewTrackedConnection = tracking.NewConnection

// DefaultSlowQueryThreshold applies when query.slowthreshold is not set.
const DefaultSlowQueryThreshold = tracking.DefaultSlowQueryThreshold
