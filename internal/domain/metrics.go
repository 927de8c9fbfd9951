package domain

import (
	"encoding/json"
	"time"
)

// DailyMetricsRow is one day of the usage rollup. Usage holds the per-model
// aggregation as produced by the database, ordered by total cost descending.
type DailyMetricsRow struct {
	Day               time.Time
	CountTraces       int64
	CountObservations int64
	TotalCost         float64
	Usage             json.RawMessage
}
