package dto

import (
	"encoding/json"

	"github.com/xtrace/xtrace/internal/domain"
)

// DailyMetricsItem is one day of the usage rollup
type DailyMetricsItem struct {
	Date              string          `json:"date"`
	CountTraces       int64           `json:"countTraces"`
	CountObservations int64           `json:"countObservations"`
	TotalCost         float64         `json:"totalCost"`
	Usage             json.RawMessage `json:"usage"`
}

// NewDailyMetricsItem renders a rollup row; the day serializes as a bare date.
func NewDailyMetricsItem(row domain.DailyMetricsRow) DailyMetricsItem {
	usage := row.Usage
	if len(usage) == 0 {
		usage = json.RawMessage("[]")
	}
	return DailyMetricsItem{
		Date:              row.Day.Format("2006-01-02"),
		CountTraces:       row.CountTraces,
		CountObservations: row.CountObservations,
		TotalCost:         row.TotalCost,
		Usage:             usage,
	}
}
