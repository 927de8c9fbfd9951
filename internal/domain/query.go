package domain

import (
	"strings"
	"time"

	apperrors "github.com/xtrace/xtrace/internal/pkg/errors"
)

// TraceListFilter narrows the trace listing. Nil and empty values mean the
// dimension is not filtered.
type TraceListFilter struct {
	UserID        *string
	Name          *string
	SessionID     *string
	FromTimestamp *time.Time
	ToTimestamp   *time.Time
	Tags          []string
	Version       *string
	Release       *string
	Environment   []string
}

// DailyMetricsFilter narrows the daily rollup. From and To are always set by
// the handler (To defaults to now, From to thirty days before To).
type DailyMetricsFilter struct {
	TraceName *string
	UserID    *string
	Tags      []string
	From      time.Time
	To        time.Time
}

// OrderBy is a validated sort directive for the trace listing
type OrderBy struct {
	Column string
	Desc   bool
}

// orderColumns whitelists sortable columns and their default direction.
type orderColumn struct {
	column      string
	defaultDesc bool
}

var orderColumns = map[string]orderColumn{
	"id":         {"t.id", true},
	"timestamp":  {"t.timestamp", true},
	"name":       {"t.name", false},
	"userId":     {"t.user_id", false},
	"user_id":    {"t.user_id", false},
	"release":    {"t.release", false},
	"version":    {"t.version", false},
	"public":     {"t.public", true},
	"bookmarked": {"t.bookmarked", true},
	"sessionId":  {"t.session_id", false},
	"session_id": {"t.session_id", false},
	"latency":    {"t.latency", true},
	"totalCost":  {"t.total_cost", true},
	"total_cost": {"t.total_cost", true},
}

// ParseOrderBy validates an orderBy query value of the form "column.dir".
// An empty value sorts by timestamp descending. An unknown direction falls
// back to the column default; an unknown column is a bad request.
func ParseOrderBy(s string) (OrderBy, error) {
	if s == "" {
		s = "timestamp.desc"
	}
	s = strings.TrimSpace(s)

	col, dir, found := strings.Cut(s, ".")
	if !found {
		dir = "desc"
	}

	spec, ok := orderColumns[col]
	if !ok {
		return OrderBy{}, apperrors.BadRequest("invalid order_by")
	}

	desc := spec.defaultDesc
	switch dir {
	case "desc":
		desc = true
	case "asc":
		desc = false
	}

	return OrderBy{Column: spec.column, Desc: desc}, nil
}

// TraceFields is the field mask of the trace listing
type TraceFields struct {
	IO           bool
	Scores       bool
	Observations bool
	Metrics      bool
}

// ParseTraceFields interprets the fields query parameter. A nil value selects
// everything; otherwise each group must be named explicitly.
func ParseTraceFields(fields *string) TraceFields {
	if fields == nil {
		return TraceFields{IO: true, Scores: true, Observations: true, Metrics: true}
	}

	set := make(map[string]struct{})
	for _, f := range strings.Split(*fields, ",") {
		if f = strings.TrimSpace(f); f != "" {
			set[f] = struct{}{}
		}
	}

	has := func(name string) bool {
		_, ok := set[name]
		return ok
	}
	return TraceFields{
		IO:           has("io"),
		Scores:       has("scores"),
		Observations: has("observations"),
		Metrics:      has("metrics"),
	}
}
