package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Trace is a stored trace row
type Trace struct {
	ID          uuid.UUID       `json:"id"`
	Timestamp   time.Time       `json:"timestamp"`
	Name        *string         `json:"name"`
	Input       json.RawMessage `json:"input"`
	Output      json.RawMessage `json:"output"`
	SessionID   *string         `json:"sessionId"`
	Release     *string         `json:"release"`
	Version     *string         `json:"version"`
	UserID      *string         `json:"userId"`
	Metadata    json.RawMessage `json:"metadata"`
	Tags        []string        `json:"tags"`
	Public      bool            `json:"public"`
	Environment string          `json:"environment"`
	Latency     *float64        `json:"latency"`
	TotalCost   *float64        `json:"totalCost"`
	ExternalID  *string         `json:"externalId"`
	Bookmarked  bool            `json:"bookmarked"`
	ProjectID   string          `json:"projectId"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// TraceListRow is one row of the trace listing: the trace columns plus the
// aggregated ids of its observations.
type TraceListRow struct {
	ID           uuid.UUID
	ProjectID    string
	Timestamp    time.Time
	Name         *string
	Input        json.RawMessage
	Output       json.RawMessage
	SessionID    *string
	Release      *string
	Version      *string
	UserID       *string
	Metadata     json.RawMessage
	Tags         []string
	Public       bool
	Environment  string
	Latency      *float64
	TotalCost    *float64
	Observations []uuid.UUID
}
