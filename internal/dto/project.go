package dto

import (
	"encoding/json"
	"time"
)

// Project is the synthetic project record served for SDK auth checks
type Project struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	CreatedAt string          `json:"createdAt"`
	UpdatedAt string          `json:"updatedAt"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
}

// ProjectsResponse lists the configured projects
type ProjectsResponse struct {
	Data []Project `json:"data"`
}

// NewProjectsResponse builds the single-project listing for the default
// project. SDK auth checks only require data to be non-empty.
func NewProjectsResponse(projectID string, now time.Time) ProjectsResponse {
	ts := now.Format(time.RFC3339)
	return ProjectsResponse{
		Data: []Project{{
			ID:        projectID,
			Name:      projectID,
			CreatedAt: ts,
			UpdatedAt: ts,
			Metadata:  json.RawMessage("{}"),
		}},
	}
}
