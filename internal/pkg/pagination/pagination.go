// Package pagination implements offset pagination shared by the read APIs.
package pagination

const (
	defaultLimit = 50
	maxLimit     = 200
)

// Params are normalized page/limit values
type Params struct {
	Page  int64
	Limit int64
}

// Normalize clamps raw query values: page is at least 1, limit is clamped to
// [1, 200] with a default of 50. Zero means the parameter was absent.
func Normalize(page, limit int64) Params {
	if page < 1 {
		page = 1
	}
	if limit == 0 {
		limit = defaultLimit
	}
	if limit < 1 {
		limit = 1
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return Params{Page: page, Limit: limit}
}

// Offset returns the row offset for the current page
func (p Params) Offset() int64 {
	return (p.Page - 1) * p.Limit
}

// Meta is the pagination envelope attached to list responses
type Meta struct {
	Page       int64 `json:"page"`
	Limit      int64 `json:"limit"`
	TotalItems int64 `json:"totalItems"`
	TotalPages int64 `json:"totalPages"`
}

// NewMeta computes the meta block. TotalPages is zero for an empty result set.
func NewMeta(p Params, totalItems int64) Meta {
	var totalPages int64
	if totalItems > 0 {
		totalPages = (totalItems + p.Limit - 1) / p.Limit
	}
	return Meta{
		Page:       p.Page,
		Limit:      p.Limit,
		TotalItems: totalItems,
		TotalPages: totalPages,
	}
}
