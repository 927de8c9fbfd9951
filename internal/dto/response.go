// Package dto defines the wire-level response shapes of the public API.
package dto

import "github.com/xtrace/xtrace/internal/pkg/pagination"

// MessageResponse is the envelope used for acknowledgements and errors
type MessageResponse struct {
	Message string `json:"message"`
}

// Paged wraps a page of results with its pagination meta block
type Paged[T any] struct {
	Data []T             `json:"data"`
	Meta pagination.Meta `json:"meta"`
}
