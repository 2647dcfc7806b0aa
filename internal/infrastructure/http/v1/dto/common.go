// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import "salesboard/internal/domain/filter"

// --- Filter Rows ---

// FilterRequest carries generic filter rows in a request body.
type FilterRequest struct {
	Filters []filter.Item `json:"filters"`
}

// --- Error Response ---

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
