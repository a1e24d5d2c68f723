package utils

import (
	"strconv"
	"strings"
	"time"
)

// ===================================================================
// STRING HELPERS
// ===================================================================

// GetIntOrDefault returns value if valid, otherwise returns defaultValue
func GetIntOrDefault(valueStr string, defaultValue int) int {
	if valueStr == "" {
		return defaultValue
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// ParseOptionalBool accepts true/false/1/0 and returns nil for anything else.
func ParseOptionalBool(valueStr string) *bool {
	if valueStr == "" {
		return nil
	}
	value, err := strconv.ParseBool(strings.TrimSpace(valueStr))
	if err != nil {
		return nil
	}
	return &value
}

// OptionalString returns nil for an empty string.
func OptionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

// ===================================================================
// PAGINATION HELPERS
// ===================================================================

// MaxPage caps the page number so the row offset cannot overflow.
const MaxPage = 1 << 20

// PageParams holds page-based pagination parameters
type PageParams struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

// GetPageParams extracts and clamps page/per_page query values
func GetPageParams(pageStr, perPageStr string, defaultPerPage, maxPerPage int) PageParams {
	page := GetIntOrDefault(pageStr, 1)
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}

	perPage := GetIntOrDefault(perPageStr, defaultPerPage)
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if maxPerPage > 0 && perPage > maxPerPage {
		perPage = maxPerPage
	}

	return PageParams{Page: page, PerPage: perPage}
}

// ===================================================================
// RESPONSE HELPERS
// ===================================================================

// StandardResponse represents a standard API response
type StandardResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// SuccessResponse creates a success response
func SuccessResponse(message string, data interface{}) StandardResponse {
	return StandardResponse{
		Status:  "success",
		Message: message,
		Data:    data,
	}
}

// ErrorBody is the error payload rendered by the central error handler
type ErrorBody struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// ErrorResponse creates an error response
func ErrorResponse(message string) ErrorBody {
	return ErrorBody{Message: message}
}

// ===================================================================
// TIME HELPERS
// ===================================================================

// GetCurrentTimestamp returns current timestamp in RFC3339 format
func GetCurrentTimestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
