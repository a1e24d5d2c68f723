package base

import (
	"github.com/labstack/echo/v4"
)

// ===================================================================
// STANDARD RESPONSE PATTERNS
// ===================================================================

// CreateSuccessResponse creates a standard success response
func CreateSuccessResponse(message string, data interface{}) map[string]interface{} {
	response := map[string]interface{}{
		"status":  "success",
		"message": message,
	}

	if data != nil {
		response["data"] = data
	}

	return response
}

// ===================================================================
// RESPONSE HELPERS
// ===================================================================

// SendDataJSON sends {"data": data}
func SendDataJSON(c echo.Context, statusCode int, data interface{}) error {
	return c.JSON(statusCode, map[string]interface{}{"data": data})
}

// SendMessageJSON sends {"message": message}
func SendMessageJSON(c echo.Context, statusCode int, message string) error {
	return c.JSON(statusCode, map[string]interface{}{"message": message})
}

// SendMessageDataJSON sends {"message": message, "data": data}
func SendMessageDataJSON(c echo.Context, statusCode int, message string, data interface{}) error {
	return c.JSON(statusCode, map[string]interface{}{
		"message": message,
		"data":    data,
	})
}
