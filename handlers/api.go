package handlers

import (
	"net/http"

	"robot-manager/utils"

	"github.com/labstack/echo/v4"
)

const serviceName = "robot-manager"

// APIHandler serves the unauthenticated service endpoints.
type APIHandler struct{}

// NewAPIHandler creates a new instance of APIHandler.
func NewAPIHandler() *APIHandler {
	return &APIHandler{}
}

// HealthCheck provides a simple health status of the service.
func (h *APIHandler) HealthCheck(c echo.Context) error {
	data := map[string]interface{}{
		"service":   serviceName,
		"timestamp": utils.GetCurrentTimestamp(),
	}
	return c.JSON(http.StatusOK, utils.SuccessResponse("Service is healthy", data))
}
