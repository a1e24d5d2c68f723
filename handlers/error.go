package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"robot-manager/utils"

	"github.com/labstack/echo/v4"
)

var errorLogger = slog.Default()

// SetErrorLogger sets the logger for error handling.
func SetErrorLogger(logger *slog.Logger) {
	if logger == nil {
		return
	}
	errorLogger = logger.With("component", "error_handler")
}

// CustomHTTPErrorHandler is the central error handler for the Echo application.
func CustomHTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, body := renderError(c.Request().Context(), err)
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		errorLogger.Error("Failed to write error response", slog.Any("error", err))
	}
}

func renderError(ctx context.Context, err error) (int, utils.ErrorBody) {
	if appErr, ok := utils.AsAppError(err); ok {
		if internalErr := appErr.Unwrap(); internalErr != nil {
			level := slog.LevelInfo
			if appErr.Code >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			errorLogger.Log(ctx, level, "Error handled",
				"status_code", appErr.Code,
				"error_message", appErr.Message,
				slog.Any("internal_error", internalErr))
		}
		return appErr.Code, utils.ErrorBody{
			Message: appErr.Message,
			Errors:  appErr.Fields,
			Error:   appErr.Detail(),
		}
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		message := http.StatusText(httpErr.Code)
		if m, ok := httpErr.Message.(string); ok && m != "" {
			message = m
		}
		return httpErr.Code, utils.ErrorResponse(message)
	}

	errorLogger.Error("Unhandled error occurred",
		"error_type", fmt.Sprintf("%T", err),
		"error_message", err.Error(),
		slog.Any("error", err))
	return http.StatusInternalServerError, utils.ErrorResponse("An unexpected internal error occurred.")
}
