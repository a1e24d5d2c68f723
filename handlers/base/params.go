package base

import (
	"fmt"
	"strconv"

	"robot-manager/utils"

	"github.com/labstack/echo/v4"
)

// ===================================================================
// PARAMETER EXTRACTION HELPERS
// ===================================================================

// ExtractIDParam extracts and validates ID parameter from URL
func ExtractIDParam(c echo.Context, paramName string) (uint, error) {
	idStr := c.Param(paramName)
	if idStr == "" {
		return 0, utils.NewBadRequestError(fmt.Sprintf("%s parameter is required", paramName))
	}

	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		return 0, utils.NewBadRequestError(fmt.Sprintf("Invalid %s parameter: must be a positive integer", paramName), err)
	}

	return uint(id), nil
}

// ExtractRobotID extracts the robot id path parameter
func ExtractRobotID(c echo.Context) (uint, error) {
	return ExtractIDParam(c, "id")
}

// ExtractFileID extracts the attachment id path parameter
func ExtractFileID(c echo.Context) (uint, error) {
	return ExtractIDParam(c, "fileId")
}

// ===================================================================
// QUERY PARAMETER HELPERS
// ===================================================================

// ExtractPageParams extracts page and per_page from the query string
func ExtractPageParams(c echo.Context, defaultPerPage, maxPerPage int) utils.PageParams {
	return utils.GetPageParams(c.QueryParam("page"), c.QueryParam("per_page"), defaultPerPage, maxPerPage)
}

// ExtractOptionalStringQuery returns nil when the query parameter is absent or empty
func ExtractOptionalStringQuery(c echo.Context, paramName string) *string {
	return utils.OptionalString(c.QueryParam(paramName))
}

// ExtractOptionalBoolQuery returns nil when the query parameter is absent or not a boolean
func ExtractOptionalBoolQuery(c echo.Context, paramName string) *bool {
	return utils.ParseOptionalBool(c.QueryParam(paramName))
}
