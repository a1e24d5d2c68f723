package handlers

import (
	"mime"
	"net/http"
	"strconv"

	"robot-manager/handlers/base"
	"robot-manager/models"
	"robot-manager/services"

	"github.com/labstack/echo/v4"
)

// RobotHandler handles robot aggregate requests.
type RobotHandler struct {
	robotService   *services.RobotService
	defaultPerPage int
	maxPerPage     int
}

// NewRobotHandler creates a new instance of RobotHandler.
func NewRobotHandler(robotService *services.RobotService, defaultPerPage, maxPerPage int) *RobotHandler {
	return &RobotHandler{
		robotService:   robotService,
		defaultPerPage: defaultPerPage,
		maxPerPage:     maxPerPage,
	}
}

// ===================================================================
// QUERIES
// ===================================================================

// List returns a filtered page of the caller's robots.
func (h *RobotHandler) List(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}

	params := base.ExtractPageParams(c, h.defaultPerPage, h.maxPerPage)
	query := models.ListRobotsQuery{
		Language: base.ExtractOptionalStringQuery(c, "language"),
		IsActive: base.ExtractOptionalBoolQuery(c, "is_active"),
		Search:   base.ExtractOptionalStringQuery(c, "search"),
		Page:     params.Page,
		PerPage:  params.PerPage,
	}

	page, err := h.robotService.List(c.Request().Context(), principal.Caller(), query)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

// Show returns one robot with its children and version history.
func (h *RobotHandler) Show(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}
	robotID, err := base.ExtractRobotID(c)
	if err != nil {
		return err
	}

	robot, err := h.robotService.Show(c.Request().Context(), principal.Caller(), robotID)
	if err != nil {
		return err
	}
	return base.SendDataJSON(c, http.StatusOK, robot)
}

// Download streams one attachment with its original name.
func (h *RobotHandler) Download(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}
	robotID, err := base.ExtractRobotID(c)
	if err != nil {
		return err
	}
	fileID, err := base.ExtractFileID(c)
	if err != nil {
		return err
	}

	dl, err := h.robotService.Download(c.Request().Context(), principal.Caller(), robotID, fileID)
	if err != nil {
		return err
	}
	defer dl.Content.Close()

	header := c.Response().Header()
	header.Set(echo.HeaderContentDisposition, mime.FormatMediaType("attachment", map[string]string{"filename": dl.Name}))
	if dl.Size > 0 {
		header.Set(echo.HeaderContentLength, strconv.FormatInt(dl.Size, 10))
	}
	return c.Stream(http.StatusOK, dl.MimeType, dl.Content)
}

// ===================================================================
// WRITES
// ===================================================================

// Create stores a new robot aggregate owned by the caller.
func (h *RobotHandler) Create(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}

	var req models.CreateRobotRequest
	images, files, err := bindRobotPayload(c, &req)
	if err != nil {
		return err
	}
	req.Images, req.Files = images, files

	robot, err := h.robotService.Create(c.Request().Context(), principal.Caller(), &req)
	if err != nil {
		return err
	}
	return base.SendMessageDataJSON(c, http.StatusCreated, "Robot created successfully", robot)
}

// Update applies a partial update to an accessible robot.
func (h *RobotHandler) Update(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}
	robotID, err := base.ExtractRobotID(c)
	if err != nil {
		return err
	}

	var req models.UpdateRobotRequest
	images, files, err := bindRobotPayload(c, &req)
	if err != nil {
		return err
	}
	req.Images, req.Files = images, files

	robot, err := h.robotService.Update(c.Request().Context(), principal.Caller(), robotID, &req)
	if err != nil {
		return err
	}
	return base.SendMessageDataJSON(c, http.StatusOK, "Robot updated successfully", robot)
}

// Delete soft-deletes an accessible robot and removes its blobs.
func (h *RobotHandler) Delete(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}
	robotID, err := base.ExtractRobotID(c)
	if err != nil {
		return err
	}

	if err := h.robotService.Delete(c.Request().Context(), principal.Caller(), robotID); err != nil {
		return err
	}
	return base.SendMessageJSON(c, http.StatusOK, "Robot deleted successfully")
}
