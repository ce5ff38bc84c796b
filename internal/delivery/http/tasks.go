package http

import (
	"errors"
	"net/http"

	"stonks-manager/internal/dto"
	"stonks-manager/internal/repository"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupTasks(base *echo.Group) {
	v1 := base.Group("/v1")
	{
		v1.POST("/analyze", h.Analyze)
		v1.GET("/tasks/:id", h.GetTask)
	}
}

// Analyze accepts a multi-stage analysis request and returns the task id the
// client polls for progress. Authentication lives in front of this service;
// the requester header is stored as an opaque identifier.
func (h *HttpAPIHandler) Analyze(c echo.Context) error {
	ctx := c.Request().Context()

	req := new(dto.AnalyzeRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid request body"))
	}
	if err := h.validator.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(err.Error()))
	}

	requester := c.Request().Header.Get("X-User-ID")
	if requester == "" {
		requester = "anonymous"
	}

	taskID, err := h.service.Coordinator.CreateTask(ctx, *req, requester)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, dto.NewBaseResponse(http.StatusInternalServerError, "failed to create task", nil))
	}

	return c.JSON(http.StatusAccepted, dto.AnalyzeResponse{TaskID: taskID})
}

func (h *HttpAPIHandler) GetTask(c echo.Context) error {
	ctx := c.Request().Context()
	taskID := c.Param("id")

	status, err := h.service.Coordinator.GetStatus(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return c.JSON(http.StatusNotFound, dto.NewNotFoundResponse("task not found"))
		}
		return c.JSON(http.StatusInternalServerError, dto.NewBaseResponse(http.StatusInternalServerError, "failed to get task status", nil))
	}

	return c.JSON(http.StatusOK, status)
}
