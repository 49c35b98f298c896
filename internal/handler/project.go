package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/equipment-rental/internal/repository"
)

// ProjectHandler exposes the project-side booking views used by the
// cart UI.  Projects themselves are managed upstream.
type ProjectHandler struct {
	ProjectRepo *repository.ProjectRepo
	BookingRepo *repository.BookingRepo
}

// NewProjectHandler constructs a ProjectHandler.
func NewProjectHandler(projectRepo *repository.ProjectRepo, bookingRepo *repository.BookingRepo) *ProjectHandler {
	if projectRepo == nil || bookingRepo == nil {
		panic("nil repository passed to NewProjectHandler")
	}
	return &ProjectHandler{ProjectRepo: projectRepo, BookingRepo: bookingRepo}
}

// ListBookings handles GET /v1/projects/:id/bookings and returns all of
// a project's bookings, newest first, including terminal ones so the
// history stays visible.
func (h *ProjectHandler) ListBookings(c echo.Context) error {
	projectID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || projectID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid project id"})
	}
	ctx := c.Request().Context()
	p, err := h.ProjectRepo.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "project not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	bookings, err := h.BookingRepo.ListByProject(ctx, projectID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]bookingJSON, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, bookingToJSON(b))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"project_id":   p.ID,
		"project_name": p.Name,
		"bookings":     out,
	})
}
