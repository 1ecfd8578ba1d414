package echo

import (
	"errors"
	"net/http"

	app "github.com/classops/enrolsync/internal/application/roster"
	"github.com/labstack/echo/v4"
)

type JobHandler struct {
	useCase app.GetRefreshJob
}

func NewJobHandler(useCase app.GetRefreshJob) *JobHandler {
	return &JobHandler{useCase: useCase}
}

func (h *JobHandler) GetRefreshJob(c echo.Context) error {
	out, err := h.useCase.Execute(c.Request().Context(), app.GetRefreshJobInput{
		ID: c.Param("id"),
	})
	if err != nil {
		if errors.Is(err, app.ErrInvalidJobID) {
			return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
				Code:    "invalid_job_id",
				Message: "id must be a valid UUID",
			}})
		}
		if errors.Is(err, app.ErrJobNotFound) {
			return c.JSON(http.StatusNotFound, apiResponse{Error: &errorBody{
				Code:    "not_found",
				Message: "refresh job not found",
			}})
		}

		return c.JSON(http.StatusInternalServerError, apiResponse{Error: &errorBody{
			Code:    "internal_error",
			Message: "failed to get refresh job",
		}})
	}

	return c.JSON(http.StatusOK, apiResponse{Data: out})
}
