package echo

import (
	"errors"
	"net/http"
	"strconv"

	app "github.com/classops/enrolsync/internal/application/roster"
	"github.com/labstack/echo/v4"
)

type RefreshHandler struct {
	useCase app.StartRosterRefresh
}

type startRefreshRequest struct {
	SourcePath    string `json:"source_path"`
	Delimiter     string `json:"delimiter"`
	Encoding      string `json:"encoding"`
	RoleID        int64  `json:"role_id"`
	MissingAction string `json:"missing_action"`
	AutoCreate    bool   `json:"auto_create"`
	AutoWithdraw  bool   `json:"auto_withdraw"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiResponse struct {
	Data  any        `json:"data,omitempty"`
	Error *errorBody `json:"error,omitempty"`
}

func NewRefreshHandler(useCase app.StartRosterRefresh) *RefreshHandler {
	return &RefreshHandler{useCase: useCase}
}

func (h *RefreshHandler) StartRefresh(c echo.Context) error {
	courseID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || courseID <= 0 {
		return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
			Code:    "invalid_course_id",
			Message: "course id must be a positive integer",
		}})
	}

	var req startRefreshRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
			Code:    "bad_request",
			Message: "invalid request body",
		}})
	}

	out, err := h.useCase.Execute(c.Request().Context(), app.StartRosterRefreshInput{
		CourseID:      courseID,
		SourcePath:    req.SourcePath,
		Delimiter:     req.Delimiter,
		Encoding:      req.Encoding,
		RoleID:        req.RoleID,
		MissingAction: req.MissingAction,
		AutoCreate:    req.AutoCreate,
		AutoWithdraw:  req.AutoWithdraw,
	})
	if err != nil {
		if errors.Is(err, app.ErrInvalidRefreshSource) {
			return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
				Code:    "invalid_source",
				Message: "source_path must be a .csv or .txt file",
			}})
		}
		if errors.Is(err, app.ErrInvalidRefreshOption) {
			return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
				Code:    "invalid_option",
				Message: err.Error(),
			}})
		}
		return c.JSON(http.StatusInternalServerError, apiResponse{Error: &errorBody{
			Code:    "internal_error",
			Message: "failed to enqueue refresh job",
		}})
	}

	return c.JSON(http.StatusAccepted, apiResponse{Data: out})
}
