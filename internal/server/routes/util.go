package routes

import (
	"net/http"

	"github.com/panot-hq/edge-backend/internal/server/middleware"
	"github.com/panot-hq/edge-backend/internal/util"
	"github.com/panot-hq/edge-backend/pkg/common"
	"github.com/panot-hq/edge-backend/pkg/logger"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(err error) int {
	switch common.KindOf(err) {
	case common.ErrNotFound:
		return http.StatusNotFound
	case common.ErrValidation, common.ErrReadOnly:
		return http.StatusBadRequest
	case common.ErrConflict:
		return http.StatusConflict
	case common.ErrUpstream:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func fail(c echo.Context, err error) error {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("[Server] Request failed", "path", c.Path(), "err", err)
		return c.JSON(status, errorResponse{Message: "Internal server error"})
	}
	return c.JSON(status, errorResponse{Message: http.StatusText(status), Error: err.Error()})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, errorResponse{Message: msg})
}

func appOf(c echo.Context) (*middleware.App, *middleware.AppUser) {
	ac := c.(*middleware.AppContext)
	return ac.App, ac.User
}

func paramID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := util.ParseID(name, c.Param(name))
	if err != nil {
		return uuid.Nil, common.Validation("request", err.Error())
	}
	return id, nil
}

// modeOrDefault parses an optional mode, defaulting to actionable.
func modeOrDefault(raw string) (common.Mode, error) {
	if raw == "" {
		return common.ModeActionable, nil
	}
	return common.ParseMode(raw)
}
