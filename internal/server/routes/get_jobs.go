package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func GetJobHandler(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	app, user := appOf(c)
	job, err := app.Jobs.GetJob(c.Request().Context(), user.TenantID, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, job)
}
