package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// DeleteContactHandler removes a contact and collects the concepts only it
// referenced.
func DeleteContactHandler(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	app, user := appOf(c)
	res, err := app.Engine.DeleteContact(c.Request().Context(), user.TenantID, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}
