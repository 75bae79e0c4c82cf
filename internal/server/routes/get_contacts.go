package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func GetContactHandler(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	app, user := appOf(c)
	contact, err := app.Engine.GetContact(c.Request().Context(), user.TenantID, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, contact)
}

// GetContactGraphHandler returns the contact with everything its node
// points at.
func GetContactGraphHandler(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	app, user := appOf(c)
	graph, err := app.Engine.ContactContext(c.Request().Context(), user.TenantID, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, graph)
}

func GetSharedConnectionsHandler(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	app, user := appOf(c)
	shared, err := app.Engine.SharedConnections(c.Request().Context(), user.TenantID, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"shared": shared})
}
