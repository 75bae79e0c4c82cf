package routes

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// SearchNodesHandler finds concepts by label substring, optionally within
// one category.
func SearchNodesHandler(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return badRequest(c, "Query parameter q is required")
	}
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return badRequest(c, "Invalid limit")
		}
		limit = n
	}

	app, user := appOf(c)
	nodes, err := app.Engine.SearchConcepts(c.Request().Context(), user.TenantID, q, c.QueryParam("category"), limit)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"nodes": nodes})
}

func GetNodeContactsHandler(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	app, user := appOf(c)
	contacts, err := app.Engine.ContactsSharing(c.Request().Context(), user.TenantID, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"contacts": contacts})
}
