package routes

import (
	"net/http"

	"github.com/panot-hq/edge-backend/pkg/common"

	"github.com/labstack/echo/v4"
)

// EditContactHandler renames a contact; the node label follows.
func EditContactHandler(c echo.Context) error {
	type editContactBody struct {
		FirstName string `json:"first_name" validate:"required"`
		LastName  string `json:"last_name"`
	}

	type editContactResponse struct {
		Message string          `json:"message"`
		Contact *common.Contact `json:"contact,omitempty"`
	}

	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	data := new(editContactBody)
	if err := c.Bind(data); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := c.Validate(data); err != nil {
		return badRequest(c, "Invalid request body")
	}

	app, user := appOf(c)
	contact, err := app.Engine.RenameContact(c.Request().Context(), user.TenantID, id, data.FirstName, data.LastName)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, editContactResponse{Message: "Contact updated", Contact: &contact})
}

// SetSummaryHandler stores a hand-written summary.
func SetSummaryHandler(c echo.Context) error {
	type setSummaryBody struct {
		Summary string `json:"summary"`
	}

	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	data := new(setSummaryBody)
	if err := c.Bind(data); err != nil {
		return badRequest(c, "Invalid request body")
	}

	app, user := appOf(c)
	contact, err := app.Engine.SetSummary(c.Request().Context(), user.TenantID, id, data.Summary)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, contact)
}
