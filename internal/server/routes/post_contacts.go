package routes

import (
	"net/http"

	"github.com/panot-hq/edge-backend/pkg/common"

	"github.com/labstack/echo/v4"
)

// CreateContactHandler creates a contact together with its graph node.
func CreateContactHandler(c echo.Context) error {
	type createContactBody struct {
		FirstName string `json:"first_name" validate:"required"`
		LastName  string `json:"last_name"`
	}

	type createContactResponse struct {
		Message string          `json:"message"`
		Contact *common.Contact `json:"contact,omitempty"`
	}

	data := new(createContactBody)
	if err := c.Bind(data); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := c.Validate(data); err != nil {
		return badRequest(c, "Invalid request body")
	}

	app, user := appOf(c)
	contact, err := app.Engine.CreateContact(c.Request().Context(), user.TenantID, data.FirstName, data.LastName)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(http.StatusCreated, createContactResponse{
		Message: "Contact created",
		Contact: &contact,
	})
}
