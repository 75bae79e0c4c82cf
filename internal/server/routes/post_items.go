package routes

import (
	"net/http"

	"github.com/panot-hq/edge-backend/pkg/common"
	"github.com/panot-hq/edge-backend/pkg/graph"

	"github.com/labstack/echo/v4"
)

// ConnectItemsHandler attaches extracted items to a contact's node and
// answers with the per-item report.
func ConnectItemsHandler(c echo.Context) error {
	type connectItemsBody struct {
		Items                   []common.Item `json:"items" validate:"required,min=1,dive"`
		Mode                    string        `json:"mode"`
		SkipSummaryRegeneration bool          `json:"skip_summary_regeneration"`
	}

	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	data := new(connectItemsBody)
	if err := c.Bind(data); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := c.Validate(data); err != nil {
		return badRequest(c, "Invalid request body")
	}
	mode, err := modeOrDefault(data.Mode)
	if err != nil {
		return fail(c, err)
	}

	app, user := appOf(c)
	ctx := c.Request().Context()
	contact, err := app.Engine.GetContact(ctx, user.TenantID, id)
	if err != nil {
		return fail(c, err)
	}

	report, err := app.Engine.ConnectItems(ctx, graph.ConnectRequest{
		TenantID:                user.TenantID,
		SourceNodeID:            contact.NodeID,
		Items:                   data.Items,
		Mode:                    mode,
		SkipSummaryRegeneration: data.SkipSummaryRegeneration,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, report)
}
