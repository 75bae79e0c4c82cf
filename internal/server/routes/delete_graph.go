package routes

import (
	"net/http"
	"strconv"

	"github.com/panot-hq/edge-backend/pkg/graph"

	"github.com/labstack/echo/v4"
)

func skipSummary(c echo.Context) bool {
	skip, _ := strconv.ParseBool(c.QueryParam("skip_summary"))
	return skip
}

// DeleteEdgeHandler removes one outgoing edge of the contact node.
func DeleteEdgeHandler(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	edgeID, err := paramID(c, "edge_id")
	if err != nil {
		return fail(c, err)
	}
	mode, err := modeOrDefault(c.QueryParam("mode"))
	if err != nil {
		return fail(c, err)
	}

	app, user := appOf(c)
	ctx := c.Request().Context()
	contact, err := app.Engine.GetContact(ctx, user.TenantID, id)
	if err != nil {
		return fail(c, err)
	}

	res, err := app.Engine.DeleteEdge(ctx, graph.DeleteEdgeRequest{
		TenantID:                user.TenantID,
		EdgeID:                  edgeID,
		SourceNodeID:            contact.NodeID,
		Mode:                    mode,
		SkipSummaryRegeneration: skipSummary(c),
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// DeleteNodeHandler removes a concept connected to the contact node.
func DeleteNodeHandler(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	nodeID, err := paramID(c, "node_id")
	if err != nil {
		return fail(c, err)
	}
	mode, err := modeOrDefault(c.QueryParam("mode"))
	if err != nil {
		return fail(c, err)
	}

	app, user := appOf(c)
	ctx := c.Request().Context()
	contact, err := app.Engine.GetContact(ctx, user.TenantID, id)
	if err != nil {
		return fail(c, err)
	}

	res, err := app.Engine.DeleteNode(ctx, graph.DeleteNodeRequest{
		TenantID:                user.TenantID,
		NodeID:                  nodeID,
		SourceNodeID:            contact.NodeID,
		Mode:                    mode,
		SkipSummaryRegeneration: skipSummary(c),
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}
