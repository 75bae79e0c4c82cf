package server

import (
	"net/http"

	"github.com/panot-hq/edge-backend/internal/server/middleware"
	"github.com/panot-hq/edge-backend/internal/server/routes"
	"github.com/panot-hq/edge-backend/pkg/metrics"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})

	metricsHandler := promhttp.Handler()
	e.GET("/metrics", func(c echo.Context) error {
		metrics.UpdateSystemMetrics()
		metricsHandler.ServeHTTP(c.Response(), c.Request())
		return nil
	})

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Contact routes
	apiRoutes.POST("/contacts", routes.CreateContactHandler, middleware.RequireWrite)
	apiRoutes.GET("/contacts/:id", routes.GetContactHandler)
	apiRoutes.PATCH("/contacts/:id", routes.EditContactHandler, middleware.RequireWrite)
	apiRoutes.DELETE("/contacts/:id", routes.DeleteContactHandler, middleware.RequireWrite)
	apiRoutes.PUT("/contacts/:id/summary", routes.SetSummaryHandler, middleware.RequireWrite)

	// Contact graph routes
	apiRoutes.GET("/contacts/:id/graph", routes.GetContactGraphHandler)
	apiRoutes.GET("/contacts/:id/shared", routes.GetSharedConnectionsHandler)
	apiRoutes.POST("/contacts/:id/items", routes.ConnectItemsHandler, middleware.RequireWrite)
	apiRoutes.DELETE("/contacts/:id/edges/:edge_id", routes.DeleteEdgeHandler, middleware.RequireWrite)
	apiRoutes.DELETE("/contacts/:id/nodes/:node_id", routes.DeleteNodeHandler, middleware.RequireWrite)

	// Node routes
	apiRoutes.GET("/nodes/search", routes.SearchNodesHandler)
	apiRoutes.GET("/nodes/:id/contacts", routes.GetNodeContactsHandler)

	// Job routes
	apiRoutes.POST("/jobs", routes.PostJobHandler, middleware.RequireWrite)
	apiRoutes.GET("/jobs/:id", routes.GetJobHandler)
}
