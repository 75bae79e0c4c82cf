package middleware

import (
	"github.com/panot-hq/edge-backend/internal/queue"
	"github.com/panot-hq/edge-backend/pkg/graph"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// AppUser is the authenticated caller. Each user owns exactly one graph, so
// the user id is the tenant id.
type AppUser struct {
	TenantID uuid.UUID
	Role     string
}

type App struct {
	Engine *graph.Engine
	Jobs   queue.JobStore
	Queue  queue.Publisher
	// Keyfunc verifies JWT signatures, usually keyfunc.Keyfunc.Keyfunc
	// backed by the auth service JWKS.
	Keyfunc      jwt.Keyfunc
	MasterAPIKey string
	MasterUserID uuid.UUID
}

type AppContext struct {
	echo.Context
	App  *App
	User *AppUser
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app, nil}
			return next(cc)
		}
	}
}
