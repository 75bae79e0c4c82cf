package routes

import (
	"encoding/json"
	"net/http"

	"github.com/panot-hq/edge-backend/internal/queue"
	"github.com/panot-hq/edge-backend/pkg/logger"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// PostJobHandler queues a graph job for the worker and wakes it.
func PostJobHandler(c echo.Context) error {
	type postJobBody struct {
		ContactID string          `json:"contact_id" validate:"required,uuid"`
		Type      string          `json:"job_type" validate:"required"`
		Payload   json.RawMessage `json:"payload"`
	}

	type postJobResponse struct {
		Message string     `json:"message"`
		Job     *queue.Job `json:"job,omitempty"`
	}

	data := new(postJobBody)
	if err := c.Bind(data); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := c.Validate(data); err != nil {
		return badRequest(c, "Invalid request body")
	}
	contactID, err := uuid.Parse(data.ContactID)
	if err != nil {
		return badRequest(c, "Invalid contact_id")
	}

	app, user := appOf(c)
	ctx := c.Request().Context()
	if _, err := app.Engine.GetContact(ctx, user.TenantID, contactID); err != nil {
		return fail(c, err)
	}

	job, err := queue.Enqueue(ctx, app.Jobs, app.Queue, queue.Job{
		TenantID:  user.TenantID,
		ContactID: contactID,
		Type:      queue.JobType(data.Type),
		Payload:   data.Payload,
	})
	if err != nil {
		if job.ID == uuid.Nil {
			return fail(c, err)
		}
		// The job row exists; the stale job sweep picks it up.
		logger.Warn("[Server] Failed to wake worker", "job", job.ID, "err", err)
	}

	return c.JSON(http.StatusAccepted, postJobResponse{Message: "Job queued", Job: &job})
}
