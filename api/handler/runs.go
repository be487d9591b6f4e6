package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/variantsync/jobs"
	"github.com/use-agent/variantsync/models"
)

// PostRun returns a handler for POST /api/v1/runs.
// The run executes in the background; the response carries its id.
func PostRun(runner *jobs.Runner, maxPages int) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.RunRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid run request: "+err.Error())
			return
		}
		if maxPages > 0 && req.Pages > maxPages {
			badRequest(c, fmt.Sprintf("pages must be <= %d", maxPages))
			return
		}

		job, err := runner.Start(req)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusAccepted, models.RunResponse{
			ID:     job.ID,
			Status: job.Status,
			Pages:  job.PagesWanted,
		})
	}
}

// GetRun returns a handler for GET /api/v1/runs/:id.
func GetRun(store *jobs.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		job, ok := store.Get(c.Param("id"))
		if !ok {
			respondError(c, models.NewRunError(models.ErrCodeNotFound, "run not found", nil))
			return
		}

		c.JSON(http.StatusOK, models.RunStatusResponse{
			ID:          job.ID,
			Status:      job.Status,
			PagesWanted: job.PagesWanted,
			Pages:       job.Pages,
			Summary:     job.Summary,
		})
	}
}
