package handler

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/sangkips/investify-billing/internal/infrastructure/scheduler"
	"github.com/sangkips/investify-billing/internal/presentation/http/dto/response"
	"github.com/sangkips/investify-billing/pkg/apperror"
)

// JobHandler exposes the background jobs to operators
type JobHandler struct {
	scheduler *scheduler.Scheduler
}

// NewJobHandler creates a new job handler
func NewJobHandler(s *scheduler.Scheduler) *JobHandler {
	return &JobHandler{scheduler: s}
}

// List returns the registered jobs and their cron specs
func (h *JobHandler) List(c *gin.Context) {
	response.OK(c, "Jobs retrieved", h.scheduler.Jobs())
}

// Run triggers a job immediately and waits for it to finish
// @Summary Run background job
// @Tags admin
// @Param name path string true "Job name"
// @Failure 409 {object} response.APIResponse
// @Router /admin/jobs/{name}/run [post]
func (h *JobHandler) Run(c *gin.Context) {
	name := c.Param("name")

	// a client disconnect must not abort a half-finished sweep
	err := h.scheduler.RunNow(context.WithoutCancel(c.Request.Context()), name)
	switch {
	case errors.Is(err, scheduler.ErrUnknownJob):
		response.Error(c, apperror.NewNotFoundError("Job "+name))
	case errors.Is(err, scheduler.ErrJobRunning):
		response.Error(c, apperror.NewConflictError("Job "+name+" is already running"))
	case err != nil:
		response.Error(c, err)
	default:
		response.OK(c, "Job "+name+" completed", gin.H{"job": name})
	}
}
