package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tripstream/internal/service"
)

// JobsHandler exposes the two schedulable jobs for on-demand runs.
type JobsHandler struct {
	monitor    *service.MonitorService
	aggregator *service.AggregatorService
}

// NewJobsHandler creates a new JobsHandler.
func NewJobsHandler(monitor *service.MonitorService, aggregator *service.AggregatorService) *JobsHandler {
	return &JobsHandler{
		monitor:    monitor,
		aggregator: aggregator,
	}
}

// RunSweep handles POST /v1/jobs/sweep?stale_threshold=6h
func (h *JobsHandler) RunSweep(c *gin.Context) {
	var threshold time.Duration
	if raw := c.Query("stale_threshold"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			respondJSON(c, http.StatusBadRequest, ErrorResponse{Error: "invalid stale_threshold"})
			return
		}
		threshold = parsed
	}

	summary, err := h.monitor.RunSweep(c.Request.Context(), threshold)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, summary)
}

// RunAggregation handles POST /v1/jobs/aggregation/:date
func (h *JobsHandler) RunAggregation(c *gin.Context) {
	summary, err := h.aggregator.RunDailyAggregation(c.Request.Context(), c.Param("date"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, summary)
}
