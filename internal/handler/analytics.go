package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tripstream/internal/domain"
	"tripstream/internal/service"
)

// AnalyticsHandler handles HTTP requests for daily KPIs and pipeline stats.
type AnalyticsHandler struct {
	aggregator *service.AggregatorService
	stats      *service.StatsService
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(aggregator *service.AggregatorService, stats *service.StatsService) *AnalyticsHandler {
	return &AnalyticsHandler{
		aggregator: aggregator,
		stats:      stats,
	}
}

// DailyMetricsResponse is the HTTP response for daily KPI lookups.
type DailyMetricsResponse struct {
	Date               string  `json:"date"`
	TripCount          int     `json:"trip_count"`
	TotalFare          float64 `json:"total_fare"`
	AverageFare        float64 `json:"average_fare"`
	MaxFare            float64 `json:"max_fare"`
	MinFare            float64 `json:"min_fare"`
	AvgDurationMinutes float64 `json:"avg_duration_minutes,omitempty"`
	TopPickupLocation  string  `json:"top_pickup_location,omitempty"`
	GeneratedAt        string  `json:"generated_at"`
}

// GetDailyMetrics handles GET /v1/analytics/:date
func (h *AnalyticsHandler) GetDailyMetrics(c *gin.Context) {
	metrics, err := h.aggregator.GetDailyMetrics(c.Request.Context(), c.Param("date"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toDailyMetricsResponse(metrics))
}

// GetStats handles GET /v1/stats
func (h *AnalyticsHandler) GetStats(c *gin.Context) {
	stats, err := h.stats.GetStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, stats)
}

func toDailyMetricsResponse(metrics *domain.DailyMetrics) DailyMetricsResponse {
	return DailyMetricsResponse{
		Date:               metrics.Date,
		TripCount:          metrics.TripCount,
		TotalFare:          metrics.TotalFare,
		AverageFare:        metrics.AverageFare,
		MaxFare:            metrics.MaxFare,
		MinFare:            metrics.MinFare,
		AvgDurationMinutes: metrics.AvgDurationMinutes,
		TopPickupLocation:  metrics.TopPickupLocation,
		GeneratedAt:        metrics.GeneratedAt.Format(time.RFC3339),
	}
}
