package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tripstream/internal/domain"
	"tripstream/internal/repository"
	"tripstream/internal/service"
)

// TripHandler handles HTTP requests for trip state lookups.
type TripHandler struct {
	tripRepo repository.TripStateRepository
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(tripRepo repository.TripStateRepository) *TripHandler {
	return &TripHandler{tripRepo: tripRepo}
}

// TripResponse is the HTTP response for trip lookups.
type TripResponse struct {
	TripID         string                `json:"trip_id"`
	Status         string                `json:"status"`
	StartData      *domain.TripStartData `json:"start_data,omitempty"`
	EndData        *domain.TripEndData   `json:"end_data,omitempty"`
	CreatedAt      string                `json:"created_at"`
	UpdatedAt      string                `json:"updated_at"`
	CompletionDate string                `json:"completion_date,omitempty"`
}

// GetTrip handles GET /v1/trips/:id
func (h *TripHandler) GetTrip(c *gin.Context) {
	tripID := c.Param("id")
	if tripID == "" {
		respondError(c, service.ErrInvalidTripID)
		return
	}

	rec, err := h.tripRepo.Get(c.Request.Context(), tripID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(rec))
}

// ListByDate handles GET /v1/trips?completion_date=YYYY-MM-DD
func (h *TripHandler) ListByDate(c *gin.Context) {
	date := c.Query("completion_date")
	if _, err := time.Parse(domain.CompletionDateLayout, date); err != nil {
		respondError(c, service.ErrInvalidDate)
		return
	}

	records, err := h.tripRepo.ListByCompletionDate(c.Request.Context(), date)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]TripResponse, 0, len(records))
	for _, rec := range records {
		response = append(response, toTripResponse(rec))
	}

	respondJSON(c, http.StatusOK, response)
}

func toTripResponse(rec *domain.TripRecord) TripResponse {
	return TripResponse{
		TripID:         rec.TripID,
		Status:         string(rec.Status),
		StartData:      rec.StartData,
		EndData:        rec.EndData,
		CreatedAt:      rec.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      rec.UpdatedAt.Format(time.RFC3339),
		CompletionDate: rec.CompletionDate,
	}
}
