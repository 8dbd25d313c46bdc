package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tripstream/internal/domain"
	"tripstream/internal/repository"
	"tripstream/internal/service"
)

// EventHandler handles HTTP requests for event ingestion.
type EventHandler struct {
	correlator     *service.CorrelationService
	quarantineRepo repository.QuarantineRepository
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(correlator *service.CorrelationService, quarantineRepo repository.QuarantineRepository) *EventHandler {
	return &EventHandler{
		correlator:     correlator,
		quarantineRepo: quarantineRepo,
	}
}

// IngestResponse is the HTTP response for event ingestion.
type IngestResponse struct {
	Outcome        string `json:"outcome"`
	TripID         string `json:"trip_id,omitempty"`
	Status         string `json:"status,omitempty"`
	CompletionDate string `json:"completion_date,omitempty"`
	Reason         string `json:"reason,omitempty"`
}

// Ingest handles POST /v1/events
func (h *EventHandler) Ingest(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil || len(raw) == 0 {
		respondJSON(c, http.StatusBadRequest, ErrorResponse{Error: "empty request body"})
		return
	}

	outcome, err := h.correlator.Handle(c.Request.Context(), raw)
	if err != nil {
		// A collaborator failed mid-flight. Leave an audit trail so the
		// payload is never silently lost, then tell the caller to retry.
		h.quarantineProcessingError(c, raw)
		respondError(c, err)
		return
	}

	switch outcome.Kind {
	case service.OutcomeQuarantined:
		respondJSON(c, http.StatusUnprocessableEntity, IngestResponse{
			Outcome: string(outcome.Kind),
			TripID:  outcome.Quarantine.TripID,
			Reason:  string(outcome.Quarantine.Reason),
		})
	default:
		respondJSON(c, http.StatusOK, IngestResponse{
			Outcome:        string(outcome.Kind),
			TripID:         outcome.Record.TripID,
			Status:         string(outcome.Record.Status),
			CompletionDate: outcome.Record.CompletionDate,
		})
	}
}

// quarantineProcessingError records a PROCESSING_ERROR entry best-effort.
// The ingest error has already been decided; a second failure here only
// means the store outage is being reported to the caller anyway.
func (h *EventHandler) quarantineProcessingError(c *gin.Context, raw []byte) {
	tripID := service.ExtractTripID(raw)
	if tripID == "" {
		tripID = "unknown-" + uuid.New().String()
	}

	_ = h.quarantineRepo.Append(c.Request.Context(), &domain.QuarantineRecord{
		TripID:     tripID,
		Reason:     domain.ReasonProcessingError,
		RawPayload: raw,
		IngestTime: time.Now().UTC(),
	})
}
