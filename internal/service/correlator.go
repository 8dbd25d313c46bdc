package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"tripstream/internal/domain"
	"tripstream/internal/redis"
	"tripstream/internal/repository"
)

// OutcomeKind classifies the result of handling one event.
type OutcomeKind string

const (
	// OutcomeMerged means the event was folded into a record that is not
	// yet complete.
	OutcomeMerged OutcomeKind = "MERGED"

	// OutcomeCompleted means the record holds both halves after this event.
	OutcomeCompleted OutcomeKind = "COMPLETED"

	// OutcomeQuarantined means the event could not be merged and was
	// written to the quarantine sink instead.
	OutcomeQuarantined OutcomeKind = "QUARANTINED"
)

// Outcome is the typed result of CorrelationService.Handle. Record is set
// for Merged and Completed, Quarantine for Quarantined.
type Outcome struct {
	Kind       OutcomeKind
	Record     *domain.TripRecord
	Quarantine *domain.QuarantineRecord
}

const (
	// tripLockTTL bounds how long a crashed worker can hold a trip lock.
	tripLockTTL = 10 * time.Second

	// maxTransitionRetries bounds re-reads after a conditional write lost
	// its race. The lock makes conflicts rare; the version check makes
	// them harmless.
	maxTransitionRetries = 3
)

// CorrelationService merges trip_start/trip_end events into trip records.
// The decision logic is a pure function of (current record, event); all
// writes go through the injected stores.
type CorrelationService struct {
	tripRepo       repository.TripStateRepository
	quarantineRepo repository.QuarantineRepository
	eventLog       repository.EventLogRepository
	lockStore      redis.LockStoreInterface
}

// NewCorrelationService creates a new CorrelationService. lockStore may be
// nil; the optimistic version check on the trip store is the correctness
// guarantee, the lock only reduces contention.
func NewCorrelationService(
	tripRepo repository.TripStateRepository,
	quarantineRepo repository.QuarantineRepository,
	eventLog repository.EventLogRepository,
	lockStore redis.LockStoreInterface,
) *CorrelationService {
	return &CorrelationService{
		tripRepo:       tripRepo,
		quarantineRepo: quarantineRepo,
		eventLog:       eventLog,
		lockStore:      lockStore,
	}
}

// Handle processes one raw event end to end: validation, state transition,
// persistence, lineage. Every input yields either a merged record or a
// quarantine entry; an error return means a collaborator failed and the
// caller should retry with the same payload.
func (s *CorrelationService) Handle(ctx context.Context, raw []byte) (*Outcome, error) {
	ev, err := ParseEvent(raw)
	if err != nil {
		if errors.Is(err, ErrInvalidSchema) || errors.Is(err, ErrUnknownEventType) {
			return s.quarantineRaw(ctx, raw, parseFailureReason(err))
		}
		return nil, err
	}

	tripID := ev.TripID()

	if s.lockStore != nil {
		acquired, err := s.lockStore.AcquireTripLock(ctx, tripID, tripLockTTL)
		if err == nil && acquired {
			defer func() {
				_ = s.lockStore.ReleaseTripLock(context.WithoutCancel(ctx), tripID)
			}()
		}
		// Lock failure is not fatal: concurrent holders fall through to
		// the conditional write and one of them retries.
	}

	outcome, err := s.applyWithRetry(ctx, ev, raw)
	if err != nil {
		return nil, err
	}

	if err := s.recordLineage(ctx, ev, raw, outcome); err != nil {
		return nil, err
	}

	return outcome, nil
}

// applyWithRetry runs the transition, re-reading the record when a
// conditional write lost its race.
func (s *CorrelationService) applyWithRetry(ctx context.Context, ev *domain.TripEvent, raw []byte) (*Outcome, error) {
	var lastErr error
	for attempt := 0; attempt < maxTransitionRetries; attempt++ {
		outcome, err := s.apply(ctx, ev, raw)
		if err == nil {
			return outcome, nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// apply performs one transition attempt against the current record state.
func (s *CorrelationService) apply(ctx context.Context, ev *domain.TripEvent, raw []byte) (*Outcome, error) {
	tripID := ev.TripID()

	rec, err := s.tripRepo.Get(ctx, tripID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	switch ev.Type {
	case domain.EventTypeTripStart:
		return s.applyStart(ctx, rec, ev)
	case domain.EventTypeTripEnd:
		return s.applyEnd(ctx, rec, ev, raw)
	default:
		// Unreachable: ParseEvent rejects unknown types.
		return s.quarantineRaw(ctx, raw, domain.ReasonUnknownEventType)
	}
}

func (s *CorrelationService) applyStart(ctx context.Context, rec *domain.TripRecord, ev *domain.TripEvent) (*Outcome, error) {
	now := time.Now().UTC()

	if rec == nil {
		rec = &domain.TripRecord{
			TripID:    ev.Start.TripID,
			Status:    domain.TripStatusPartial,
			StartData: ev.Start,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.tripRepo.Create(ctx, rec); err != nil {
			return nil, err
		}
		return &Outcome{Kind: OutcomeMerged, Record: rec}, nil
	}

	// Re-delivered or revised start: the latest payload wins, status is
	// untouched so a completed trip never reverts.
	rec.StartData = ev.Start
	rec.UpdatedAt = now
	if err := s.tripRepo.Update(ctx, rec); err != nil {
		return nil, err
	}

	kind := OutcomeMerged
	if rec.Status == domain.TripStatusComplete {
		kind = OutcomeCompleted
	}
	return &Outcome{Kind: kind, Record: rec}, nil
}

func (s *CorrelationService) applyEnd(ctx context.Context, rec *domain.TripRecord, ev *domain.TripEvent, raw []byte) (*Outcome, error) {
	now := time.Now().UTC()

	if rec == nil {
		// An end with no start is unmatchable at this moment; the stream
		// gives no delivery-time bound that would make buffering safe.
		return s.quarantineFor(ctx, ev.End.TripID, raw, domain.ReasonOrphanEnd)
	}

	if rec.Status == domain.TripStatusComplete {
		if rec.EndData != nil && endDataEqual(rec.EndData, ev.End) {
			// Exact redelivery of the closing event: idempotent no-op.
			return &Outcome{Kind: OutcomeCompleted, Record: rec}, nil
		}
		return s.quarantineFor(ctx, ev.End.TripID, raw, domain.ReasonDuplicateEnd)
	}

	rec.EndData = ev.End
	rec.Status = domain.TripStatusComplete
	rec.CompletionDate = ev.End.DropoffDatetime.Format(domain.CompletionDateLayout)
	rec.UpdatedAt = now
	if err := s.tripRepo.Update(ctx, rec); err != nil {
		return nil, err
	}

	return &Outcome{Kind: OutcomeCompleted, Record: rec}, nil
}

// quarantineRaw quarantines a payload whose trip ID may be missing,
// synthesizing a placeholder key when it is.
func (s *CorrelationService) quarantineRaw(ctx context.Context, raw []byte, reason domain.QuarantineReason) (*Outcome, error) {
	tripID := ExtractTripID(raw)
	if tripID == "" {
		tripID = "unknown-" + uuid.New().String()
	}
	return s.quarantineFor(ctx, tripID, raw, reason)
}

func (s *CorrelationService) quarantineFor(ctx context.Context, tripID string, raw []byte, reason domain.QuarantineReason) (*Outcome, error) {
	q := &domain.QuarantineRecord{
		TripID:     tripID,
		Reason:     reason,
		RawPayload: raw,
		IngestTime: time.Now().UTC(),
	}

	if err := s.quarantineRepo.Append(ctx, q); err != nil {
		return nil, err
	}

	return &Outcome{Kind: OutcomeQuarantined, Quarantine: q}, nil
}

// recordLineage appends one log row per delivered event that passed
// validation. Redeliveries produce extra rows on purpose: the monitor's
// duplicate rule reads them.
func (s *CorrelationService) recordLineage(ctx context.Context, ev *domain.TripEvent, raw []byte, outcome *Outcome) error {
	status := domain.IngestStatusProcessed
	if outcome.Kind == OutcomeQuarantined {
		status = domain.IngestStatusQuarantined
	}

	return s.eventLog.Append(ctx, &domain.IngestedEvent{
		EventID:     uuid.New().String(),
		TripID:      ev.TripID(),
		EventType:   ev.Type,
		Payload:     raw,
		ProcessedAt: time.Now().UTC(),
		Status:      status,
	})
}

func parseFailureReason(err error) domain.QuarantineReason {
	if errors.Is(err, ErrUnknownEventType) {
		return domain.ReasonUnknownEventType
	}
	return domain.ReasonInvalidSchema
}

// endDataEqual reports whether two end payloads are identical. Datetimes
// compare by instant so a payload survives a marshal round trip.
func endDataEqual(a, b *domain.TripEndData) bool {
	return a.TripID == b.TripID &&
		a.DropoffDatetime.Equal(b.DropoffDatetime) &&
		a.RateCode == b.RateCode &&
		a.PassengerCount == b.PassengerCount &&
		a.TripDistance == b.TripDistance &&
		a.FareAmount == b.FareAmount &&
		a.TipAmount == b.TipAmount &&
		a.PaymentType == b.PaymentType &&
		a.TripType == b.TripType
}
