package tests

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"tripstream/internal/domain"
	"tripstream/internal/redis"
	"tripstream/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK TRIP STATE REPOSITORY
// ──────────────────────────────────────────────

// MockTripStateRepository is a mock implementation of TripStateRepository.
type MockTripStateRepository struct {
	mu      sync.RWMutex
	records map[string]*domain.TripRecord

	// Counters for verification
	CreateCallCount int32
	UpdateCallCount int32

	// Error injection
	GetError    error
	CreateError error
	UpdateError error
	ScanError   error

	// UpdateConflictsRemaining makes that many Update calls fail with
	// ErrVersionConflict before succeeding, to exercise retry paths.
	UpdateConflictsRemaining int32
}

// NewMockTripStateRepository creates a new mock trip state repository.
func NewMockTripStateRepository() *MockTripStateRepository {
	return &MockTripStateRepository{
		records: make(map[string]*domain.TripRecord),
	}
}

// AddRecord seeds a record into the mock repository.
func (m *MockTripStateRepository) AddRecord(rec *domain.TripRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.Version == 0 {
		rec.Version = 1
	}
	m.records[rec.TripID] = cloneRecord(rec)
}

func (m *MockTripStateRepository) Get(ctx context.Context, tripID string) (*domain.TripRecord, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[tripID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneRecord(rec), nil
}

func (m *MockTripStateRepository) Create(ctx context.Context, rec *domain.TripRecord) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.records[rec.TripID]; exists {
		return repository.ErrVersionConflict
	}
	rec.Version = 1
	m.records[rec.TripID] = cloneRecord(rec)
	return nil
}

func (m *MockTripStateRepository) Update(ctx context.Context, rec *domain.TripRecord) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	if atomic.LoadInt32(&m.UpdateConflictsRemaining) > 0 {
		atomic.AddInt32(&m.UpdateConflictsRemaining, -1)
		return repository.ErrVersionConflict
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.records[rec.TripID]
	if !ok || stored.Version != rec.Version {
		return repository.ErrVersionConflict
	}
	rec.Version++
	m.records[rec.TripID] = cloneRecord(rec)
	return nil
}

func (m *MockTripStateRepository) Scan(ctx context.Context, fn func(*domain.TripRecord) error) error {
	if m.ScanError != nil {
		return m.ScanError
	}
	m.mu.RLock()
	snapshot := make([]*domain.TripRecord, 0, len(m.records))
	for _, rec := range m.records {
		snapshot = append(snapshot, cloneRecord(rec))
	}
	m.mu.RUnlock()

	for _, rec := range snapshot {
		if err := fn(rec); err != nil {
			return err
		}
	}
	return nil
}

func (m *MockTripStateRepository) ListByCompletionDate(ctx context.Context, date string) ([]*domain.TripRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.TripRecord
	for _, rec := range m.records {
		if rec.Status == domain.TripStatusComplete && rec.CompletionDate == date {
			result = append(result, cloneRecord(rec))
		}
	}
	return result, nil
}

func (m *MockTripStateRepository) CountByStatus(ctx context.Context) (map[domain.TripStatus]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := make(map[domain.TripStatus]int)
	for _, rec := range m.records {
		counts[rec.Status]++
	}
	return counts, nil
}

// GetRecord returns a record for test assertions.
func (m *MockTripStateRepository) GetRecord(tripID string) *domain.TripRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[tripID]
	if !ok {
		return nil
	}
	return cloneRecord(rec)
}

// CountRecords returns the number of stored records.
func (m *MockTripStateRepository) CountRecords() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

func cloneRecord(rec *domain.TripRecord) *domain.TripRecord {
	clone := *rec
	if rec.StartData != nil {
		start := *rec.StartData
		clone.StartData = &start
	}
	if rec.EndData != nil {
		end := *rec.EndData
		clone.EndData = &end
	}
	return &clone
}

// Ensure MockTripStateRepository implements the interface.
var _ repository.TripStateRepository = (*MockTripStateRepository)(nil)

// ──────────────────────────────────────────────
// MOCK QUARANTINE REPOSITORY
// ──────────────────────────────────────────────

// MockQuarantineRepository is a mock implementation of QuarantineRepository.
type MockQuarantineRepository struct {
	mu      sync.RWMutex
	entries []*domain.QuarantineRecord

	AppendCallCount int32
	AppendError     error
}

// NewMockQuarantineRepository creates a new mock quarantine repository.
func NewMockQuarantineRepository() *MockQuarantineRepository {
	return &MockQuarantineRepository{}
}

func (m *MockQuarantineRepository) Append(ctx context.Context, rec *domain.QuarantineRecord) error {
	atomic.AddInt32(&m.AppendCallCount, 1)
	if m.AppendError != nil {
		return m.AppendError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *rec
	m.entries = append(m.entries, &clone)
	return nil
}

func (m *MockQuarantineRepository) CountSince(ctx context.Context, t time.Time) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, entry := range m.entries {
		if !entry.IngestTime.Before(t) {
			count++
		}
	}
	return count, nil
}

// Entries returns all quarantine entries for test assertions.
func (m *MockQuarantineRepository) Entries() []*domain.QuarantineRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.QuarantineRecord, len(m.entries))
	copy(result, m.entries)
	return result
}

// CountByReason returns the number of entries with the given reason.
func (m *MockQuarantineRepository) CountByReason(reason domain.QuarantineReason) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, entry := range m.entries {
		if entry.Reason == reason {
			count++
		}
	}
	return count
}

var _ repository.QuarantineRepository = (*MockQuarantineRepository)(nil)

// ──────────────────────────────────────────────
// MOCK EVENT LOG REPOSITORY
// ──────────────────────────────────────────────

// MockEventLogRepository is a mock implementation of EventLogRepository.
type MockEventLogRepository struct {
	mu   sync.RWMutex
	rows []*domain.IngestedEvent

	AppendError error
}

// NewMockEventLogRepository creates a new mock event log repository.
func NewMockEventLogRepository() *MockEventLogRepository {
	return &MockEventLogRepository{}
}

func (m *MockEventLogRepository) Append(ctx context.Context, ev *domain.IngestedEvent) error {
	if m.AppendError != nil {
		return m.AppendError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *ev
	m.rows = append(m.rows, &clone)
	return nil
}

func (m *MockEventLogRepository) DuplicateTripIDs(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	type key struct {
		tripID    string
		eventType domain.EventType
	}
	counts := make(map[key]int)
	for _, row := range m.rows {
		counts[key{row.TripID, row.EventType}]++
	}

	seen := make(map[string]bool)
	var result []string
	for k, count := range counts {
		if count > 1 && !seen[k.tripID] {
			seen[k.tripID] = true
			result = append(result, k.tripID)
		}
	}
	return result, nil
}

func (m *MockEventLogRepository) CountByType(ctx context.Context) (map[domain.EventType]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := make(map[domain.EventType]int)
	for _, row := range m.rows {
		counts[row.EventType]++
	}
	return counts, nil
}

// CountRows returns the number of lineage rows.
func (m *MockEventLogRepository) CountRows() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rows)
}

var _ repository.EventLogRepository = (*MockEventLogRepository)(nil)

// ──────────────────────────────────────────────
// MOCK METRICS REPOSITORY
// ──────────────────────────────────────────────

// MockMetricsRepository is a mock implementation of MetricsRepository.
type MockMetricsRepository struct {
	mu      sync.RWMutex
	metrics map[string]*domain.DailyMetrics

	ReplaceCallCount int32
	ReplaceError     error
}

// NewMockMetricsRepository creates a new mock metrics repository.
func NewMockMetricsRepository() *MockMetricsRepository {
	return &MockMetricsRepository{
		metrics: make(map[string]*domain.DailyMetrics),
	}
}

func (m *MockMetricsRepository) Replace(ctx context.Context, metrics *domain.DailyMetrics) error {
	atomic.AddInt32(&m.ReplaceCallCount, 1)
	if m.ReplaceError != nil {
		return m.ReplaceError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *metrics
	m.metrics[metrics.Date] = &clone
	return nil
}

func (m *MockMetricsRepository) GetByDate(ctx context.Context, date string) (*domain.DailyMetrics, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	metrics, ok := m.metrics[date]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *metrics
	return &clone, nil
}

// GetMetrics returns the stored metrics for test assertions.
func (m *MockMetricsRepository) GetMetrics(date string) *domain.DailyMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()
	metrics, ok := m.metrics[date]
	if !ok {
		return nil
	}
	clone := *metrics
	return &clone
}

var _ repository.MetricsRepository = (*MockMetricsRepository)(nil)

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of the per-trip lock store.
type MockLockStore struct {
	mu   sync.Mutex
	held map[string]bool

	AcquireCallCount int32
	ReleaseCallCount int32
	AcquireError     error
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{held: make(map[string]bool)}
}

func (m *MockLockStore) AcquireTripLock(ctx context.Context, tripID string, ttl time.Duration) (bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[tripID] {
		return false, nil
	}
	m.held[tripID] = true
	return true, nil
}

func (m *MockLockStore) ReleaseTripLock(ctx context.Context, tripID string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, tripID)
	return nil
}

var _ redis.LockStoreInterface = (*MockLockStore)(nil)

// ──────────────────────────────────────────────
// MOCK ALERT SINK
// ──────────────────────────────────────────────

// MockAlertSink records alert dispatches.
type MockAlertSink struct {
	mu       sync.Mutex
	Subjects []string
	Payloads []map[string]any

	NotifyCallCount int32
}

// NewMockAlertSink creates a new mock alert sink.
func NewMockAlertSink() *MockAlertSink {
	return &MockAlertSink{}
}

func (m *MockAlertSink) Notify(ctx context.Context, subject string, payload map[string]any) error {
	atomic.AddInt32(&m.NotifyCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Subjects = append(m.Subjects, subject)
	m.Payloads = append(m.Payloads, payload)
	return nil
}
