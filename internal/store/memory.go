package store

import (
	"context"
	"sync"

	"gorm.io/datatypes"

	"github.com/systemage/systemagego/internal/models"
)

// MemoryStore is an in-memory stand-in for GormStore used by pipeline tests.
// It implements the subset of operations the extraction orchestrator needs.
type MemoryStore struct {
	mu      sync.Mutex
	reports map[string]*models.Report
	systems map[string][]models.BodySystem
	recs    map[string][]models.Recommendation

	// Optional fault injection
	FailUpdates bool
	UpdateErr   error
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		reports: make(map[string]*models.Report),
		systems: make(map[string][]models.BodySystem),
		recs:    make(map[string][]models.Recommendation),
	}
}

// AddReport seeds a report row.
func (m *MemoryStore) AddReport(report *models.Report) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *report
	if copied.ExtractionStatus == "" {
		copied.ExtractionStatus = string(models.ExtractionPending)
	}
	m.reports[copied.ID] = &copied
}

// Report returns a copy of the stored report, or nil.
func (m *MemoryStore) Report(reportID string) *models.Report {
	m.mu.Lock()
	defer m.mu.Unlock()
	report, ok := m.reports[reportID]
	if !ok {
		return nil
	}
	copied := *report
	return &copied
}

// BodySystems returns the inserted system rows of a report.
func (m *MemoryStore) BodySystems(reportID string) []models.BodySystem {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.BodySystem(nil), m.systems[reportID]...)
}

// Recommendations returns the inserted recommendation rows of a report.
func (m *MemoryStore) Recommendations(reportID string) []models.Recommendation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Recommendation(nil), m.recs[reportID]...)
}

func (m *MemoryStore) ClaimReport(ctx context.Context, reportID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	report, ok := m.reports[reportID]
	if !ok {
		return false, nil
	}
	switch report.ExtractionStatus {
	case string(models.ExtractionPending), string(models.ExtractionFailed):
		report.ExtractionStatus = string(models.ExtractionProcessing)
		return true, nil
	}
	return false, nil
}

func (m *MemoryStore) UpdateReport(ctx context.Context, reportID string, patch map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailUpdates {
		return m.UpdateErr
	}
	report, ok := m.reports[reportID]
	if !ok {
		return ErrNotFound
	}
	for column, value := range patch {
		switch column {
		case "chronological_age":
			report.ChronologicalAge = value.(float64)
		case "overall_system_age":
			report.OverallSystemAge = value.(float64)
		case "aging_rate":
			report.AgingRate = value.(float64)
		case "aging_stage":
			report.AgingStage = value.(string)
		case "overall_bionoise":
			report.OverallBioNoise = value.(float64)
		case "extraction_status":
			report.ExtractionStatus = value.(string)
		case "extraction_confidence":
			confidence := value.(int)
			report.ExtractionConfidence = &confidence
		case "raw_extraction_data":
			report.RawExtractionData = datatypes.JSON(value.([]byte))
		}
	}
	return nil
}

func (m *MemoryStore) CountBodySystems(ctx context.Context, reportID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.systems[reportID])), nil
}

func (m *MemoryStore) InsertBodySystems(ctx context.Context, systems []models.BodySystem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sys := range systems {
		m.systems[sys.ReportID] = append(m.systems[sys.ReportID], sys)
	}
	return nil
}

func (m *MemoryStore) CountRecommendations(ctx context.Context, reportID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.recs[reportID])), nil
}

func (m *MemoryStore) InsertRecommendations(ctx context.Context, recs []models.Recommendation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range recs {
		m.recs[rec.ReportID] = append(m.recs[rec.ReportID], rec)
	}
	return nil
}
