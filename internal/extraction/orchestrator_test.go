package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systemage/systemagego/internal/models"
	"github.com/systemage/systemagego/internal/storage"
	"github.com/systemage/systemagego/internal/store"
)

const validExtraction = `{
	"chronologicalAge": 42,
	"overallSystemAge": 45,
	"agingRate": 1.07,
	"agingStage": "Accelerated",
	"overallBioNoise": 11,
	"bodySystems": [
		{"systemName": "Cardiac System", "systemAge": 48, "bioNoise": 9, "ageDifference": 6, "agingStage": "Accelerated"},
		{"systemName": "Digestive System", "systemAge": 41, "bioNoise": 7, "ageDifference": -1, "agingStage": "Prime"}
	],
	"recommendations": {
		"nutritional": [{"title": "Fiber", "description": "More fiber", "targetSystems": ["Digestive System"], "clinicalBenefits": "gut health"}],
		"fitness": [{"title": "Zone 2", "description": "Easy cardio", "targetSystems": ["Cardiac System"], "clinicalBenefits": "VO2max"}],
		"therapy": [{"title": "Sauna", "description": "Heat exposure", "targetSystems": [], "clinicalBenefits": "recovery"}]
	},
	"topAgingFactors": []
}`

type stubExtractor struct {
	response string
	err      error
}

func (s *stubExtractor) ExtractReport(ctx context.Context, pdf []byte) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

type recordingListener struct {
	mu     sync.Mutex
	events []string
}

func (l *recordingListener) ExtractionStatusChanged(userID, reportID, status string, confidence *int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, status)
}

func (l *recordingListener) Events() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

type pipelineFixture struct {
	store    *store.MemoryStore
	blobs    *storage.MemoryStore
	ai       *stubExtractor
	listener *recordingListener
	orch     *Orchestrator
	fileURL  string
}

func newPipelineFixture(t *testing.T, reportStatus string) *pipelineFixture {
	t.Helper()

	memStore := store.NewMemoryStore()
	blobs := storage.NewMemoryStore()
	fileURL, err := blobs.Upload(context.Background(), "reports/u1/test.pdf", []byte("%PDF-1.4 fake"), "application/pdf")
	require.NoError(t, err)

	memStore.AddReport(&models.Report{
		ID:               "r1",
		UserID:           "u1",
		PDFUrl:           fileURL,
		ExtractionStatus: reportStatus,
	})

	extractor := &stubExtractor{response: validExtraction}
	listener := &recordingListener{}
	orch := NewOrchestrator(memStore, blobs, extractor)
	orch.SetStatusListener(listener)

	return &pipelineFixture{
		store:    memStore,
		blobs:    blobs,
		ai:       extractor,
		listener: listener,
		orch:     orch,
		fileURL:  fileURL,
	}
}

func (f *pipelineFixture) run(t *testing.T) (*Result, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	run, err := f.orch.Start(ctx, "r1", f.fileURL, "u1")
	if err != nil {
		return nil, err
	}
	return run.Wait(ctx)
}

func TestPipelineSuccess(t *testing.T) {
	f := newPipelineFixture(t, string(models.ExtractionPending))

	result, err := f.run(t)
	require.NoError(t, err)
	assert.Equal(t, 2, result.SystemsInserted)
	assert.Equal(t, 3, result.RecommendationsInserted)

	report := f.store.Report("r1")
	assert.Equal(t, string(models.ExtractionCompleted), report.ExtractionStatus)
	assert.Equal(t, 42.0, report.ChronologicalAge)
	assert.Equal(t, 45.0, report.OverallSystemAge)
	assert.Equal(t, "Accelerated", report.AgingStage)
	require.NotNil(t, report.ExtractionConfidence)
	assert.Equal(t, result.Confidence, *report.ExtractionConfidence)

	systems := f.store.BodySystems("r1")
	require.Len(t, systems, 2)
	assert.Equal(t, "Cardiac System", systems[0].SystemName)
	assert.Equal(t, 6.0, systems[0].AgeDifference)

	recs := f.store.Recommendations("r1")
	require.Len(t, recs, 3)
	types := []string{recs[0].Type, recs[1].Type, recs[2].Type}
	assert.Equal(t, []string{"nutritional", "fitness", "therapy"}, types)

	assert.Equal(t, []string{"processing", "completed"}, f.listener.Events())
}

func TestPipelineStripsFencedResponse(t *testing.T) {
	f := newPipelineFixture(t, string(models.ExtractionPending))
	f.ai.response = "```json\n" + validExtraction + "\n```"

	_, err := f.run(t)
	require.NoError(t, err)
	assert.Equal(t, string(models.ExtractionCompleted), f.store.Report("r1").ExtractionStatus)
}

func TestPipelineRejectsConcurrentClaim(t *testing.T) {
	f := newPipelineFixture(t, string(models.ExtractionProcessing))

	_, err := f.run(t)
	assert.ErrorIs(t, err, ErrAlreadyClaimed)
}

func TestPipelineClaimableAfterFailure(t *testing.T) {
	f := newPipelineFixture(t, string(models.ExtractionFailed))

	_, err := f.run(t)
	require.NoError(t, err)
	assert.Equal(t, string(models.ExtractionCompleted), f.store.Report("r1").ExtractionStatus)
}

func failurePayload(t *testing.T, f *pipelineFixture) map[string]interface{} {
	t.Helper()
	report := f.store.Report("r1")
	require.Equal(t, string(models.ExtractionFailed), report.ExtractionStatus)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(report.RawExtractionData, &payload))
	assert.NotEmpty(t, payload["error"])
	assert.NotEmpty(t, payload["timestamp"])
	return payload
}

func TestPipelineDownloadFailure(t *testing.T) {
	f := newPipelineFixture(t, string(models.ExtractionPending))
	f.blobs.DownloadErr = errors.New("bucket unreachable")

	_, err := f.run(t)
	require.Error(t, err)

	var extErr *ExtractionError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, KindSourceUnavailable, extErr.Kind)

	payload := failurePayload(t, f)
	assert.Equal(t, string(KindSourceUnavailable), payload["kind"])
	assert.Equal(t, []string{"processing", "failed"}, f.listener.Events())
}

func TestPipelineMalformedResponse(t *testing.T) {
	f := newPipelineFixture(t, string(models.ExtractionPending))
	f.ai.response = "I'm sorry, I cannot read this document."

	_, err := f.run(t)
	var extErr *ExtractionError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, KindMalformedResponse, extErr.Kind)

	payload := failurePayload(t, f)
	assert.Equal(t, string(KindMalformedResponse), payload["kind"])
}

func TestPipelineValidationFailure(t *testing.T) {
	f := newPipelineFixture(t, string(models.ExtractionPending))
	f.ai.response = `{
		"chronologicalAge": 42,
		"overallSystemAge": 45,
		"agingRate": 1.07,
		"bodySystems": [{"systemName": "Chakra Alignment", "systemAge": 48}]
	}`

	_, err := f.run(t)
	var extErr *ExtractionError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, KindValidationError, extErr.Kind)

	payload := failurePayload(t, f)
	assert.Equal(t, string(KindValidationError), payload["kind"])
	assert.NotEmpty(t, payload["fields"])

	// Nothing was persisted for the invalid payload
	assert.Empty(t, f.store.BodySystems("r1"))
	assert.Empty(t, f.store.Recommendations("r1"))
}

func TestPipelineRetryDoesNotDuplicateChildren(t *testing.T) {
	f := newPipelineFixture(t, string(models.ExtractionFailed))

	// A previous run already inserted child rows before failing
	require.NoError(t, f.store.InsertBodySystems(context.Background(), []models.BodySystem{
		{ReportID: "r1", SystemName: "Cardiac System", SystemAge: 48},
		{ReportID: "r1", SystemName: "Digestive System", SystemAge: 41},
	}))
	require.NoError(t, f.store.InsertRecommendations(context.Background(), []models.Recommendation{
		{ReportID: "r1", Type: "nutritional", Title: "Fiber"},
	}))

	_, err := f.run(t)
	require.NoError(t, err)

	assert.Len(t, f.store.BodySystems("r1"), 2, "existing systems must not be duplicated")
	assert.Len(t, f.store.Recommendations("r1"), 1, "existing recommendations must not be duplicated")
	assert.Equal(t, string(models.ExtractionCompleted), f.store.Report("r1").ExtractionStatus)
}

func TestStripCodeFences(t *testing.T) {
	cases := map[string]struct {
		in   string
		want string
	}{
		"plain":         {`{"a":1}`, `{"a":1}`},
		"json fence":    {"```json\n{\"a\":1}\n```", `{"a":1}`},
		"bare fence":    {"```\n{\"a\":1}\n```", `{"a":1}`},
		"padded":        {"  {\"a\":1}\n", `{"a":1}`},
		"fence in text": {"Here you go:\n```json\n{\"a\":1}\n```\nEnjoy!", `{"a":1}`},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, StripCodeFences(tc.in))
		})
	}
}
