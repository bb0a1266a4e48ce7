package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/systemage/systemagego/internal/models"
)

// Store is the slice of persistence the pipeline needs. The gorm-backed
// implementation lives in internal/store; tests substitute an in-memory one.
type Store interface {
	// ClaimReport atomically transitions pending/failed -> processing and
	// reports whether the claim succeeded.
	ClaimReport(ctx context.Context, reportID string) (bool, error)
	UpdateReport(ctx context.Context, reportID string, patch map[string]interface{}) error
	CountBodySystems(ctx context.Context, reportID string) (int64, error)
	InsertBodySystems(ctx context.Context, systems []models.BodySystem) error
	CountRecommendations(ctx context.Context, reportID string) (int64, error)
	InsertRecommendations(ctx context.Context, recs []models.Recommendation) error
}

// BlobStore fetches uploaded report files.
type BlobStore interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// Extractor is the AI collaborator: it ingests a PDF and returns the raw
// (possibly fenced) JSON text of the extraction. Transient provider errors
// are retried inside the collaborator, not here.
type Extractor interface {
	ExtractReport(ctx context.Context, pdf []byte) (string, error)
}

// StatusListener receives extraction lifecycle transitions, e.g. to push them
// to connected UI clients.
type StatusListener interface {
	ExtractionStatusChanged(userID, reportID, status string, confidence *int)
}

// Result summarizes a successful extraction run.
type Result struct {
	ReportID                string `json:"reportId"`
	Confidence              int    `json:"confidence"`
	SystemsInserted         int    `json:"systemsCount"`
	RecommendationsInserted int    `json:"recommendationsCount"`
}

// Run is the handle of one in-flight extraction. The HTTP layer discards it
// (the trigger is fire-and-forget) but tests and future callers can await it.
type Run struct {
	ReportID string
	done     chan struct{}
	result   *Result
	err      error
}

// Done is closed when the run has finished.
func (r *Run) Done() <-chan struct{} { return r.done }

// Wait blocks until the run finishes or ctx is cancelled.
func (r *Run) Wait(ctx context.Context) (*Result, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-r.done:
		return r.result, r.err
	}
}

// Orchestrator drives the end-to-end extraction sequence for one report:
// claim, fetch, extract, normalize, validate, persist. All collaborators are
// injected so tests can run the full pipeline against fakes.
type Orchestrator struct {
	store    Store
	blobs    BlobStore
	ai       Extractor
	listener StatusListener
}

// NewOrchestrator creates an orchestrator with its injected collaborators.
func NewOrchestrator(store Store, blobs BlobStore, ai Extractor) *Orchestrator {
	return &Orchestrator{store: store, blobs: blobs, ai: ai}
}

// SetStatusListener registers an optional listener for status transitions.
func (o *Orchestrator) SetStatusListener(l StatusListener) {
	o.listener = l
}

// Start claims the report and launches the extraction in a goroutine. It
// returns ErrAlreadyClaimed when the report is not in a claimable state
// (pending or failed), which is what prevents two concurrent runs from racing
// on the same report.
func (o *Orchestrator) Start(ctx context.Context, reportID, fileURL, userID string) (*Run, error) {
	claimed, err := o.store.ClaimReport(ctx, reportID)
	if err != nil {
		return nil, pipelineError(KindPersistenceError, "failed to claim report", err)
	}
	if !claimed {
		return nil, ErrAlreadyClaimed
	}
	o.notify(userID, reportID, string(models.ExtractionProcessing), nil)

	run := &Run{ReportID: reportID, done: make(chan struct{})}
	go func() {
		defer close(run.done)
		result, err := o.runExtraction(ctx, reportID, fileURL)
		if err != nil {
			log.Printf("[Extract] ❌ Report %s failed: %v", reportID, err)
			o.markFailed(ctx, reportID, err)
			o.notify(userID, reportID, string(models.ExtractionFailed), nil)
			run.err = err
			return
		}
		log.Printf("[Extract] ✅ Report %s completed (confidence %d%%, %d systems, %d recommendations)",
			reportID, result.Confidence, result.SystemsInserted, result.RecommendationsInserted)
		o.notify(userID, reportID, string(models.ExtractionCompleted), &result.Confidence)
		run.result = result
	}()
	return run, nil
}

// runExtraction executes the claimed pipeline. The report is already in
// processing state when this is called.
func (o *Orchestrator) runExtraction(ctx context.Context, reportID, fileURL string) (*Result, error) {
	// 1. Fetch the PDF from blob storage
	log.Printf("[Extract] Downloading PDF for report %s", reportID)
	pdf, err := o.blobs.Download(ctx, fileURL)
	if err != nil {
		return nil, pipelineError(KindSourceUnavailable, "failed to fetch report file", err)
	}
	log.Printf("[Extract] PDF downloaded: %d bytes", len(pdf))

	// 2. One-shot AI extraction
	rawText, err := o.ai.ExtractReport(ctx, pdf)
	if err != nil {
		return nil, pipelineError(KindProviderError, "AI extraction failed", err)
	}

	// 3. Strip fencing and parse
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(StripCodeFences(rawText)), &raw); err != nil {
		return nil, pipelineError(KindMalformedResponse, "AI response is not valid JSON", err)
	}

	// 4. Normalize, then validate
	normalized := Normalize(raw)
	if err := Validate(normalized); err != nil {
		return nil, pipelineError(KindValidationError, "extracted data failed validation", err)
	}
	confidence := ExtractionConfidence(normalized)
	log.Printf("[Extract] Report %s validated, confidence %d%%", reportID, confidence)

	// 5. Persist: report scalars first, then systems, then recommendations.
	// Child inserts are skipped when rows already exist so a retried run
	// cannot duplicate them.
	snapshot, _ := json.Marshal(normalized)
	patch := map[string]interface{}{
		"chronological_age":   normalized.ChronologicalAge,
		"overall_system_age":  normalized.OverallSystemAge,
		"aging_rate":          normalized.AgingRate,
		"aging_stage":         normalized.AgingStage,
		"raw_extraction_data": snapshot,
	}
	if normalized.OverallBioNoise != nil {
		patch["overall_bionoise"] = *normalized.OverallBioNoise
	}
	if err := o.store.UpdateReport(ctx, reportID, patch); err != nil {
		return nil, pipelineError(KindPersistenceError, "failed to update report", err)
	}

	systems := buildBodySystems(reportID, normalized)
	if count, err := o.store.CountBodySystems(ctx, reportID); err != nil {
		return nil, pipelineError(KindPersistenceError, "failed to check existing body systems", err)
	} else if count == 0 {
		if err := o.store.InsertBodySystems(ctx, systems); err != nil {
			return nil, pipelineError(KindPersistenceError, "failed to insert body systems", err)
		}
	} else {
		log.Printf("[Extract] Report %s already has %d body systems, skipping insert", reportID, count)
	}

	recs := buildRecommendations(reportID, normalized)
	if count, err := o.store.CountRecommendations(ctx, reportID); err != nil {
		return nil, pipelineError(KindPersistenceError, "failed to check existing recommendations", err)
	} else if count == 0 && len(recs) > 0 {
		if err := o.store.InsertRecommendations(ctx, recs); err != nil {
			return nil, pipelineError(KindPersistenceError, "failed to insert recommendations", err)
		}
	}

	// 6. Final status flip
	if err := o.store.UpdateReport(ctx, reportID, map[string]interface{}{
		"extraction_status":     string(models.ExtractionCompleted),
		"extraction_confidence": confidence,
	}); err != nil {
		return nil, pipelineError(KindPersistenceError, "failed to mark report completed", err)
	}

	return &Result{
		ReportID:                reportID,
		Confidence:              confidence,
		SystemsInserted:         len(systems),
		RecommendationsInserted: len(recs),
	}, nil
}

// markFailed records the failure on the report row. Best-effort: if this write
// fails too there is nothing left to recover, so it is only logged.
func (o *Orchestrator) markFailed(ctx context.Context, reportID string, cause error) {
	payload := map[string]interface{}{
		"error":     cause.Error(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	var extErr *ExtractionError
	if errors.As(cause, &extErr) {
		payload["kind"] = string(extErr.Kind)
		var valErr *ValidationError
		if errors.As(extErr.Cause, &valErr) {
			payload["fields"] = valErr.Fields
		}
	}
	raw, _ := json.Marshal(payload)

	err := o.store.UpdateReport(ctx, reportID, map[string]interface{}{
		"extraction_status":   string(models.ExtractionFailed),
		"raw_extraction_data": raw,
	})
	if err != nil {
		log.Printf("[Extract] ⚠️ Could not mark report %s as failed: %v", reportID, err)
	}
}

func (o *Orchestrator) notify(userID, reportID, status string, confidence *int) {
	if o.listener != nil {
		o.listener.ExtractionStatusChanged(userID, reportID, status, confidence)
	}
}

func buildBodySystems(reportID string, data *NormalizedReport) []models.BodySystem {
	systems := make([]models.BodySystem, 0, len(data.BodySystems))
	for _, sys := range data.BodySystems {
		systems = append(systems, models.BodySystem{
			ReportID:       reportID,
			SystemName:     sys.SystemName,
			SystemAge:      sys.SystemAge,
			BioNoise:       sys.BioNoise,
			AgeDifference:  sys.AgeDifference,
			AgingStage:     sys.AgingStage,
			AgingSpeed:     sys.AgingSpeed,
			PercentileRank: sys.PercentileRank,
		})
	}
	return systems
}

func buildRecommendations(reportID string, data *NormalizedReport) []models.Recommendation {
	var recs []models.Recommendation
	appendCategory := func(recType models.RecommendationType, entries []NormalizedRecommendation) {
		for _, rec := range entries {
			recs = append(recs, models.Recommendation{
				ReportID:         reportID,
				Type:             string(recType),
				Title:            rec.Title,
				Description:      rec.Description,
				TargetSystems:    rec.TargetSystems,
				ClinicalBenefits: rec.ClinicalBenefits,
			})
		}
	}
	appendCategory(models.RecommendationNutritional, data.Recommendations.Nutritional)
	appendCategory(models.RecommendationFitness, data.Recommendations.Fitness)
	appendCategory(models.RecommendationTherapy, data.Recommendations.Therapy)
	return recs
}

var (
	fencedJSONPattern = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")
	fencedPattern     = regexp.MustCompile("(?s)```\\s*(.*?)\\s*```")
)

// StripCodeFences removes markdown code fencing the AI provider sometimes
// wraps around its JSON output despite being told not to.
func StripCodeFences(s string) string {
	if strings.Contains(s, "```json") {
		if m := fencedJSONPattern.FindStringSubmatch(s); len(m) > 1 {
			return strings.TrimSpace(m[1])
		}
	} else if strings.Contains(s, "```") {
		if m := fencedPattern.FindStringSubmatch(s); len(m) > 1 {
			return strings.TrimSpace(m[1])
		}
	}
	return strings.TrimSpace(s)
}
