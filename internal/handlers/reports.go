package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/systemage/systemagego/internal/extraction"
	"github.com/systemage/systemagego/internal/middleware"
	"github.com/systemage/systemagego/internal/models"
	"github.com/systemage/systemagego/internal/store"
	"github.com/systemage/systemagego/internal/utils"
)

// maxUploadSize caps report uploads at 50MB.
const maxUploadSize = 50 << 20

// uploadReport accepts a PDF, stores it and kicks off extraction in the
// background. The response returns immediately with the pending report; the
// client follows progress via /status or the websocket stream.
func (r *Router) uploadReport(w http.ResponseWriter, req *http.Request) {
	userID := middleware.UserIDFromContext(req.Context())

	req.Body = http.MaxBytesReader(w, req.Body, maxUploadSize)
	if err := req.ParseMultipartForm(maxUploadSize); err != nil {
		respondError(w, http.StatusRequestEntityTooLarge, "File exceeds the 50MB limit")
		return
	}

	file, header, err := req.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Missing file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Failed to read upload")
		return
	}
	if !utils.IsPDFFile(header.Filename, data) {
		respondError(w, http.StatusUnsupportedMediaType, "Only PDF files are accepted")
		return
	}

	objectPath := utils.GenerateUniquePDFFilename(userID)
	fileURL, err := r.blobs.Upload(req.Context(), objectPath, data, "application/pdf")
	if err != nil {
		log.Printf("⚠️ Upload to storage failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to store file")
		return
	}

	report := &models.Report{
		UserID:           userID,
		PDFUrl:           fileURL,
		OriginalFilename: header.Filename,
		ExtractionStatus: string(models.ExtractionPending),
	}
	if err := r.store.CreateReport(req.Context(), report); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create report")
		return
	}

	r.startExtraction(report.ID, fileURL, userID)

	respondJSON(w, http.StatusCreated, report)
}

// listReports returns the caller's reports, newest first.
func (r *Router) listReports(w http.ResponseWriter, req *http.Request) {
	userID := middleware.UserIDFromContext(req.Context())
	reports, err := r.store.ListReports(req.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list reports")
		return
	}
	respondJSON(w, http.StatusOK, reports)
}

// getReport returns one report with its systems and recommendations.
func (r *Router) getReport(w http.ResponseWriter, req *http.Request) {
	report, ok := r.loadOwnedReport(w, req, true)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// deleteReport removes a report, its child rows and the stored file.
func (r *Router) deleteReport(w http.ResponseWriter, req *http.Request) {
	report, ok := r.loadOwnedReport(w, req, false)
	if !ok {
		return
	}

	if err := r.store.DeleteReport(req.Context(), report.ID); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to delete report")
		return
	}
	if err := r.blobs.Delete(req.Context(), report.PDFUrl); err != nil {
		log.Printf("⚠️ Could not delete stored file for report %s: %v", report.ID, err)
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// reportStatus returns the extraction lifecycle fields only, for polling.
func (r *Router) reportStatus(w http.ResponseWriter, req *http.Request) {
	report, ok := r.loadOwnedReport(w, req, false)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"reportId":             report.ID,
		"extractionStatus":     report.ExtractionStatus,
		"extractionConfidence": report.ExtractionConfidence,
		"updatedAt":            report.UpdatedAt,
	})
}

// retriggerExtraction restarts the pipeline on a pending or failed report.
func (r *Router) retriggerExtraction(w http.ResponseWriter, req *http.Request) {
	report, ok := r.loadOwnedReport(w, req, false)
	if !ok {
		return
	}

	_, err := r.extractor.Start(context.Background(), report.ID, report.PDFUrl, report.UserID)
	if errors.Is(err, extraction.ErrAlreadyClaimed) {
		respondError(w, http.StatusConflict, "Report is already processing or completed")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to start extraction")
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{
		"reportId": report.ID,
		"status":   string(models.ExtractionProcessing),
	})
}

// startExtraction fires the pipeline without waiting on it. The request
// context would be cancelled as soon as the upload response is written, so
// the run gets a background context.
func (r *Router) startExtraction(reportID, fileURL, userID string) {
	if r.extractor == nil {
		log.Printf("⚠️ Extraction not configured, report %s stays pending", reportID)
		return
	}
	if _, err := r.extractor.Start(context.Background(), reportID, fileURL, userID); err != nil {
		log.Printf("⚠️ Could not start extraction for report %s: %v", reportID, err)
	}
}

// loadOwnedReport loads the report in the URL and enforces that it belongs to
// the caller (admins may read any). Writes the error response itself.
func (r *Router) loadOwnedReport(w http.ResponseWriter, req *http.Request, withRelations bool) (*models.Report, bool) {
	reportID := mux.Vars(req)["id"]
	userID := middleware.UserIDFromContext(req.Context())

	var report *models.Report
	var err error
	if withRelations {
		report, err = r.store.GetReportWithRelations(req.Context(), reportID)
	} else {
		report, err = r.store.GetReport(req.Context(), reportID)
	}
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Report not found")
		return nil, false
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load report")
		return nil, false
	}

	if report.UserID != userID && !isAdmin(req) {
		// Don't leak existence of other users' reports
		respondError(w, http.StatusNotFound, "Report not found")
		return nil, false
	}
	return report, true
}

func isAdmin(req *http.Request) bool {
	claims, ok := middleware.ClaimsFromContext(req.Context())
	if !ok {
		return false
	}
	role, _ := claims["role"].(string)
	return role == "admin"
}

// reportJSON renders the extracted data of a completed report for the chat
// prompt.
func reportJSON(report *models.Report) string {
	payload := map[string]interface{}{
		"chronologicalAge": report.ChronologicalAge,
		"overallSystemAge": report.OverallSystemAge,
		"agingRate":        report.AgingRate,
		"agingStage":       report.AgingStage,
		"overallBioNoise":  report.OverallBioNoise,
		"systems":          report.Systems,
		"recommendations":  report.Recommendations,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "{}"
	}
	return string(data)
}
