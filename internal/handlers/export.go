package handlers

import (
	"fmt"
	"net/http"

	"github.com/systemage/systemagego/internal/export"
	"github.com/systemage/systemagego/internal/models"
)

// exportReport streams a PDF summary of a completed report.
func (r *Router) exportReport(w http.ResponseWriter, req *http.Request) {
	report, ok := r.loadOwnedReport(w, req, true)
	if !ok {
		return
	}
	if report.ExtractionStatus != string(models.ExtractionCompleted) {
		respondError(w, http.StatusConflict, "Report extraction has not completed yet")
		return
	}

	reportURL := fmt.Sprintf("%s/reports/%s", r.cfg.Storage.PublicBaseURL, report.ID)
	data, err := export.GenerateReportSummaryPDF(report, reportURL)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to generate PDF")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", exportFilename(report.ID)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// exportFilename builds the download filename from a short report ID prefix.
// IDs are uuids in practice, but nothing here may assume their length.
func exportFilename(reportID string) string {
	if len(reportID) > 8 {
		reportID = reportID[:8]
	}
	return fmt.Sprintf("systemage-summary-%s.pdf", reportID)
}
