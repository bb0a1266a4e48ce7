// Package export renders a compact PDF summary of an extracted report, with a
// QR code linking back to the full view in the app.
package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/systemage/systemagego/internal/models"
)

var titler = cases.Title(language.English)

// GenerateReportSummaryPDF creates a one-page A4 summary of a completed
// report. reportURL is embedded as a QR code in the header.
func GenerateReportSummaryPDF(report *models.Report, reportURL string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	// Header with QR link back to the app
	pdf.SetFont("Arial", "B", 18)
	pdf.CellFormat(150, 10, "SystemAge Report Summary", "", 0, "L", false, 0, "")
	if reportURL != "" {
		qrPng, err := qrcode.Encode(reportURL, qrcode.Medium, 256)
		if err != nil {
			return nil, fmt.Errorf("failed to generate QR code: %w", err)
		}
		opts := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
		pdf.RegisterImageOptionsReader("report_qr", opts, bytes.NewReader(qrPng))
		pdf.ImageOptions("report_qr", 170, 12, 25, 25, false, opts, 0, "")
	}
	pdf.Ln(14)

	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Report %s, uploaded %s",
		report.ID, report.CreatedAt.Format("2006-01-02")), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	// Overall scores
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, "Overall", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	overall := [][2]string{
		{"Chronological age", fmt.Sprintf("%.1f years", report.ChronologicalAge)},
		{"System age", fmt.Sprintf("%.1f years", report.OverallSystemAge)},
		{"Aging rate", fmt.Sprintf("%.2fx", report.AgingRate)},
		{"Aging stage", report.AgingStage},
	}
	if report.ExtractionConfidence != nil {
		overall = append(overall, [2]string{"Extraction confidence", fmt.Sprintf("%d%%", *report.ExtractionConfidence)})
	}
	for _, row := range overall {
		pdf.CellFormat(60, 7, row[0], "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 7, row[1], "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	// Body systems table
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, "Body Systems", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(235, 235, 235)
	pdf.CellFormat(85, 7, "System", "1", 0, "L", true, 0, "")
	pdf.CellFormat(30, 7, "Age", "1", 0, "C", true, 0, "")
	pdf.CellFormat(30, 7, "Difference", "1", 0, "C", true, 0, "")
	pdf.CellFormat(35, 7, "Stage", "1", 1, "C", true, 0, "")

	pdf.SetFont("Arial", "", 9)
	for _, sys := range report.Systems {
		pdf.CellFormat(85, 6, sys.SystemName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.1f", sys.SystemAge), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%+.1f", sys.AgeDifference), "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 6, sys.AgingStage, "1", 1, "C", false, 0, "")
	}
	pdf.Ln(4)

	// Recommendations grouped by category
	if len(report.Recommendations) > 0 {
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 8, "Recommendations", "", 1, "L", false, 0, "")
		for _, recType := range []models.RecommendationType{
			models.RecommendationNutritional,
			models.RecommendationFitness,
			models.RecommendationTherapy,
		} {
			entries := recommendationsOfType(report.Recommendations, recType)
			if len(entries) == 0 {
				continue
			}
			pdf.SetFont("Arial", "B", 10)
			pdf.CellFormat(0, 7, titler.String(string(recType)), "", 1, "L", false, 0, "")
			pdf.SetFont("Arial", "", 9)
			for _, rec := range entries {
				pdf.CellFormat(0, 5, "- "+rec.Title, "", 1, "L", false, 0, "")
			}
			pdf.Ln(1)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func recommendationsOfType(recs []models.Recommendation, recType models.RecommendationType) []models.Recommendation {
	var out []models.Recommendation
	for _, rec := range recs {
		if rec.Type == string(recType) {
			out = append(out, rec)
		}
	}
	return out
}
