package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AgingStage classifies how a system (or the whole body) is aging.
type AgingStage string

const (
	StagePrime       AgingStage = "Prime"
	StagePlateau     AgingStage = "Plateau"
	StageAccelerated AgingStage = "Accelerated"
)

// ValidAgingStage reports whether s is one of the three known stages.
func ValidAgingStage(s string) bool {
	switch AgingStage(s) {
	case StagePrime, StagePlateau, StageAccelerated:
		return true
	}
	return false
}

// ExtractionStatus tracks the lifecycle of a report extraction.
// Valid transitions: pending -> processing -> completed | failed.
type ExtractionStatus string

const (
	ExtractionPending    ExtractionStatus = "pending"
	ExtractionProcessing ExtractionStatus = "processing"
	ExtractionCompleted  ExtractionStatus = "completed"
	ExtractionFailed     ExtractionStatus = "failed"
)

// BodySystemNames is the closed set of 19 systems a SystemAge report covers.
var BodySystemNames = []string{
	"Auditory System",
	"Muscular System",
	"Blood Sugar & Insulin Control",
	"Neurodegeneration",
	"Skeletal System",
	"Reproductive System",
	"Cardiac System",
	"Respiratory System",
	"Digestive System",
	"Urinary System",
	"Hepatic System",
	"Blood and Vascular System",
	"Immune System",
	"Metabolism",
	"Oncogenesis",
	"Tissue Regeneration",
	"Fibrogenesis and Fibrosis",
	"Inflammatory Regulation",
	"Brain Health and Cognition",
}

// KnownBodySystem reports whether name is one of the 19 canonical systems.
func KnownBodySystem(name string) bool {
	for _, n := range BodySystemNames {
		if n == name {
			return true
		}
	}
	return false
}

// Report represents one uploaded SystemAge report and its extracted scores.
// Standardized: Go (PascalCase) -> DB (snake_case) -> JSON (camelCase)
type Report struct {
	ID               string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID           string `gorm:"type:uuid;not null;index" json:"userId"`
	PDFUrl           string `gorm:"column:pdf_url;not null" json:"pdfUrl"`
	OriginalFilename string `json:"originalFilename,omitempty"`

	// Global scores, zeroed until extraction completes
	ChronologicalAge float64 `gorm:"default:0" json:"chronologicalAge"`
	OverallSystemAge float64 `gorm:"default:0" json:"overallSystemAge"`
	AgingRate        float64 `gorm:"default:0" json:"agingRate"`
	AgingStage       string  `gorm:"default:'Plateau'" json:"agingStage"`
	OverallBioNoise  float64 `gorm:"column:overall_bionoise;default:0" json:"overallBioNoise"`

	// Extraction lifecycle
	ExtractionStatus     string         `gorm:"default:'pending';index" json:"extractionStatus"`
	ExtractionConfidence *int           `json:"extractionConfidence,omitempty"`
	RawExtractionData    datatypes.JSON `json:"rawExtractionData,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Systems         []BodySystem     `gorm:"foreignKey:ReportID" json:"systems,omitempty"`
	Recommendations []Recommendation `gorm:"foreignKey:ReportID" json:"recommendations,omitempty"`
}

// TableName specifies the table name for Report model
func (Report) TableName() string {
	return "systemage_reports"
}

// BodySystem is one extracted row per biological subsystem of a report.
type BodySystem struct {
	ID             string   `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ReportID       string   `gorm:"type:uuid;not null;index" json:"reportId"`
	SystemName     string   `gorm:"not null" json:"systemName"`
	SystemAge      float64  `gorm:"not null" json:"systemAge"`
	BioNoise       *float64 `gorm:"column:bionoise" json:"bioNoise"`
	AgeDifference  float64  `json:"ageDifference"`
	AgingStage     string   `json:"agingStage"`
	AgingSpeed     *float64 `json:"agingSpeed,omitempty"`
	PercentileRank *float64 `json:"percentileRank,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// TableName specifies the table name for BodySystem model
func (BodySystem) TableName() string {
	return "body_systems"
}

// RecommendationType partitions recommendations into the three report categories.
type RecommendationType string

const (
	RecommendationNutritional RecommendationType = "nutritional"
	RecommendationFitness     RecommendationType = "fitness"
	RecommendationTherapy     RecommendationType = "therapy"
)

// Recommendation is one extracted lifestyle/therapy suggestion of a report.
type Recommendation struct {
	ID               string                      `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ReportID         string                      `gorm:"type:uuid;not null;index" json:"reportId"`
	Type             string                      `gorm:"not null;index" json:"type"`
	Title            string                      `gorm:"not null" json:"title"`
	Description      string                      `gorm:"type:text" json:"description"`
	TargetSystems    datatypes.JSONSlice[string] `json:"targetSystems"`
	ClinicalBenefits string                      `gorm:"type:text" json:"clinicalBenefits"`

	CreatedAt time.Time `json:"createdAt"`
}

// TableName specifies the table name for Recommendation model
func (Recommendation) TableName() string {
	return "recommendations"
}
