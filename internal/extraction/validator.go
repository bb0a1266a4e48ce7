package extraction

import (
	"fmt"
	"math"
	"strings"

	"github.com/systemage/systemagego/internal/models"
)

// FieldError names one failing field path in a normalized payload.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationError collects every schema violation found in a payload, not just
// the first, so one log line carries the complete diagnostic.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = fmt.Sprintf("%s: %s", f.Path, f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validate schema-checks a normalized payload. It returns nil on success or a
// *ValidationError enumerating all violations.
func Validate(data *NormalizedReport) error {
	var fields []FieldError

	add := func(path, message string) {
		fields = append(fields, FieldError{Path: path, Message: message})
	}

	if !(data.ChronologicalAge > 0) {
		add("chronologicalAge", "must be a positive number")
	}
	if !(data.OverallSystemAge > 0) {
		add("overallSystemAge", "must be a positive number")
	}
	if !(data.AgingRate > 0) {
		add("agingRate", "must be a positive number")
	}
	if !models.ValidAgingStage(data.AgingStage) {
		add("agingStage", "must be one of Prime, Plateau, Accelerated")
	}

	for i, sys := range data.BodySystems {
		if !models.KnownBodySystem(sys.SystemName) {
			add(fmt.Sprintf("bodySystems[%d].systemName", i),
				fmt.Sprintf("unknown system name %q", sys.SystemName))
		}
		if math.IsNaN(sys.SystemAge) || math.IsInf(sys.SystemAge, 0) {
			add(fmt.Sprintf("bodySystems[%d].systemAge", i), "must be a number")
		}
		if !models.ValidAgingStage(sys.AgingStage) {
			add(fmt.Sprintf("bodySystems[%d].agingStage", i),
				"must be one of Prime, Plateau, Accelerated")
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// ExtractionConfidence scores how complete a validated payload looks, as an
// integer percentage. It is a completeness heuristic, not a statistical
// confidence: points are deducted for per-system noise values the extraction
// could not find, for thin recommendation sections, and for system ages
// outside a plausible human range.
func ExtractionConfidence(data *NormalizedReport) int {
	confidence := 100

	for _, sys := range data.BodySystems {
		if sys.BioNoise == nil {
			confidence -= 2
		}
	}

	totalRecommendations := len(data.Recommendations.Nutritional) +
		len(data.Recommendations.Fitness) +
		len(data.Recommendations.Therapy)
	if totalRecommendations == 0 {
		confidence -= 20
	} else if totalRecommendations < 3 {
		confidence -= 10
	}

	systemAgesInRange := 0
	for _, sys := range data.BodySystems {
		if sys.SystemAge > 0 && sys.SystemAge < 150 {
			systemAgesInRange++
		}
	}
	if systemAgesInRange < len(models.BodySystemNames) {
		confidence -= 30
	}

	if confidence < 0 {
		return 0
	}
	if confidence > 100 {
		return 100
	}
	return confidence
}
