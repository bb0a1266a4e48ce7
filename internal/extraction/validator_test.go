package extraction

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systemage/systemagego/internal/models"
)

func completeReport() *NormalizedReport {
	noise := 8.0
	report := &NormalizedReport{
		ChronologicalAge: 42,
		OverallSystemAge: 44,
		AgingRate:        1.05,
		AgingStage:       "Plateau",
		Recommendations: NormalizedRecommendations{
			Nutritional: []NormalizedRecommendation{{Title: "Fiber"}},
			Fitness:     []NormalizedRecommendation{{Title: "Zone 2"}},
			Therapy:     []NormalizedRecommendation{{Title: "Sauna"}},
		},
	}
	for _, name := range models.BodySystemNames {
		report.BodySystems = append(report.BodySystems, NormalizedBodySystem{
			SystemName:    name,
			SystemAge:     44,
			BioNoise:      &noise,
			AgeDifference: 2,
			AgingStage:    "Plateau",
		})
	}
	return report
}

func TestValidateAcceptsCompleteReport(t *testing.T) {
	assert.NoError(t, Validate(completeReport()))
}

func TestValidateCollectsAllViolations(t *testing.T) {
	report := completeReport()
	report.ChronologicalAge = 0
	report.AgingRate = -1
	report.AgingStage = "Sideways"
	report.BodySystems[0].SystemName = "Chakra Alignment"
	report.BodySystems[3].AgingStage = "Turbo"

	err := Validate(report)
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	paths := make([]string, len(valErr.Fields))
	for i, f := range valErr.Fields {
		paths[i] = f.Path
	}
	assert.ElementsMatch(t, []string{
		"chronologicalAge",
		"agingRate",
		"agingStage",
		"bodySystems[0].systemName",
		"bodySystems[3].agingStage",
	}, paths)
	assert.Contains(t, err.Error(), "bodySystems[0].systemName")
}

func TestValidateRejectsUnknownSystemEvenAfterNormalization(t *testing.T) {
	report := completeReport()
	report.BodySystems[0].SystemName = "Cardiac"

	err := Validate(report)
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	require.Len(t, valErr.Fields, 1)
	assert.Equal(t, "bodySystems[0].systemName", valErr.Fields[0].Path)
}

func TestValidateRejectsSystemWithoutAge(t *testing.T) {
	raw := decode(t, `{
		"chronologicalAge": 42,
		"overallSystemAge": 44,
		"agingRate": 1.05,
		"agingStage": "Plateau",
		"bodySystems": [
			{"systemName": "Cardiac System"}
		]
	}`)

	err := Validate(Normalize(raw))
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	require.Len(t, valErr.Fields, 1)
	assert.Equal(t, "bodySystems[0].systemAge", valErr.Fields[0].Path)
	assert.Equal(t, "must be a number", valErr.Fields[0].Message)
}

func TestValidateRejectsNaNSystemAge(t *testing.T) {
	report := completeReport()
	report.BodySystems[2].SystemAge = math.NaN()

	err := Validate(report)
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	require.Len(t, valErr.Fields, 1)
	assert.Equal(t, "bodySystems[2].systemAge", valErr.Fields[0].Path)
}

func TestExtractionConfidenceCompleteReport(t *testing.T) {
	assert.Equal(t, 100, ExtractionConfidence(completeReport()))
}

func TestExtractionConfidenceMissingBioNoise(t *testing.T) {
	report := completeReport()
	report.BodySystems[0].BioNoise = nil
	report.BodySystems[1].BioNoise = nil
	assert.Equal(t, 96, ExtractionConfidence(report))
}

func TestExtractionConfidenceRecommendationPenalties(t *testing.T) {
	report := completeReport()
	report.Recommendations.Therapy = nil
	report.Recommendations.Fitness = nil
	assert.Equal(t, 90, ExtractionConfidence(report), "fewer than 3 recommendations")

	report.Recommendations.Nutritional = nil
	assert.Equal(t, 80, ExtractionConfidence(report), "no recommendations at all")
}

func TestExtractionConfidenceIncompleteSystems(t *testing.T) {
	report := completeReport()
	report.BodySystems = report.BodySystems[:10]
	assert.Equal(t, 70, ExtractionConfidence(report))

	// Out-of-range ages don't count as covered systems either
	report = completeReport()
	report.BodySystems[0].SystemAge = 0
	assert.Equal(t, 70, ExtractionConfidence(report))

	report = completeReport()
	report.BodySystems[0].SystemAge = 200
	assert.Equal(t, 70, ExtractionConfidence(report))
}

func TestExtractionConfidenceStacksAndClamps(t *testing.T) {
	report := completeReport()
	report.Recommendations = NormalizedRecommendations{}
	report.BodySystems = report.BodySystems[:5]
	for i := range report.BodySystems {
		report.BodySystems[i].BioNoise = nil
	}
	// 100 - 5*2 - 20 - 30
	assert.Equal(t, 40, ExtractionConfidence(report))

	// Enough missing values drive the score to the floor, never below it
	report = &NormalizedReport{}
	for i := 0; i < 40; i++ {
		report.BodySystems = append(report.BodySystems, NormalizedBodySystem{})
	}
	assert.Equal(t, 0, ExtractionConfidence(report))
}
