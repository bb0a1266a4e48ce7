package extraction

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, raw string) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(raw), &m))
	return m
}

func TestNormalizeSystemName(t *testing.T) {
	assert.Equal(t, "Cardiac System", NormalizeSystemName("Cardiac System (Heart)"))
	assert.Equal(t, "Immune System", NormalizeSystemName("  Immune System  "))
	assert.Equal(t, "Blood Sugar & Insulin Control", NormalizeSystemName("Blood Sugar and Insulin Control"))
	assert.Equal(t, "Blood Sugar & Insulin Control", NormalizeSystemName("blood sugar and insulin control (glycemic)"))
	assert.Equal(t, "Metabolism", NormalizeSystemName("Metabolism"))
}

func TestStageForAgeDifference(t *testing.T) {
	assert.Equal(t, "Prime", StageForAgeDifference(-0.1))
	assert.Equal(t, "Plateau", StageForAgeDifference(0))
	assert.Equal(t, "Plateau", StageForAgeDifference(3))
	assert.Equal(t, "Accelerated", StageForAgeDifference(3.0001))
	assert.Equal(t, "Accelerated", StageForAgeDifference(12))
}

func TestNormalizeAbsorbsKeyVariants(t *testing.T) {
	raw := decode(t, `{
		"chronological_age": 42,
		"overall_system_age": 45.5,
		"aging_rate": 1.08,
		"aging_stage": "Accelerated",
		"overall_bionoise": 12.5,
		"body_systems": [
			{"system_name": "Cardiac System", "system_age": 48, "bio_noise": 9.1}
		],
		"recommendations": {
			"nutrition": [{"title": "More omega-3", "target_systems": ["Cardiac System"]}],
			"exercise": [{"title": "Zone 2 training"}],
			"therapies": [{"title": "Sauna"}]
		}
	}`)

	got := Normalize(raw)

	assert.Equal(t, 42.0, got.ChronologicalAge)
	assert.Equal(t, 45.5, got.OverallSystemAge)
	assert.Equal(t, 1.08, got.AgingRate)
	assert.Equal(t, "Accelerated", got.AgingStage)
	require.NotNil(t, got.OverallBioNoise)
	assert.Equal(t, 12.5, *got.OverallBioNoise)

	require.Len(t, got.BodySystems, 1)
	sys := got.BodySystems[0]
	assert.Equal(t, "Cardiac System", sys.SystemName)
	assert.Equal(t, 48.0, sys.SystemAge)
	require.NotNil(t, sys.BioNoise)
	assert.Equal(t, 9.1, *sys.BioNoise)

	require.Len(t, got.Recommendations.Nutritional, 1)
	assert.Equal(t, "More omega-3", got.Recommendations.Nutritional[0].Title)
	assert.Equal(t, []string{"Cardiac System"}, got.Recommendations.Nutritional[0].TargetSystems)
	assert.Len(t, got.Recommendations.Fitness, 1)
	assert.Len(t, got.Recommendations.Therapy, 1)
}

func TestNormalizeDerivesDifferenceAndStage(t *testing.T) {
	raw := decode(t, `{
		"chronologicalAge": 40,
		"bodySystems": [
			{"name": "Cardiac System", "age": 37},
			{"name": "Hepatic System", "age": 42.5},
			{"name": "Metabolism", "age": 48}
		]
	}`)

	got := Normalize(raw)

	require.Len(t, got.BodySystems, 3)
	assert.Equal(t, -3.0, got.BodySystems[0].AgeDifference)
	assert.Equal(t, "Prime", got.BodySystems[0].AgingStage)
	assert.Equal(t, 2.5, got.BodySystems[1].AgeDifference)
	assert.Equal(t, "Plateau", got.BodySystems[1].AgingStage)
	assert.Equal(t, 8.0, got.BodySystems[2].AgeDifference)
	assert.Equal(t, "Accelerated", got.BodySystems[2].AgingStage)
}

func TestNormalizeKeepsExplicitDifferenceAndStage(t *testing.T) {
	raw := decode(t, `{
		"chronologicalAge": 40,
		"bodySystems": [
			{"systemName": "Cardiac System", "systemAge": 50, "ageDifference": 1.5, "agingStage": "Prime"}
		]
	}`)

	got := Normalize(raw)

	require.Len(t, got.BodySystems, 1)
	assert.Equal(t, 1.5, got.BodySystems[0].AgeDifference)
	assert.Equal(t, "Prime", got.BodySystems[0].AgingStage)
}

func TestNormalizeDefaults(t *testing.T) {
	got := Normalize(map[string]interface{}{})

	assert.Equal(t, 0.0, got.ChronologicalAge)
	assert.Equal(t, "Plateau", got.AgingStage)
	assert.Nil(t, got.OverallBioNoise)
	assert.NotNil(t, got.BodySystems)
	assert.Empty(t, got.BodySystems)
	assert.NotNil(t, got.Recommendations.Nutritional)
	assert.NotNil(t, got.Recommendations.Fitness)
	assert.NotNil(t, got.Recommendations.Therapy)
	assert.NotNil(t, got.TopAgingFactors)
}

func TestNormalizeMissingSystemAgeBecomesNaN(t *testing.T) {
	raw := decode(t, `{
		"chronologicalAge": 40,
		"bodySystems": [
			{"systemName": "Cardiac System"}
		]
	}`)

	got := Normalize(raw)

	require.Len(t, got.BodySystems, 1)
	assert.True(t, math.IsNaN(got.BodySystems[0].SystemAge),
		"a system without an age must not look like a valid 0-year-old one")
}

func TestNormalizeIsIdempotent(t *testing.T) {
	raw := decode(t, `{
		"chronologicalAge": 40,
		"overallSystemAge": 43,
		"agingRate": 1.05,
		"agingStage": "Plateau",
		"bodySystems": [
			{"systemName": "Cardiac System (Heart)", "systemAge": 48, "bioNoise": 7}
		],
		"recommendations": {
			"nutritional": [{"title": "Fiber", "targetSystems": ["Digestive System"]}]
		}
	}`)

	first := Normalize(raw)

	// Re-encode the canonical result and normalize again; nothing may change.
	encoded, err := json.Marshal(first)
	require.NoError(t, err)
	second := Normalize(decode(t, string(encoded)))

	assert.Equal(t, first, second)
}

func TestNormalizeTopAgingFactors(t *testing.T) {
	raw := decode(t, `{
		"chronologicalAge": 40,
		"top_aging_factors": [
			{"system_name": "Metabolism (Glucose)", "system_age": 51, "reason": "elevated markers"}
		]
	}`)

	got := Normalize(raw)

	require.Len(t, got.TopAgingFactors, 1)
	assert.Equal(t, "Metabolism", got.TopAgingFactors[0].SystemName)
	assert.Equal(t, 51.0, got.TopAgingFactors[0].SystemAge)
	assert.Equal(t, "elevated markers", got.TopAgingFactors[0].Reason)
}
