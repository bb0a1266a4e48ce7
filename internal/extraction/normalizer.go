// Package extraction implements the report ingestion pipeline: fetch the
// uploaded PDF, extract structured data through the AI collaborator, normalize
// and validate it, then persist the resulting rows.
package extraction

import (
	"math"
	"regexp"
	"strings"
)

// NormalizedReport is the canonical shape of an extracted report. Every field
// is always present after Normalize so the validator only has to care about
// type and range correctness, never about missing keys.
type NormalizedReport struct {
	ChronologicalAge float64                    `json:"chronologicalAge"`
	OverallSystemAge float64                    `json:"overallSystemAge"`
	AgingRate        float64                    `json:"agingRate"`
	AgingStage       string                     `json:"agingStage"`
	OverallBioNoise  *float64                   `json:"overallBioNoise"`
	BodySystems      []NormalizedBodySystem     `json:"bodySystems"`
	Recommendations  NormalizedRecommendations  `json:"recommendations"`
	TopAgingFactors  []NormalizedTopAgingFactor `json:"topAgingFactors"`
}

// NormalizedBodySystem is one canonical body-system entry.
type NormalizedBodySystem struct {
	SystemName     string   `json:"systemName"`
	SystemAge      float64  `json:"systemAge"`
	BioNoise       *float64 `json:"bioNoise"`
	AgeDifference  float64  `json:"ageDifference"`
	AgingStage     string   `json:"agingStage"`
	AgingSpeed     *float64 `json:"agingSpeed"`
	PercentileRank *float64 `json:"percentileRank"`
}

// NormalizedRecommendations holds the three fixed recommendation categories.
type NormalizedRecommendations struct {
	Nutritional []NormalizedRecommendation `json:"nutritional"`
	Fitness     []NormalizedRecommendation `json:"fitness"`
	Therapy     []NormalizedRecommendation `json:"therapy"`
}

// NormalizedRecommendation is one canonical recommendation entry.
type NormalizedRecommendation struct {
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	TargetSystems    []string `json:"targetSystems"`
	ClinicalBenefits string   `json:"clinicalBenefits"`
}

// NormalizedTopAgingFactor is one canonical top-aging-factor entry.
type NormalizedTopAgingFactor struct {
	SystemName string  `json:"systemName"`
	SystemAge  float64 `json:"systemAge"`
	Reason     string  `json:"reason"`
}

var parentheticalPattern = regexp.MustCompile(`\s*\(.*?\)\s*`)

// NormalizeSystemName strips parenthetical qualifiers from a system name and
// resolves the one known alias the reports use for the glycemic system.
func NormalizeSystemName(name string) string {
	trimmed := strings.TrimSpace(parentheticalPattern.ReplaceAllString(name, ""))
	if strings.EqualFold(trimmed, "blood sugar and insulin control") {
		return "Blood Sugar & Insulin Control"
	}
	return trimmed
}

// StageForAgeDifference derives an aging stage from a system's age difference.
// These thresholds are the single authoritative classification rule for the
// whole service: below 0 is Prime, up to +3 years is Plateau, beyond is
// Accelerated.
func StageForAgeDifference(diff float64) string {
	switch {
	case diff < 0:
		return "Prime"
	case diff <= 3:
		return "Plateau"
	default:
		return "Accelerated"
	}
}

// Normalize maps a loosely-typed extraction payload onto the canonical shape.
// It accepts camelCase and snake_case key variants plus the synonyms the AI
// collaborator is known to produce, defaults absent numerics to 0 (except a
// system's systemAge, which becomes NaN so validation fails) and the absent
// stage to Plateau, and derives ageDifference and per-system stages when the
// source omits them. Pure function; calling it on an already canonical
// payload is a no-op.
func Normalize(raw map[string]interface{}) *NormalizedReport {
	chronologicalAge, _ := asFloat(pick(raw, "chronologicalAge", "chronological_age"))

	out := &NormalizedReport{
		ChronologicalAge: chronologicalAge,
		AgingStage:       "Plateau",
		BodySystems:      []NormalizedBodySystem{},
		Recommendations: NormalizedRecommendations{
			Nutritional: []NormalizedRecommendation{},
			Fitness:     []NormalizedRecommendation{},
			Therapy:     []NormalizedRecommendation{},
		},
		TopAgingFactors: []NormalizedTopAgingFactor{},
	}

	if v, ok := asFloat(pick(raw, "overallSystemAge", "overall_system_age")); ok {
		out.OverallSystemAge = v
	}
	if v, ok := asFloat(pick(raw, "agingRate", "aging_rate")); ok {
		out.AgingRate = v
	}
	if s, ok := asString(pick(raw, "agingStage", "aging_stage")); ok {
		out.AgingStage = s
	}
	out.OverallBioNoise = asFloatPtr(pick(raw, "overallBioNoise", "overall_bionoise", "overall_bio_noise"))

	for _, entry := range asMapSlice(pick(raw, "bodySystems", "body_systems", "systems")) {
		out.BodySystems = append(out.BodySystems, normalizeSystem(entry, chronologicalAge))
	}

	recs, _ := asMap(pick(raw, "recommendations"))
	out.Recommendations.Nutritional = normalizeRecommendations(pick(recs, "nutritional", "nutrition"))
	out.Recommendations.Fitness = normalizeRecommendations(pick(recs, "fitness", "exercise"))
	out.Recommendations.Therapy = normalizeRecommendations(pick(recs, "therapy", "therapies"))

	for _, entry := range asMapSlice(pick(raw, "topAgingFactors", "top_aging_factors")) {
		factor := NormalizedTopAgingFactor{}
		if s, ok := asString(pick(entry, "systemName", "system_name", "name")); ok {
			factor.SystemName = NormalizeSystemName(s)
		}
		factor.SystemAge, _ = asFloat(pick(entry, "systemAge", "system_age"))
		factor.Reason, _ = asString(pick(entry, "reason"))
		out.TopAgingFactors = append(out.TopAgingFactors, factor)
	}

	return out
}

func normalizeSystem(entry map[string]interface{}, chronologicalAge float64) NormalizedBodySystem {
	sys := NormalizedBodySystem{}

	if s, ok := asString(pick(entry, "systemName", "system_name", "name")); ok {
		sys.SystemName = NormalizeSystemName(s)
	}
	// An absent systemAge stays NaN so the validator rejects the system
	// instead of treating it as a newborn-aged one.
	if v, ok := asFloat(pick(entry, "systemAge", "system_age", "age")); ok {
		sys.SystemAge = v
	} else {
		sys.SystemAge = math.NaN()
	}
	sys.BioNoise = asFloatPtr(pick(entry, "bioNoise", "bio_noise", "bionoise"))
	sys.AgingSpeed = asFloatPtr(pick(entry, "agingSpeed", "aging_speed", "agingRate", "aging_rate"))
	sys.PercentileRank = asFloatPtr(pick(entry, "percentileRank", "percentile_rank"))

	if v, ok := asFloat(pick(entry, "ageDifference", "age_difference")); ok {
		sys.AgeDifference = v
	} else {
		sys.AgeDifference = sys.SystemAge - chronologicalAge
	}

	if s, ok := asString(pick(entry, "agingStage", "aging_stage")); ok {
		sys.AgingStage = s
	} else {
		sys.AgingStage = StageForAgeDifference(sys.AgeDifference)
	}

	return sys
}

func normalizeRecommendations(v interface{}) []NormalizedRecommendation {
	out := []NormalizedRecommendation{}
	for _, entry := range asMapSlice(v) {
		rec := NormalizedRecommendation{TargetSystems: []string{}}
		rec.Title, _ = asString(pick(entry, "title"))
		rec.Description, _ = asString(pick(entry, "description"))
		rec.ClinicalBenefits, _ = asString(pick(entry, "clinicalBenefits", "clinical_benefits"))
		if targets, ok := pick(entry, "targetSystems", "target_systems").([]interface{}); ok {
			for _, t := range targets {
				if s, ok := t.(string); ok {
					rec.TargetSystems = append(rec.TargetSystems, s)
				}
			}
		}
		out = append(out, rec)
	}
	return out
}

// pick returns the first non-nil value among the given keys.
func pick(m map[string]interface{}, keys ...string) interface{} {
	if m == nil {
		return nil
	}
	for _, key := range keys {
		if v, ok := m[key]; ok && v != nil {
			return v
		}
	}
	return nil
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func asFloatPtr(v interface{}) *float64 {
	if n, ok := asFloat(v); ok {
		return &n
	}
	return nil
}

func asString(v interface{}) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asMap(v interface{}) (map[string]interface{}, bool) {
	m, ok := v.(map[string]interface{})
	return m, ok
}

func asMapSlice(v interface{}) []map[string]interface{} {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]interface{}); ok {
			out = append(out, m)
		}
	}
	return out
}
