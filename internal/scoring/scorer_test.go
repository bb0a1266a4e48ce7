package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/systemage/systemagego/internal/models"
)

func taggedProduct(targets ...string) *models.MarketplaceProduct {
	return &models.MarketplaceProduct{
		Name: "Test Product",
		Tags: []models.ProductTag{
			{Name: "scoring", SystemTargets: targets},
		},
	}
}

func TestScoreProductWithoutSystems(t *testing.T) {
	assert.Equal(t, 0, ScoreProduct(taggedProduct("Cardiac System"), nil))
}

func TestScoreProductAgeDifferenceTiers(t *testing.T) {
	systems := []models.BodySystem{
		{SystemName: "Cardiac System", AgeDifference: 7, AgingStage: "Plateau"},
		{SystemName: "Digestive System", AgeDifference: 2, AgingStage: "Plateau"},
		{SystemName: "Immune System", AgeDifference: -3, AgingStage: "Prime"},
	}

	assert.Equal(t, 10, ScoreProduct(taggedProduct("Cardiac System"), systems), "more than 5 years ahead")
	assert.Equal(t, 5, ScoreProduct(taggedProduct("Digestive System"), systems), "up to 5 years ahead")
	assert.Equal(t, 0, ScoreProduct(taggedProduct("Immune System"), systems), "younger than chronological age")
	assert.Equal(t, 0, ScoreProduct(taggedProduct("Auditory System"), systems), "system not in results")
}

func TestScoreProductAcceleratedBonusStacks(t *testing.T) {
	systems := []models.BodySystem{
		{SystemName: "Cardiac System", AgeDifference: 7, AgingStage: "Accelerated"},
	}
	// 10 for the large difference plus 5 for the Accelerated stage
	assert.Equal(t, 15, ScoreProduct(taggedProduct("Cardiac System"), systems))
}

func TestScoreProductSumsAcrossTargets(t *testing.T) {
	systems := []models.BodySystem{
		{SystemName: "Cardiac System", AgeDifference: 7, AgingStage: "Accelerated"},
		{SystemName: "Digestive System", AgeDifference: 2, AgingStage: "Plateau"},
	}
	product := taggedProduct("Cardiac System", "Digestive System")
	assert.Equal(t, 20, ScoreProduct(product, systems))
}

func TestScoreProductRequiresExactSystemName(t *testing.T) {
	systems := []models.BodySystem{
		{SystemName: "Blood and Vascular System", AgeDifference: 10, AgingStage: "Accelerated"},
		{SystemName: "Blood Sugar and Insulin Control", AgeDifference: 7, AgingStage: "Accelerated"},
	}

	// A partial target must not match any system, even when it is a
	// substring of several canonical names.
	assert.Equal(t, 0, ScoreProduct(taggedProduct("Blood"), systems))
	assert.Equal(t, 0, ScoreProduct(taggedProduct("blood and vascular system"), systems), "case differences do not match")
	assert.Equal(t, 15, ScoreProduct(taggedProduct("Blood and Vascular System"), systems))
}

func TestComputeCoverageDemoFallback(t *testing.T) {
	got := ComputeCoverage([]ProtocolItem{{Name: "Anything", Tags: []string{"x"}}}, nil)

	assert.Len(t, got, 3)
	assert.Equal(t, "Inflammatory Regulation", got[0].SystemName)
	assert.Equal(t, 65, got[0].Coverage)
	assert.True(t, got[0].Priority)
}

func TestComputeCoverage(t *testing.T) {
	systems := []models.BodySystem{
		{SystemName: "Cardiac System", AgeDifference: 7, AgingStage: "Plateau"},
		{SystemName: "Digestive System", AgeDifference: 1, AgingStage: "Accelerated"},
		{SystemName: "Immune System", AgeDifference: -2, AgingStage: "Prime"},
	}
	items := []ProtocolItem{
		{Name: "Omega-3", Tags: []string{"Cardiac System"}},
		{Name: "Probiotic", Tags: []string{"Digestive System"}},
		{Name: "Multivitamin", Tags: []string{"Cardiac System", "Digestive System"}},
	}

	got := ComputeCoverage(items, systems)

	// Immune System has no matching tags and is filtered out. Priority
	// follows the age difference (more than 5 years ahead), not the
	// stage label, so the Cardiac System sorts first.
	assert.Equal(t, []SystemCoverage{
		{SystemName: "Cardiac System", Coverage: 40, Priority: true},
		{SystemName: "Digestive System", Coverage: 40, Priority: false},
	}, got)
}

func TestComputeCoverageIgnoresPartialTags(t *testing.T) {
	systems := []models.BodySystem{
		{SystemName: "Cardiac System", AgeDifference: 7, AgingStage: "Plateau"},
	}
	items := []ProtocolItem{
		{Name: "Omega-3", Tags: []string{"cardiac", "Cardiac"}},
	}

	assert.Empty(t, ComputeCoverage(items, systems))
}

func TestComputeCoverageCapsAtHundred(t *testing.T) {
	systems := []models.BodySystem{{SystemName: "Cardiac System", AgeDifference: 2, AgingStage: "Plateau"}}
	var items []ProtocolItem
	for i := 0; i < 7; i++ {
		items = append(items, ProtocolItem{Name: "Stack", Tags: []string{"Cardiac System"}})
	}

	got := ComputeCoverage(items, systems)
	assert.Equal(t, 100, got[0].Coverage)
}

func TestComputeCoverageSortsByPriorityCoverageName(t *testing.T) {
	systems := []models.BodySystem{
		{SystemName: "Respiratory System", AgeDifference: 2, AgingStage: "Plateau"},
		{SystemName: "Cardiac System", AgeDifference: 2, AgingStage: "Plateau"},
		{SystemName: "Metabolism", AgeDifference: 8, AgingStage: "Accelerated"},
	}
	items := []ProtocolItem{
		{Name: "A", Tags: []string{"Cardiac System", "Respiratory System", "Metabolism"}},
	}

	got := ComputeCoverage(items, systems)

	assert.Equal(t, "Metabolism", got[0].SystemName)
	// Equal coverage ties break alphabetically
	assert.Equal(t, "Cardiac System", got[1].SystemName)
	assert.Equal(t, "Respiratory System", got[2].SystemName)
}
