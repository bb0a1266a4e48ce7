// Package scoring ranks marketplace products and protocol coverage against a
// user's extracted body-system results.
package scoring

import (
	"sort"

	"github.com/systemage/systemagego/internal/models"
)

// ProtocolItem is one product a user has assembled into their protocol, as
// submitted by the client for coverage analysis.
type ProtocolItem struct {
	Name string   `json:"name"`
	Tags []string `json:"tags"`
}

// SystemCoverage reports how well a protocol addresses one body system.
// Priority marks systems aging more than 5 years ahead of chronological age,
// which the UI surfaces first regardless of coverage.
type SystemCoverage struct {
	SystemName string `json:"systemName"`
	Coverage   int    `json:"coverage"`
	Priority   bool   `json:"priority"`
}

// ScoreProduct computes the personalization score of a product for a set of
// extracted body systems. Tag targets match systems by exact name, so tags
// must carry the canonical system names. A matched target earns 10 points for
// a system more than 5 years ahead of chronological age, 5 for one up to
// 5 years ahead, plus 5 whenever the matched system is in the Accelerated
// stage. Without extraction results every product scores 0 and the catalog
// stays in its default order.
func ScoreProduct(product *models.MarketplaceProduct, systems []models.BodySystem) int {
	if len(systems) == 0 {
		return 0
	}

	score := 0
	for _, tag := range product.Tags {
		for _, target := range tag.SystemTargets {
			sys := findSystem(systems, target)
			if sys == nil {
				continue
			}
			if sys.AgeDifference > 5 {
				score += 10
			} else if sys.AgeDifference > 0 {
				score += 5
			}
			if sys.AgingStage == string(models.StageAccelerated) {
				score += 5
			}
		}
	}
	return score
}

// ComputeCoverage maps a protocol onto the user's body systems: each item tag
// equal to a system's name contributes 20 points, capped at 100 per system.
// Systems the protocol does not touch are filtered out; a covered system is
// marked priority when it ages more than 5 years ahead. Users without
// extraction results get a small demo set so the coverage view is never empty.
func ComputeCoverage(items []ProtocolItem, systems []models.BodySystem) []SystemCoverage {
	if len(systems) == 0 {
		return demoCoverage()
	}

	out := make([]SystemCoverage, 0, len(systems))
	for _, sys := range systems {
		coverage := 0
		for _, item := range items {
			for _, tag := range item.Tags {
				if tag == sys.SystemName {
					coverage += 20
				}
			}
		}
		if coverage > 100 {
			coverage = 100
		}
		if coverage == 0 {
			continue
		}
		out = append(out, SystemCoverage{
			SystemName: sys.SystemName,
			Coverage:   coverage,
			Priority:   sys.AgeDifference > 5,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority
		}
		if out[i].Coverage != out[j].Coverage {
			return out[i].Coverage > out[j].Coverage
		}
		return out[i].SystemName < out[j].SystemName
	})
	return out
}

func demoCoverage() []SystemCoverage {
	return []SystemCoverage{
		{SystemName: "Inflammatory Regulation", Coverage: 65, Priority: true},
		{SystemName: "Digestive System", Coverage: 30, Priority: false},
		{SystemName: "Brain Health and Cognition", Coverage: 25, Priority: false},
	}
}

func findSystem(systems []models.BodySystem, target string) *models.BodySystem {
	for i := range systems {
		if systems[i].SystemName == target {
			return &systems[i]
		}
	}
	return nil
}
