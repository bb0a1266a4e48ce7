package ai

import (
	"strings"
	"testing"

	"github.com/systemage/systemagego/internal/models"
)

func TestReportExtractionPromptListsAllSystems(t *testing.T) {
	for _, name := range models.BodySystemNames {
		if !strings.Contains(ReportExtractionPrompt, name) {
			t.Errorf("extraction prompt does not list system %q", name)
		}
	}
}
