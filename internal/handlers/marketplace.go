package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"github.com/systemage/systemagego/internal/middleware"
	"github.com/systemage/systemagego/internal/models"
	"github.com/systemage/systemagego/internal/scoring"
	"github.com/systemage/systemagego/internal/store"
)

// ScoredProduct is a catalog entry with its personalization score attached.
type ScoredProduct struct {
	models.MarketplaceProduct
	Score int `json:"score"`
}

// listMarketplaceProducts returns active products. When the caller has a
// completed report the list is re-ranked by personalization score; otherwise
// every score is 0 and the default catalog order stands.
func (r *Router) listMarketplaceProducts(w http.ResponseWriter, req *http.Request) {
	userID := middleware.UserIDFromContext(req.Context())

	products, err := r.store.ListProducts(req.Context(), true)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list products")
		return
	}

	var systems []models.BodySystem
	if report, err := r.store.LatestCompletedReport(req.Context(), userID); err == nil {
		systems = report.Systems
	} else if !errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusInternalServerError, "Failed to load report data")
		return
	}

	scored := make([]ScoredProduct, len(products))
	for i, product := range products {
		scored[i] = ScoredProduct{
			MarketplaceProduct: product,
			Score:              scoring.ScoreProduct(&product, systems),
		}
	}
	if len(systems) > 0 {
		sort.SliceStable(scored, func(i, j int) bool {
			return scored[i].Score > scored[j].Score
		})
	}

	respondJSON(w, http.StatusOK, scored)
}

// CoverageRequest is the protocol a user assembled, submitted for analysis.
type CoverageRequest struct {
	Items []scoring.ProtocolItem `json:"items"`
}

// protocolCoverage maps the submitted protocol onto the caller's body systems.
func (r *Router) protocolCoverage(w http.ResponseWriter, req *http.Request) {
	userID := middleware.UserIDFromContext(req.Context())

	var covReq CoverageRequest
	if err := json.NewDecoder(req.Body).Decode(&covReq); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	var systems []models.BodySystem
	if report, err := r.store.LatestCompletedReport(req.Context(), userID); err == nil {
		systems = report.Systems
	} else if !errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusInternalServerError, "Failed to load report data")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"coverage": scoring.ComputeCoverage(covReq.Items, systems),
		"demo":     len(systems) == 0,
	})
}
