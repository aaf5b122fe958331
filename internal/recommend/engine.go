// Package recommend turns a classified task into a tiered model shortlist.
package recommend

import (
	"sort"

	"github.com/spboyer/modeladvisor/internal/catalog"
	"github.com/spboyer/modeladvisor/internal/models"
)

// Engine filters and ranks catalog models for a classified task. It is
// stateless apart from the catalog; every call recomputes from the caller's
// filter state, so threshold changes never need cache invalidation.
type Engine struct {
	cat *catalog.Catalog
}

// NewEngine creates a recommendation engine over the catalog.
func NewEngine(cat *catalog.Catalog) *Engine {
	return &Engine{cat: cat}
}

// Recommend builds the tiered recommendation for one taxonomy slice. Models
// failing the accuracy threshold or deployment target are hidden, never
// dropped silently: each tier reports how many it hid. A slice with no
// catalog entries yields a well-formed result with every tier empty.
func (e *Engine) Recommend(category, subcategory string, filter models.FilterState) *models.RecommendationResult {
	entries := e.cat.Slice(category, subcategory)

	res := &models.RecommendationResult{
		Category:    category,
		Subcategory: subcategory,
		Tiers:       make(map[models.Tier]models.TierGroup),
	}

	for _, tier := range models.TierOrder {
		group := models.TierGroup{}
		for _, entry := range entries {
			if entry.Tier != tier {
				continue
			}
			if keep(entry, filter) {
				group.Models = append(group.Models, entry)
			} else {
				group.HiddenCount++
			}
		}
		sortTier(group.Models)
		res.Tiers[tier] = group
		res.TotalShown += len(group.Models)
		res.TotalHidden += group.HiddenCount
	}

	return res
}

// keep applies the accuracy threshold and deployment target. Models without
// a reported accuracy are treated as zero, so any positive threshold hides
// them rather than letting unverified models through.
func keep(entry models.ModelEntry, filter models.FilterState) bool {
	if entry.AccuracyOrZero()*100 < filter.MinAccuracyThreshold {
		return false
	}
	return entry.SupportsDeployment(filter.DeploymentTarget)
}

// sortTier orders models within a tier: smallest first, then most accurate,
// then lowest environmental impact, then ID for a stable total order.
func sortTier(entries []models.ModelEntry) {
	sort.SliceStable(entries, func(a, b int) bool {
		ea, eb := entries[a], entries[b]
		if ea.SizeMB != eb.SizeMB {
			return ea.SizeMB < eb.SizeMB
		}
		if ea.AccuracyOrZero() != eb.AccuracyOrZero() {
			return ea.AccuracyOrZero() > eb.AccuracyOrZero()
		}
		if ea.EnvironmentalScore != eb.EnvironmentalScore {
			return ea.EnvironmentalScore < eb.EnvironmentalScore
		}
		return ea.ID < eb.ID
	})
}
