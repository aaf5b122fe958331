package models

// TierGroup holds the kept models for one tier plus the count hidden by the
// active accuracy filter.
type TierGroup struct {
	Models      []ModelEntry `json:"models"`
	HiddenCount int          `json:"hidden_count"`
}

// RecommendationResult is derived per request from the catalog and the
// caller's filter state; it never mutates the catalog.
type RecommendationResult struct {
	Category    string             `json:"category"`
	Subcategory string             `json:"subcategory"`
	Tiers       map[Tier]TierGroup `json:"models_by_tier"`
	TotalShown  int                `json:"total_shown"`
	TotalHidden int                `json:"total_hidden"`
}

// Group returns the tier group for a tier, zero-valued when absent.
func (r *RecommendationResult) Group(tier Tier) TierGroup {
	return r.Tiers[tier]
}
