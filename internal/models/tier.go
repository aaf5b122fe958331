package models

// Tier is the size-based bucket a model falls into.
type Tier string

const (
	TierLightweight Tier = "lightweight"
	TierStandard    Tier = "standard"
	TierAdvanced    Tier = "advanced"
	TierXLarge      Tier = "xlarge"
)

// Size thresholds (MB) that partition models into tiers. These are fixed:
// tier is a deterministic function of size, never stored independently.
const (
	LightweightMaxMB = 500
	StandardMaxMB    = 4000
	AdvancedMaxMB    = 20000
)

// TierOrder is the canonical display/iteration order across tiers,
// smallest first. It is an invariant of the tier system, not configurable.
var TierOrder = []Tier{TierLightweight, TierStandard, TierAdvanced, TierXLarge}

// TierForSize maps a model size in MB to its tier.
func TierForSize(sizeMB float64) Tier {
	switch {
	case sizeMB <= LightweightMaxMB:
		return TierLightweight
	case sizeMB <= StandardMaxMB:
		return TierStandard
	case sizeMB <= AdvancedMaxMB:
		return TierAdvanced
	default:
		return TierXLarge
	}
}

// EnvironmentalScoreForTier maps a tier to its 1–3 environmental impact
// score (1 = lowest impact). Advanced and xlarge share the top band.
func EnvironmentalScoreForTier(tier Tier) int {
	switch tier {
	case TierLightweight:
		return 1
	case TierStandard:
		return 2
	default:
		return 3
	}
}
