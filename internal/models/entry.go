package models

// ModelEntry describes one model in the catalog. Entries are produced by the
// offline aggregation job and are read-only at runtime.
type ModelEntry struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`

	// ExternalRef points at the model's page on the upstream model hub.
	ExternalRef string `json:"external_ref,omitempty" yaml:"external_ref,omitempty"`

	SizeMB float64 `json:"size_mb" yaml:"size_mb"`

	// Accuracy is a reported benchmark accuracy in [0, 1], or nil when the
	// upstream hub publishes none. Filtering treats nil as 0 so unverified
	// models never slip past a nonzero threshold.
	Accuracy *float64 `json:"accuracy,omitempty" yaml:"accuracy,omitempty"`

	EnvironmentalScore int  `json:"environmental_score" yaml:"environmental_score,omitempty"`
	Tier               Tier `json:"tier" yaml:"tier,omitempty"`

	DeploymentOptions []string `json:"deployment_options,omitempty" yaml:"deployment_options,omitempty"`

	Category    string `json:"category" yaml:"category"`
	Subcategory string `json:"subcategory" yaml:"subcategory"`
}

// AccuracyOrZero returns the reported accuracy, treating missing as 0.
func (m *ModelEntry) AccuracyOrZero() float64 {
	if m.Accuracy == nil {
		return 0
	}
	return *m.Accuracy
}

// SupportsDeployment reports whether the entry lists the given deployment
// target. An empty target matches every entry.
func (m *ModelEntry) SupportsDeployment(target string) bool {
	if target == "" {
		return true
	}
	for _, opt := range m.DeploymentOptions {
		if opt == target {
			return true
		}
	}
	return false
}
