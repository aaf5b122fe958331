package webapi

import "github.com/spboyer/modeladvisor/internal/models"

// ClassifyRequest asks for a classification of free task text.
type ClassifyRequest struct {
	Text string      `json:"text"`
	Mode models.Mode `json:"mode,omitempty"`
}

// ClarifyRequest answers a clarification question for earlier text.
type ClarifyRequest struct {
	Text   string      `json:"text"`
	Answer string      `json:"answer,omitempty"`
	Mode   models.Mode `json:"mode,omitempty"`
}

// ClassifyResponse carries the classification plus, when the result is
// ambiguous, the question to put to the user.
type ClassifyResponse struct {
	Result   *models.ClassificationResult `json:"result"`
	Question string                       `json:"question,omitempty"`
}

// RecommendRequest asks for a tiered model shortlist. Either Text or an
// explicit Category/Subcategory pair must be given; with Text the server
// classifies first.
type RecommendRequest struct {
	Text        string `json:"text,omitempty"`
	Category    string `json:"category,omitempty"`
	Subcategory string `json:"subcategory,omitempty"`

	MinAccuracyThreshold float64     `json:"min_accuracy_threshold,omitempty"`
	DeploymentTarget     string      `json:"deployment_target,omitempty"`
	Mode                 models.Mode `json:"mode,omitempty"`
}

// RecommendResponse carries the shortlist and, when the server classified
// text, the classification it used.
type RecommendResponse struct {
	Classification *models.ClassificationResult `json:"classification,omitempty"`
	Question       string                       `json:"question,omitempty"`
	Recommendation *models.RecommendationResult `json:"recommendation,omitempty"`
}

// TaxonomyCategory is one category in the taxonomy listing.
type TaxonomyCategory struct {
	ID            string   `json:"id"`
	Label         string   `json:"label"`
	Subcategories []string `json:"subcategories"`
}

// TaxonomyResponse lists the classification targets.
type TaxonomyResponse struct {
	Categories []TaxonomyCategory `json:"categories"`
}

// HealthResponse is the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ErrorResponse is returned for errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}
