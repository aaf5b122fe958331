// Package webapi implements the REST endpoints for classification and
// recommendation.
package webapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/spboyer/modeladvisor/internal/classify"
	"github.com/spboyer/modeladvisor/internal/models"
	"github.com/spboyer/modeladvisor/internal/recommend"
	"github.com/spboyer/modeladvisor/internal/taxonomy"
	"github.com/spboyer/modeladvisor/internal/wizard"
)

// Version is set at build time or defaults to dev.
var Version = "0.1.0-dev"

// maxRequestBody bounds request bodies; task descriptions are short.
const maxRequestBody = 64 << 10

// Handlers holds the HTTP handler methods for the web API.
type Handlers struct {
	pipeline *classify.Pipeline
	engine   *recommend.Engine
	tax      *taxonomy.Taxonomy
	defaults models.FilterState
}

// NewHandlers creates a new Handlers over the classification pipeline and
// recommendation engine. defaults seed the filter state for requests that
// leave filters unset.
func NewHandlers(pipeline *classify.Pipeline, engine *recommend.Engine, tax *taxonomy.Taxonomy, defaults models.FilterState) *Handlers {
	return &Handlers{pipeline: pipeline, engine: engine, tax: tax, defaults: defaults}
}

// HandleHealth returns a simple health check response.
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: Version,
	})
}

// HandleClassify classifies the posted text.
func (h *Handlers) HandleClassify(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.pipeline.Classify(r.Context(), req.Text, normalizeMode(req.Mode))
	if err != nil {
		writeError(w, statusFor(r, err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, classifyResponse(result, h.tax))
}

// HandleClarify resolves an earlier ambiguous classification with the user's
// answer. The original text must be resent; the session cache makes the
// lookup free.
func (h *Handlers) HandleClarify(w http.ResponseWriter, r *http.Request) {
	var req ClarifyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	mode := normalizeMode(req.Mode)

	original, err := h.pipeline.Classify(r.Context(), req.Text, mode)
	if err != nil {
		writeError(w, statusFor(r, err), err.Error())
		return
	}
	if !original.NeedsClarification {
		writeError(w, http.StatusConflict, "classification does not need clarification")
		return
	}

	resolved, err := h.pipeline.ResolveClarification(r.Context(), original, req.Text, req.Answer, mode)
	if err != nil {
		writeError(w, statusFor(r, err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, classifyResponse(resolved, h.tax))
}

// HandleRecommend returns the tiered shortlist for a slice, classifying the
// posted text first when no explicit slice is given.
func (h *Handlers) HandleRecommend(w http.ResponseWriter, r *http.Request) {
	var req RecommendRequest
	if !decodeBody(w, r, &req) {
		return
	}

	filter := h.defaults
	if req.MinAccuracyThreshold != 0 {
		filter.MinAccuracyThreshold = req.MinAccuracyThreshold
	}
	if req.DeploymentTarget != "" {
		filter.DeploymentTarget = req.DeploymentTarget
	}

	resp := RecommendResponse{}
	category, subcategory := req.Category, req.Subcategory

	if category == "" {
		if strings.TrimSpace(req.Text) == "" {
			writeError(w, http.StatusBadRequest, "either text or category/subcategory is required")
			return
		}
		result, err := h.pipeline.Classify(r.Context(), req.Text, normalizeMode(req.Mode))
		if err != nil {
			writeError(w, statusFor(r, err), err.Error())
			return
		}
		resp.Classification = result
		if result.NeedsClarification {
			// No silent winner: hand the question back instead of a list.
			resp.Question = wizard.Question(result, h.tax)
			writeJSON(w, http.StatusOK, resp)
			return
		}
		category, subcategory = result.Category, result.Subcategory
	} else if subcategory == "" {
		subcategory = h.tax.FirstSubcategory(category)
	}

	resp.Recommendation = h.engine.Recommend(category, subcategory, filter)
	writeJSON(w, http.StatusOK, resp)
}

// HandleTaxonomy lists the classification targets.
func (h *Handlers) HandleTaxonomy(w http.ResponseWriter, _ *http.Request) {
	resp := TaxonomyResponse{}
	for _, cat := range h.tax.Categories {
		entry := TaxonomyCategory{ID: cat.ID, Label: cat.Label}
		for _, sub := range cat.Subcategories {
			entry.Subcategories = append(entry.Subcategories, sub.ID)
		}
		resp.Categories = append(resp.Categories, entry)
	}
	writeJSON(w, http.StatusOK, resp)
}

// RegisterRoutes registers all web API routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, h *Handlers) {
	mux.HandleFunc("GET /api/health", h.HandleHealth)
	mux.HandleFunc("GET /api/taxonomy", h.HandleTaxonomy)
	mux.HandleFunc("POST /api/classify", h.HandleClassify)
	mux.HandleFunc("POST /api/clarify", h.HandleClarify)
	mux.HandleFunc("POST /api/recommend", h.HandleRecommend)
}

// CORSMiddleware wraps a handler with CORS headers.
// If allowedOrigins is empty, no CORS header is set (same-origin only).
// Otherwise, the request Origin is checked against the allowed list.
func CORSMiddleware(next http.Handler, allowedOrigins ...string) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if len(allowedOrigins) > 0 && origin != "" && allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func classifyResponse(result *models.ClassificationResult, tax *taxonomy.Taxonomy) ClassifyResponse {
	resp := ClassifyResponse{Result: result}
	if result.NeedsClarification {
		resp.Question = wizard.Question(result, tax)
	}
	return resp
}

func normalizeMode(mode models.Mode) models.Mode {
	if mode == models.ModeEnsemble {
		return models.ModeEnsemble
	}
	return models.ModeFast
}

// statusFor maps pipeline errors to HTTP statuses: a canceled request is the
// client's doing, everything else is on us.
func statusFor(_ *http.Request, err error) int {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 499
	}
	return http.StatusInternalServerError
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, ErrorResponse{Error: msg, Code: code})
}
