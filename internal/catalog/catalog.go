// Package catalog loads and indexes the model catalog. The catalog is built
// offline by the aggregation job; at runtime it is an immutable singleton
// shared by every request.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/spboyer/modeladvisor/internal/models"
	"github.com/spboyer/modeladvisor/internal/validation"
	"gopkg.in/yaml.v3"
)

//go:embed data/catalog.yaml
var defaultCatalogYAML []byte

// Catalog indexes model entries by category and subcategory.
type Catalog struct {
	entries []models.ModelEntry
	bySlice map[string][]models.ModelEntry // key: category/subcategory
}

type catalogFile struct {
	Models []models.ModelEntry `yaml:"models"`
}

// Parse validates raw catalog YAML, derives tier and environmental score
// from each entry's size, and builds the lookup index.
//
// Tier is a deterministic function of size. An entry that states a tier or
// environmental score disagreeing with the derived value is a data bug and
// fails the load rather than being silently corrected.
func Parse(data []byte) (*Catalog, error) {
	if errs := validation.ValidateCatalogBytes(data); len(errs) > 0 {
		return nil, fmt.Errorf("catalog schema validation failed: %s", strings.Join(errs, "; "))
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	c := &Catalog{
		entries: file.Models,
		bySlice: make(map[string][]models.ModelEntry),
	}

	seen := make(map[string]bool, len(c.entries))
	for i := range c.entries {
		entry := &c.entries[i]
		if seen[entry.ID] {
			return nil, fmt.Errorf("duplicate model id %q", entry.ID)
		}
		seen[entry.ID] = true

		tier := models.TierForSize(entry.SizeMB)
		if entry.Tier != "" && entry.Tier != tier {
			return nil, fmt.Errorf("model %q: stated tier %q does not match size %.1fMB (derived %q)",
				entry.ID, entry.Tier, entry.SizeMB, tier)
		}
		entry.Tier = tier

		envScore := models.EnvironmentalScoreForTier(tier)
		if entry.EnvironmentalScore != 0 && entry.EnvironmentalScore != envScore {
			return nil, fmt.Errorf("model %q: stated environmental score %d does not match tier %q (derived %d)",
				entry.ID, entry.EnvironmentalScore, tier, envScore)
		}
		entry.EnvironmentalScore = envScore

		key := entry.Category + "/" + entry.Subcategory
		c.bySlice[key] = append(c.bySlice[key], *entry)
	}

	return c, nil
}

// Load reads and parses a catalog YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}
	return Parse(data)
}

// Default returns the embedded built-in catalog. The embedded data is part
// of the binary, so a parse failure is a programmer error.
func Default() *Catalog {
	c, err := Parse(defaultCatalogYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return c
}

// Slice returns the entries for a category/subcategory pair, or nil when the
// pair has no models. A miss is not an error.
func (c *Catalog) Slice(category, subcategory string) []models.ModelEntry {
	return c.bySlice[category+"/"+subcategory]
}

// Len returns the total number of catalog entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Entries returns a copy of every entry, for read-only iteration by callers
// that need the whole catalog (e.g. the web API's catalog endpoint).
func (c *Catalog) Entries() []models.ModelEntry {
	out := make([]models.ModelEntry, len(c.entries))
	copy(out, c.entries)
	return out
}
