// Package taxonomy holds the fixed task-category hierarchy used as
// classification ground truth. A Taxonomy is loaded once at startup and is
// immutable afterwards, so it is safe to share across concurrent requests
// without locking.
package taxonomy

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/spboyer/modeladvisor/internal/validation"
	"gopkg.in/yaml.v3"
)

//go:embed data/taxonomy.yaml
var defaultTaxonomyYAML []byte

// Subcategory is one classification target. Keywords and examples are the
// ground truth for the keyword and embedding classifiers; never mutated at
// runtime.
type Subcategory struct {
	ID       string   `yaml:"id"`
	Label    string   `yaml:"label"`
	Keywords []string `yaml:"keywords"`
	Examples []string `yaml:"examples"`
}

// Category groups related subcategories.
type Category struct {
	ID            string        `yaml:"id"`
	Label         string        `yaml:"label"`
	Subcategories []Subcategory `yaml:"subcategories"`
}

// ReferenceExample pairs one labeled example phrase with its position in the
// taxonomy. The embedding classifier precomputes a vector per example.
type ReferenceExample struct {
	Category    string
	Subcategory string
	Text        string
}

// Taxonomy is the full category hierarchy plus derived lookup indexes.
type Taxonomy struct {
	Categories []Category `yaml:"categories"`

	byCategory map[string]*Category
	bySubcat   map[string]*Subcategory // key: category/subcategory
	priority   map[string]int          // category ID -> rank, lower wins ties
}

// Parse validates raw taxonomy YAML against the schema and builds the
// lookup indexes.
func Parse(data []byte) (*Taxonomy, error) {
	if errs := validation.ValidateTaxonomyBytes(data); len(errs) > 0 {
		return nil, fmt.Errorf("taxonomy schema validation failed: %s", strings.Join(errs, "; "))
	}

	var tax Taxonomy
	if err := yaml.Unmarshal(data, &tax); err != nil {
		return nil, fmt.Errorf("parsing taxonomy: %w", err)
	}

	tax.byCategory = make(map[string]*Category, len(tax.Categories))
	tax.bySubcat = make(map[string]*Subcategory)
	tax.priority = make(map[string]int, len(tax.Categories))

	for i := range tax.Categories {
		cat := &tax.Categories[i]
		if _, dup := tax.byCategory[cat.ID]; dup {
			return nil, fmt.Errorf("duplicate category %q", cat.ID)
		}
		tax.byCategory[cat.ID] = cat
		tax.priority[cat.ID] = i
		for j := range cat.Subcategories {
			sub := &cat.Subcategories[j]
			key := cat.ID + "/" + sub.ID
			if _, dup := tax.bySubcat[key]; dup {
				return nil, fmt.Errorf("duplicate subcategory %q", key)
			}
			tax.bySubcat[key] = sub
		}
	}

	return &tax, nil
}

// Load reads and parses a taxonomy YAML file.
func Load(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading taxonomy file: %w", err)
	}
	return Parse(data)
}

// Default returns the embedded built-in taxonomy. The embedded data is part
// of the binary, so a parse failure is a programmer error.
func Default() *Taxonomy {
	tax, err := Parse(defaultTaxonomyYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded taxonomy is invalid: %v", err))
	}
	return tax
}

// Category returns the category with the given ID.
func (t *Taxonomy) Category(id string) (*Category, bool) {
	c, ok := t.byCategory[id]
	return c, ok
}

// Subcategory returns the subcategory under the given category.
func (t *Taxonomy) Subcategory(categoryID, subcategoryID string) (*Subcategory, bool) {
	s, ok := t.bySubcat[categoryID+"/"+subcategoryID]
	return s, ok
}

// PriorityRank returns the tie-break rank of a category; lower ranks win.
// Unknown categories rank last.
func (t *Taxonomy) PriorityRank(categoryID string) int {
	if rank, ok := t.priority[categoryID]; ok {
		return rank
	}
	return len(t.Categories)
}

// DefaultTarget returns the category/subcategory used when classification
// has nothing better to offer: the first subcategory of the lowest-priority
// category.
func (t *Taxonomy) DefaultTarget() (categoryID, subcategoryID string) {
	last := t.Categories[len(t.Categories)-1]
	return last.ID, last.Subcategories[0].ID
}

// FirstSubcategory returns the first-declared subcategory ID of a category,
// or the default target when the category is unknown.
func (t *Taxonomy) FirstSubcategory(categoryID string) string {
	if cat, ok := t.byCategory[categoryID]; ok && len(cat.Subcategories) > 0 {
		return cat.Subcategories[0].ID
	}
	_, sub := t.DefaultTarget()
	return sub
}

// ReferenceExamples flattens every example phrase with its labels, in
// declaration order.
func (t *Taxonomy) ReferenceExamples() []ReferenceExample {
	var out []ReferenceExample
	for _, cat := range t.Categories {
		for _, sub := range cat.Subcategories {
			for _, ex := range sub.Examples {
				out = append(out, ReferenceExample{
					Category:    cat.ID,
					Subcategory: sub.ID,
					Text:        ex,
				})
			}
		}
	}
	return out
}

// CategoryIDs returns every category ID in priority order.
func (t *Taxonomy) CategoryIDs() []string {
	ids := make([]string, 0, len(t.Categories))
	for _, cat := range t.Categories {
		ids = append(ids, cat.ID)
	}
	return ids
}
