package matching

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNotAList is returned when the catalog payload is not a JSON array.
// This is the only fatal normalization error; everything else is
// skip-and-continue.
var ErrNotAList = errors.New("catalog payload must be a JSON array")

// CatalogSkill is one skill entry of a catalog submission.
type CatalogSkill struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CatalogCategory is one category block of a categorized submission.
type CatalogCategory struct {
	Category string         `json:"category"`
	Skills   []CatalogSkill `json:"skills"`
}

// CatalogInput is the catalog payload decoded once at the boundary.
// Exactly one branch is set; an empty payload sets neither and normalizes
// to zero entries.
type CatalogInput struct {
	Flat        []CatalogSkill
	Categorized []CatalogCategory
}

// DecodeCatalogInput detects the payload shape and decodes it. A payload is
// categorized iff its first outer element carries a "category" key;
// otherwise it is treated as flat.
func DecodeCatalogInput(data []byte) (*CatalogInput, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAList, err)
	}
	if len(raw) == 0 {
		return &CatalogInput{}, nil
	}

	var probe struct {
		Category *string `json:"category"`
	}
	if err := json.Unmarshal(raw[0], &probe); err != nil {
		return nil, fmt.Errorf("%w: elements must be objects: %v", ErrNotAList, err)
	}

	if probe.Category != nil {
		var categorized []CatalogCategory
		if err := json.Unmarshal(data, &categorized); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNotAList, err)
		}
		return &CatalogInput{Categorized: categorized}, nil
	}

	var flat []CatalogSkill
	if err := json.Unmarshal(data, &flat); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAList, err)
	}
	return &CatalogInput{Flat: flat}, nil
}

// Weights maps category membership to catalog entry importance. It is an
// explicit value passed into normalization, never ambient state.
type Weights struct {
	Categories map[string]float64 // lowercased category name -> weight
	Default    float64            // categorized input, unknown category
	Flat       float64            // flat (uncategorized) input
}

// DefaultWeights returns the stock policy: Essential 10, Nice-to-Have 5,
// unknown categories 2, flat input 5.
func DefaultWeights() Weights {
	return Weights{
		Categories: map[string]float64{
			"essential":    10,
			"nice-to-have": 5,
		},
		Default: 2,
		Flat:    5,
	}
}

// ForCategory resolves a category name to its weight. Lookup is
// case-insensitive.
func (w Weights) ForCategory(name string) float64 {
	if weight, ok := w.Categories[strings.ToLower(strings.TrimSpace(name))]; ok {
		return weight
	}
	return w.Default
}

// NormalizedSkill is one weighted target entry ready for embedding and
// upsert.
type NormalizedSkill struct {
	Name          string
	Description   string
	Category      string
	Weight        float64
	EmbeddingText string
}

// Normalize converts a decoded catalog submission into weighted entries
// with embedding text. Entries without a name are skipped silently and
// counted. Pure transform: no side effects, no errors.
func Normalize(in *CatalogInput, w Weights) (skills []NormalizedSkill, skipped int) {
	if in == nil {
		return nil, 0
	}

	if in.Categorized != nil {
		for _, cat := range in.Categorized {
			weight := w.ForCategory(cat.Category)
			for _, s := range cat.Skills {
				name := strings.TrimSpace(s.Name)
				if name == "" {
					skipped++
					continue
				}
				skills = append(skills, NormalizedSkill{
					Name:          name,
					Description:   s.Description,
					Category:      cat.Category,
					Weight:        weight,
					EmbeddingText: fmt.Sprintf("%s (%s): %s", name, cat.Category, s.Description),
				})
			}
		}
		return skills, skipped
	}

	for _, s := range in.Flat {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			skipped++
			continue
		}
		skills = append(skills, NormalizedSkill{
			Name:          name,
			Description:   s.Description,
			Weight:        w.Flat,
			EmbeddingText: fmt.Sprintf("%s: %s", name, s.Description),
		})
	}
	return skills, skipped
}
