package matching

import (
	"errors"
	"testing"
)

func TestDecodeCatalogInputFlat(t *testing.T) {
	payload := []byte(`[{"name":"Python","description":"general purpose"},{"name":"SQL"}]`)
	in, err := DecodeCatalogInput(payload)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if in.Categorized != nil {
		t.Fatalf("flat payload decoded as categorized")
	}
	if len(in.Flat) != 2 {
		t.Fatalf("expected 2 flat skills, got %d", len(in.Flat))
	}
	if in.Flat[1].Name != "SQL" || in.Flat[1].Description != "" {
		t.Fatalf("unexpected second entry: %+v", in.Flat[1])
	}
}

func TestDecodeCatalogInputCategorized(t *testing.T) {
	payload := []byte(`[{"category":"Essential","skills":[{"name":"SQL"}]},{"category":"Nice-to-Have","skills":[]}]`)
	in, err := DecodeCatalogInput(payload)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if in.Flat != nil {
		t.Fatalf("categorized payload decoded as flat")
	}
	if len(in.Categorized) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(in.Categorized))
	}
}

func TestDecodeCatalogInputEmpty(t *testing.T) {
	in, err := DecodeCatalogInput([]byte(`[]`))
	if err != nil {
		t.Fatalf("empty list must be valid: %v", err)
	}
	skills, skipped := Normalize(in, DefaultWeights())
	if len(skills) != 0 || skipped != 0 {
		t.Fatalf("empty input must normalize to zero entries, got %d skills %d skipped", len(skills), skipped)
	}
}

func TestDecodeCatalogInputNotAList(t *testing.T) {
	for _, payload := range []string{`{"name":"Python"}`, `"Python"`, `42`} {
		_, err := DecodeCatalogInput([]byte(payload))
		if !errors.Is(err, ErrNotAList) {
			t.Fatalf("payload %s: expected ErrNotAList, got %v", payload, err)
		}
	}
}

func TestNormalizeCategorizedWeights(t *testing.T) {
	in := &CatalogInput{Categorized: []CatalogCategory{
		{Category: "Essential", Skills: []CatalogSkill{{Name: "SQL"}}},
		{Category: "Nice-to-Have", Skills: []CatalogSkill{{Name: "Kubernetes", Description: "container orchestration"}}},
		{Category: "Bonus", Skills: []CatalogSkill{{Name: "Rust"}}},
	}}

	skills, skipped := Normalize(in, DefaultWeights())
	if skipped != 0 {
		t.Fatalf("unexpected skipped count %d", skipped)
	}
	if len(skills) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(skills))
	}

	if skills[0].Weight != 10 {
		t.Errorf("Essential weight = %v, want 10", skills[0].Weight)
	}
	if skills[0].EmbeddingText != "SQL (Essential): " {
		t.Errorf("embedding text = %q, want %q", skills[0].EmbeddingText, "SQL (Essential): ")
	}
	if skills[1].Weight != 5 {
		t.Errorf("Nice-to-Have weight = %v, want 5", skills[1].Weight)
	}
	if skills[1].EmbeddingText != "Kubernetes (Nice-to-Have): container orchestration" {
		t.Errorf("embedding text = %q", skills[1].EmbeddingText)
	}
	if skills[2].Weight != 2 {
		t.Errorf("unknown category weight = %v, want default 2", skills[2].Weight)
	}
}

func TestNormalizeFlatDefaultWeight(t *testing.T) {
	in := &CatalogInput{Flat: []CatalogSkill{{Name: "Python", Description: "general purpose"}}}
	skills, _ := Normalize(in, DefaultWeights())
	if len(skills) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(skills))
	}
	if skills[0].Weight != 5 {
		t.Errorf("flat weight = %v, want 5", skills[0].Weight)
	}
	if skills[0].EmbeddingText != "Python: general purpose" {
		t.Errorf("embedding text = %q", skills[0].EmbeddingText)
	}
}

func TestNormalizeSkipsNamelessEntries(t *testing.T) {
	in := &CatalogInput{Categorized: []CatalogCategory{
		{Category: "Essential", Skills: []CatalogSkill{{Name: ""}, {Name: "  "}, {Name: "Go"}}},
	}}
	skills, skipped := Normalize(in, DefaultWeights())
	if len(skills) != 1 || skills[0].Name != "Go" {
		t.Fatalf("expected only Go to survive, got %+v", skills)
	}
	if skipped != 2 {
		t.Errorf("skipped = %d, want 2", skipped)
	}
}

func TestNormalizeEmptyCategorySkills(t *testing.T) {
	in := &CatalogInput{Categorized: []CatalogCategory{
		{Category: "Essential", Skills: nil},
	}}
	skills, skipped := Normalize(in, DefaultWeights())
	if len(skills) != 0 || skipped != 0 {
		t.Fatalf("empty skills list must yield zero entries without error, got %d/%d", len(skills), skipped)
	}
}

func TestWeightsForCategoryCaseInsensitive(t *testing.T) {
	w := DefaultWeights()
	if got := w.ForCategory("ESSENTIAL"); got != 10 {
		t.Errorf("ForCategory(ESSENTIAL) = %v, want 10", got)
	}
	if got := w.ForCategory(" nice-to-have "); got != 5 {
		t.Errorf("ForCategory(nice-to-have) = %v, want 5", got)
	}
	if got := w.ForCategory("anything else"); got != 2 {
		t.Errorf("ForCategory(unknown) = %v, want 2", got)
	}
}
