package matching

import (
	"math"
	"testing"
)

func TestCosineDistance(t *testing.T) {
	cases := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0, 0}, []float32{1, 0, 0}, 0},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 1},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, 2},
		{"scaled", []float32{2, 0}, []float32{5, 0}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 1},
		{"dimension mismatch", []float32{1, 0}, []float32{1, 0, 0}, 1},
		{"empty", nil, nil, 1},
	}
	for _, c := range cases {
		if got := CosineDistance(c.a, c.b); math.Abs(got-c.want) > 1e-9 {
			t.Errorf("%s: CosineDistance = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestMatcherThresholdLaw(t *testing.T) {
	m := NewMatcher(0.65)

	// Angles chosen so cosine distances straddle the threshold.
	catalog := []CatalogVector{{SkillName: "Python", Weight: 10, Vector: []float32{1, 0}}}
	sections := []SectionVector{
		{CandidateID: "c1", SectionID: "s1", Vector: []float32{1, 0}},          // distance 0
		{CandidateID: "c1", SectionID: "s2", Vector: []float32{1, 1}},          // distance ~0.293
		{CandidateID: "c2", SectionID: "s3", Vector: []float32{0.35, 0.937}},   // distance ~0.65, excluded
		{CandidateID: "c2", SectionID: "s4", Vector: []float32{0, 1}},          // distance 1, excluded
		{CandidateID: "c3", SectionID: "s5", Vector: []float32{0.574, 0.819}},  // distance ~0.426
	}

	records := m.Match(sections, catalog)
	for _, r := range records {
		if r.Distance >= 0.65 {
			t.Fatalf("record above threshold leaked through: %+v", r)
		}
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 accepted matches, got %d: %+v", len(records), records)
	}
}

func TestMatcherCrossJoinSemantics(t *testing.T) {
	m := NewMatcher(0.9)
	catalog := []CatalogVector{
		{SkillName: "A", Vector: []float32{1, 0}},
		{SkillName: "B", Vector: []float32{0.9, 0.436}},
	}
	sections := []SectionVector{
		{CandidateID: "c1", SectionID: "s1", Vector: []float32{1, 0.1}},
		{CandidateID: "c1", SectionID: "s2", Vector: []float32{0.95, 0.312}},
	}

	records := m.Match(sections, catalog)
	// Every (section, skill) pair is close enough here: one section may
	// satisfy several skills and one skill several sections.
	if len(records) != 4 {
		t.Fatalf("expected full cross join of 4 records, got %d", len(records))
	}
}

func TestMatcherSkipsEmptyVectors(t *testing.T) {
	m := NewMatcher(0.65)
	catalog := []CatalogVector{{SkillName: "A", Vector: []float32{1, 0}}}
	sections := []SectionVector{
		{CandidateID: "c1", SectionID: "s1", Vector: nil}, // stored without embedding
		{CandidateID: "c1", SectionID: "s2", Vector: []float32{1, 0}},
	}
	records := m.Match(sections, catalog)
	if len(records) != 1 || records[0].SectionID != "s2" {
		t.Fatalf("vectorless section must be invisible to matching: %+v", records)
	}
}

func TestMatcherDefaultThreshold(t *testing.T) {
	if m := NewMatcher(0); m.Threshold != DefaultThreshold {
		t.Errorf("NewMatcher(0).Threshold = %v, want %v", m.Threshold, DefaultThreshold)
	}
	if m := NewMatcher(0.3); m.Threshold != 0.3 {
		t.Errorf("NewMatcher(0.3).Threshold = %v", m.Threshold)
	}
}

func TestMatcherFilter(t *testing.T) {
	m := NewMatcher(0.65)
	records := []MatchRecord{
		{CandidateID: "c1", SkillName: "A", Distance: 0.2},
		{CandidateID: "c1", SkillName: "B", Distance: 0.65},
		{CandidateID: "c2", SkillName: "A", Distance: 0.7},
	}
	kept := m.Filter(records)
	if len(kept) != 1 || kept[0].SkillName != "A" || kept[0].CandidateID != "c1" {
		t.Fatalf("Filter kept wrong records: %+v", kept)
	}
}
