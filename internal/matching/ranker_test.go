package matching

import (
	"math"
	"reflect"
	"testing"
)

func TestRankSingleSkillScore(t *testing.T) {
	// Weight 10 skill matched at distance 0.2 contributes 10 + 0.8 = 10.8.
	best := map[string]map[string]float64{
		"c1": {"Python": 0.2},
	}
	weights := map[string]float64{"Python": 10}

	results := NewRanker(nil).Rank(best, weights, 0)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	r := results[0]
	if r.CandidateID != "c1" {
		t.Errorf("candidate = %s", r.CandidateID)
	}
	if !reflect.DeepEqual(r.MatchedSkills, []string{"Python"}) {
		t.Errorf("matched skills = %v", r.MatchedSkills)
	}
	if math.Abs(r.TotalScore-10.8) > 1e-9 {
		t.Errorf("total score = %v, want 10.8", r.TotalScore)
	}
}

func TestRankSumsAcrossSkills(t *testing.T) {
	best := map[string]map[string]float64{
		"c1": {"Python": 0.2, "SQL": 0.5},
	}
	weights := map[string]float64{"Python": 10, "SQL": 5}

	results := NewRanker(nil).Rank(best, weights, 0)
	want := (10 + 0.8) + (5 + 0.5)
	if math.Abs(results[0].TotalScore-want) > 1e-9 {
		t.Errorf("total score = %v, want %v", results[0].TotalScore, want)
	}
	if !reflect.DeepEqual(results[0].MatchedSkills, []string{"Python", "SQL"}) {
		t.Errorf("matched skills not sorted: %v", results[0].MatchedSkills)
	}
}

func TestRankBreadthBeatsDepth(t *testing.T) {
	// Two matched skills always outscore one, even a perfect one,
	// when weights are equal.
	best := map[string]map[string]float64{
		"broad": {"A": 0.6, "B": 0.6},
		"deep":  {"A": 0.0},
	}
	weights := map[string]float64{"A": 5, "B": 5}

	results := NewRanker(nil).Rank(best, weights, 0)
	if results[0].CandidateID != "broad" {
		t.Fatalf("expected broad candidate first, got %+v", results)
	}
}

func TestRankExcludesZeroMatchCandidates(t *testing.T) {
	best := map[string]map[string]float64{
		"c1": {"Python": 0.2},
		"c2": {},
	}
	weights := map[string]float64{"Python": 10}

	results := NewRanker(nil).Rank(best, weights, 0)
	if len(results) != 1 || results[0].CandidateID != "c1" {
		t.Fatalf("candidate without matches must not appear: %+v", results)
	}
}

func TestRankSkipsStaleSkills(t *testing.T) {
	// A match against a skill no longer in the catalog contributes nothing;
	// a candidate whose only matches are stale disappears entirely.
	best := map[string]map[string]float64{
		"c1": {"Python": 0.2, "Fortran": 0.1},
		"c2": {"Fortran": 0.1},
	}
	weights := map[string]float64{"Python": 10}

	results := NewRanker(nil).Rank(best, weights, 0)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %+v", results)
	}
	if !reflect.DeepEqual(results[0].MatchedSkills, []string{"Python"}) {
		t.Errorf("stale skill leaked into matched list: %v", results[0].MatchedSkills)
	}
	if math.Abs(results[0].TotalScore-10.8) > 1e-9 {
		t.Errorf("stale skill leaked into score: %v", results[0].TotalScore)
	}
}

func TestRankOrderAndTieBreak(t *testing.T) {
	best := map[string]map[string]float64{
		"cB": {"Python": 0.2},
		"cA": {"Python": 0.2},
		"cC": {"Python": 0.1},
	}
	weights := map[string]float64{"Python": 10}

	results := NewRanker(nil).Rank(best, weights, 0)
	got := []string{results[0].CandidateID, results[1].CandidateID, results[2].CandidateID}
	// cC scores highest; cA and cB tie and fall back to ID order.
	if !reflect.DeepEqual(got, []string{"cC", "cA", "cB"}) {
		t.Fatalf("order = %v", got)
	}
}

func TestRankLimit(t *testing.T) {
	best := map[string]map[string]float64{
		"c1": {"Python": 0.1},
		"c2": {"Python": 0.2},
		"c3": {"Python": 0.3},
	}
	weights := map[string]float64{"Python": 10}

	results := NewRanker(nil).Rank(best, weights, 2)
	if len(results) != 2 {
		t.Fatalf("limit 2 returned %d results", len(results))
	}
	if results[0].CandidateID != "c1" || results[1].CandidateID != "c2" {
		t.Fatalf("truncation kept wrong candidates: %+v", results)
	}

	if all := NewRanker(nil).Rank(best, weights, 0); len(all) != 3 {
		t.Fatalf("limit 0 must mean unlimited, got %d", len(all))
	}
}

func TestRankScoreMonotonicInWeight(t *testing.T) {
	best := map[string]map[string]float64{"c1": {"Python": 0.3}}
	low := NewRanker(nil).Rank(best, map[string]float64{"Python": 5}, 0)
	high := NewRanker(nil).Rank(best, map[string]float64{"Python": 10}, 0)
	if high[0].TotalScore <= low[0].TotalScore {
		t.Fatalf("score not monotonic in weight: %v vs %v", high[0].TotalScore, low[0].TotalScore)
	}
}

func TestRoundScore(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{10.84, 10.8},
		{10.85, 10.9},
		{10.0, 10.0},
		{0.04, 0.0},
		{15.55, 15.6},
	}
	for _, c := range cases {
		if got := RoundScore(c.in); math.Abs(got-c.want) > 1e-9 {
			t.Errorf("RoundScore(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}
