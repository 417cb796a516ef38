package matching

import "testing"

func TestBestMatchesTakesMinimum(t *testing.T) {
	records := []MatchRecord{
		{CandidateID: "c1", SkillName: "Python", SectionID: "s1", Distance: 0.4},
		{CandidateID: "c1", SkillName: "Python", SectionID: "s2", Distance: 0.2},
		{CandidateID: "c1", SkillName: "Python", SectionID: "s3", Distance: 0.3},
		{CandidateID: "c1", SkillName: "SQL", SectionID: "s2", Distance: 0.5},
	}
	best := BestMatches(records)
	if len(best) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(best))
	}
	if d := best["c1"]["Python"]; d != 0.2 {
		t.Errorf("best Python distance = %v, want 0.2", d)
	}
	if d := best["c1"]["SQL"]; d != 0.5 {
		t.Errorf("best SQL distance = %v, want 0.5", d)
	}
}

func TestBestMatchesGroupsByCandidate(t *testing.T) {
	records := []MatchRecord{
		{CandidateID: "c1", SkillName: "Go", Distance: 0.1},
		{CandidateID: "c2", SkillName: "Go", Distance: 0.3},
	}
	best := BestMatches(records)
	if best["c1"]["Go"] != 0.1 || best["c2"]["Go"] != 0.3 {
		t.Fatalf("per-candidate minima mixed up: %+v", best)
	}
}

func TestBestMatchesEmpty(t *testing.T) {
	if best := BestMatches(nil); len(best) != 0 {
		t.Fatalf("no records must yield no candidates, got %+v", best)
	}
}

func TestBestMatchesOrderIndependent(t *testing.T) {
	forward := []MatchRecord{
		{CandidateID: "c1", SkillName: "Go", Distance: 0.3},
		{CandidateID: "c1", SkillName: "Go", Distance: 0.1},
	}
	reverse := []MatchRecord{forward[1], forward[0]}
	if BestMatches(forward)["c1"]["Go"] != BestMatches(reverse)["c1"]["Go"] {
		t.Fatal("minimum must not depend on record order")
	}
}
