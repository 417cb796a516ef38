package matching

// BestMatches reduces match records to the minimum distance per
// (candidate, skill) pair. Which section produced the minimum is
// deliberately discarded: only the distance value feeds scoring, so
// floating-point ties between sections cannot make the result ambiguous.
// Returns candidateID -> skillName -> best distance.
func BestMatches(records []MatchRecord) map[string]map[string]float64 {
	best := make(map[string]map[string]float64)
	for _, r := range records {
		skills, ok := best[r.CandidateID]
		if !ok {
			skills = make(map[string]float64)
			best[r.CandidateID] = skills
		}
		if current, ok := skills[r.SkillName]; !ok || r.Distance < current {
			skills[r.SkillName] = r.Distance
		}
	}
	return best
}
