package models

// RankedCandidate is one row of the ranking output. MatchScore is rounded
// to one decimal at the response edge only.
type RankedCandidate struct {
	CandidateID   string   `json:"candidate_id"`
	Name          string   `json:"name"`
	Email         string   `json:"email"`
	MatchedSkills []string `json:"matched_skills"`
	MatchScore    float64  `json:"match_score"`
}

// SkillQueryRequest is the single-skill search input: either a catalog
// skill by name, or ad-hoc free text embedded on the fly.
type SkillQueryRequest struct {
	SkillName string `json:"skill_name"`
	Text      string `json:"text"`
	Limit     int    `json:"limit"`
}
