package matching

import (
	"math"
	"sort"
)

// Scorer computes one accepted skill's contribution to a candidate's total
// score. The formula is a policy, not a law: it is replaceable without
// touching matching or resolution.
type Scorer interface {
	Contribution(weight, bestDistance float64) float64
}

// AdditiveScorer is the stock policy: weight + (1 - best distance). Every
// accepted skill contributes at least weight + (1 - threshold) > 0, so
// breadth (more matched skills) beats depth (better single matches).
type AdditiveScorer struct{}

func (AdditiveScorer) Contribution(weight, bestDistance float64) float64 {
	return weight + (1 - bestDistance)
}

// RankedResult is one scored candidate. MatchedSkills is sorted
// alphabetically for deterministic output.
type RankedResult struct {
	CandidateID   string
	MatchedSkills []string
	TotalScore    float64
}

// Ranker aggregates best matches into a total-ordered candidate ranking.
type Ranker struct {
	Scorer Scorer
}

// NewRanker returns a ranker with the given scoring policy, defaulting to
// AdditiveScorer.
func NewRanker(scorer Scorer) Ranker {
	if scorer == nil {
		scorer = AdditiveScorer{}
	}
	return Ranker{Scorer: scorer}
}

// Rank scores every candidate present in the best-match map against the
// catalog weights and returns them ordered by total score descending, ties
// broken by candidate ID ascending. Candidates with zero matched skills do
// not appear at all. A positive limit truncates the result.
func (r Ranker) Rank(best map[string]map[string]float64, weights map[string]float64, limit int) []RankedResult {
	results := make([]RankedResult, 0, len(best))
	for candidateID, skills := range best {
		if len(skills) == 0 {
			continue
		}
		matched := make([]string, 0, len(skills))
		total := 0.0
		for skill, distance := range skills {
			weight, ok := weights[skill]
			if !ok {
				// Stale match against a skill since removed from the catalog.
				continue
			}
			matched = append(matched, skill)
			total += r.Scorer.Contribution(weight, distance)
		}
		if len(matched) == 0 {
			continue
		}
		sort.Strings(matched)
		results = append(results, RankedResult{
			CandidateID:   candidateID,
			MatchedSkills: matched,
			TotalScore:    total,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].TotalScore != results[j].TotalScore {
			return results[i].TotalScore > results[j].TotalScore
		}
		return results[i].CandidateID < results[j].CandidateID
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// RoundScore rounds a total score to one decimal for presentation. Internal
// ordering always uses the unrounded value.
func RoundScore(score float64) float64 {
	return math.Round(score*10) / 10
}
