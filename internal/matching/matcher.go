package matching

import "math"

// DefaultThreshold is the acceptance bound on cosine distance: pairs at or
// above it are not matches.
const DefaultThreshold = 0.65

// SectionVector is one stored section embedding entering the matcher.
type SectionVector struct {
	CandidateID string
	SectionID   string
	Vector      []float32
}

// CatalogVector is one embedded catalog entry entering the matcher.
type CatalogVector struct {
	SkillName string
	Weight    float64
	Vector    []float32
}

// MatchRecord is one (section, catalog entry) pair within acceptance range.
type MatchRecord struct {
	CandidateID string
	SectionID   string
	SkillName   string
	Distance    float64
}

// CosineDistance returns 1 - cosine similarity. Lower means more similar.
// A zero-norm or mismatched-dimension pair yields the maximum useful
// distance of 1, which can never pass a sane threshold.
func CosineDistance(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 1
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 1
	}
	return 1 - dot/denom
}

// Matcher computes threshold-filtered distances between section vectors and
// catalog vectors.
type Matcher struct {
	Threshold float64
}

// NewMatcher returns a matcher with the given acceptance threshold;
// non-positive values fall back to DefaultThreshold.
func NewMatcher(threshold float64) Matcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return Matcher{Threshold: threshold}
}

// Match compares every section vector against every catalog vector and
// keeps the pairs with distance strictly below the threshold. Matching is
// not exclusive in either direction: one section can satisfy several
// skills, and one skill can be satisfied by several sections of the same
// candidate.
func (m Matcher) Match(sections []SectionVector, catalog []CatalogVector) []MatchRecord {
	var records []MatchRecord
	for _, sv := range sections {
		if len(sv.Vector) == 0 {
			continue
		}
		for _, cv := range catalog {
			if len(cv.Vector) == 0 {
				continue
			}
			d := CosineDistance(sv.Vector, cv.Vector)
			if d < m.Threshold {
				records = append(records, MatchRecord{
					CandidateID: sv.CandidateID,
					SectionID:   sv.SectionID,
					SkillName:   cv.SkillName,
					Distance:    d,
				})
			}
		}
	}
	return records
}

// Filter applies the matcher's threshold to externally computed records,
// for distances produced by a vector store rather than in process.
func (m Matcher) Filter(records []MatchRecord) []MatchRecord {
	kept := records[:0:0]
	for _, r := range records {
		if r.Distance < m.Threshold {
			kept = append(kept, r)
		}
	}
	return kept
}
