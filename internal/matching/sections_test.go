package matching

import (
	"strings"
	"testing"

	"cv-screening-platform/models"
)

func sampleResume() *models.ParsedResume {
	return &models.ParsedResume{
		Profile: models.Profile{
			FirstName: "Ada",
			LastName:  "Lovelace",
			Email:     "ada@example.com",
			Headline:  "Backend Engineer",
		},
		WebLinks: []models.WebLink{
			{Label: "GitHub", URL: "https://github.com/ada"},
		},
		Address: models.Address{City: "London", Country: "UK"},
		Education: []models.Education{
			{Degree: "BSc", Field: "Mathematics", Institution: "UCL", Start: "2010", End: "2013", Grade: "First"},
		},
		Certifications: []models.Certification{
			{Name: "CKA", Issuer: "CNCF", Year: "2022"},
		},
		Experience: []models.Experience{
			{Company: "Analytical Engines", Role: "Engineer", Start: "2014", End: "2020",
				Summary: "Built compute pipelines", Highlights: []string{"Scaled to 1M jobs", "Led a team of 4"}},
		},
		Projects: []models.Project{
			{Title: "Difference Engine", Summary: "Mechanical computation", Skills: []string{"Design", "Math"}, Impact: "Foundational"},
		},
		Skills: []models.SkillItem{
			{Name: "Python", Level: "expert"},
			{Name: "SQL"},
		},
	}
}

func TestBuildSectionsAlignmentAndOrder(t *testing.T) {
	rows, texts := BuildSections(sampleResume(), "cand-1")

	if len(rows) != len(texts) {
		t.Fatalf("rows and texts must be index-aligned: %d vs %d", len(rows), len(texts))
	}
	for i := range rows {
		if rows[i].EmbeddingText != texts[i] {
			t.Fatalf("row %d text mismatch: %q vs %q", i, rows[i].EmbeddingText, texts[i])
		}
	}

	wantTopics := []string{
		TopicProfile, TopicWebLink, TopicAddress, TopicEducation,
		TopicCertification, TopicExperience, TopicProject, TopicSkill, TopicSkill,
	}
	if len(rows) != len(wantTopics) {
		t.Fatalf("expected %d sections, got %d", len(wantTopics), len(rows))
	}
	for i, topic := range wantTopics {
		if rows[i].Topic != topic {
			t.Errorf("section %d topic = %s, want %s", i, rows[i].Topic, topic)
		}
	}
}

func TestBuildSectionsCompaction(t *testing.T) {
	rows, _ := BuildSections(sampleResume(), "cand-1")

	byTopic := make(map[string]string)
	for _, r := range rows {
		if _, seen := byTopic[r.Topic]; !seen {
			byTopic[r.Topic] = r.EmbeddingText
		}
	}

	if got := byTopic[TopicEducation]; got != "BSc, Mathematics, UCL, 2010–2013, First" {
		t.Errorf("education text = %q", got)
	}
	if got := byTopic[TopicExperience]; got != "Engineer @ Analytical Engines | 2014–2020 | Built compute pipelines | Highlights: Scaled to 1M jobs; Led a team of 4" {
		t.Errorf("experience text = %q", got)
	}
	if got := byTopic[TopicProfile]; got != "Ada Lovelace | Backend Engineer | ada@example.com" {
		t.Errorf("profile text = %q", got)
	}
	if got := byTopic[TopicSkill]; got != "Python (expert)" {
		t.Errorf("skill text = %q", got)
	}
}

func TestBuildSectionsTotalOnMissingFields(t *testing.T) {
	parsed := &models.ParsedResume{
		Education:  []models.Education{{}},
		Experience: []models.Experience{{Role: "Engineer"}},
	}
	rows, texts := BuildSections(parsed, "cand-2")
	if len(rows) != 2 || len(texts) != 2 {
		t.Fatalf("expected 2 sections, got %d rows %d texts", len(rows), len(texts))
	}
	// Empty payloads still produce a (possibly empty) string, never a panic.
	if texts[0] != "" {
		t.Errorf("empty education compaction = %q, want empty", texts[0])
	}
	if texts[1] != "Engineer" {
		t.Errorf("partial experience compaction = %q", texts[1])
	}
}

func TestBuildSectionsSkipsEmptyScalarGroups(t *testing.T) {
	rows, _ := BuildSections(&models.ParsedResume{}, "cand-3")
	if len(rows) != 0 {
		t.Fatalf("empty resume must yield zero sections, got %d", len(rows))
	}
}

func TestBuildSectionsStableForSameInput(t *testing.T) {
	a, textsA := BuildSections(sampleResume(), "cand-4")
	b, textsB := BuildSections(sampleResume(), "cand-4")
	if len(a) != len(b) {
		t.Fatalf("section counts differ across runs: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if textsA[i] != textsB[i] {
			t.Errorf("embedding text %d not stable: %q vs %q", i, textsA[i], textsB[i])
		}
	}
}

func TestSanitize(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"tab\there", "tab here"},
		{"nul\x00byte", "nulbyte"},
		{"line\nbreak", "line break"},
		{"  padded  ", "padded"},
		{"", ""},
	}
	for _, c := range cases {
		if got := Sanitize(c.in); got != c.want {
			t.Errorf("Sanitize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSectionIDsUnique(t *testing.T) {
	rows, _ := BuildSections(sampleResume(), "cand-5")
	seen := make(map[string]bool)
	for _, r := range rows {
		if r.SectionID == "" {
			t.Fatalf("section without ID: %+v", r)
		}
		if seen[r.SectionID] {
			t.Fatalf("duplicate section ID %s", r.SectionID)
		}
		seen[r.SectionID] = true
		if !strings.HasPrefix(r.CandidateID, "cand-") {
			t.Fatalf("candidate ID not carried: %+v", r)
		}
	}
}
