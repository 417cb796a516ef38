package matching

import (
	"strings"

	"cv-screening-platform/models"

	"github.com/google/uuid"
)

// Section topics, one per structured sub-entity of a resume.
const (
	TopicProfile       = "user_profile"
	TopicWebLink       = "user_web_links"
	TopicAddress       = "address"
	TopicEducation     = "education"
	TopicCertification = "certifications"
	TopicExperience    = "experience"
	TopicProject       = "projects"
	TopicSkill         = "user_skills"
)

// SectionRow is one atomic embeddable fact produced by BuildSections.
// SectionID doubles as the embedding correlation key so vectors are never
// paired back by list position alone.
type SectionRow struct {
	SectionID     string
	CandidateID   string
	Topic         string
	Payload       map[string]any
	EmbeddingText string
}

// BuildSections converts one extracted resume into section rows plus the
// parallel sequence of embedding texts. Both outputs are always the same
// length and index-aligned (row i owns text i), and traversal order is
// fixed: profile, web links, address, education, certifications,
// experience, projects, skills. Callers batch-embed the text slice and
// re-associate vectors by position within the batch.
func BuildSections(parsed *models.ParsedResume, candidateID string) ([]SectionRow, []string) {
	if parsed == nil {
		return nil, nil
	}

	var rows []SectionRow
	var texts []string

	add := func(topic string, payload map[string]any, text string) {
		rows = append(rows, SectionRow{
			SectionID:     uuid.NewString(),
			CandidateID:   candidateID,
			Topic:         topic,
			Payload:       payload,
			EmbeddingText: text,
		})
		texts = append(texts, text)
	}

	if text := compactProfile(parsed.Profile); text != "" {
		add(TopicProfile, map[string]any{
			"first_name":  Sanitize(parsed.Profile.FirstName),
			"middle_name": Sanitize(parsed.Profile.MiddleName),
			"last_name":   Sanitize(parsed.Profile.LastName),
			"email":       Sanitize(parsed.Profile.Email),
			"phone":       Sanitize(parsed.Profile.Phone),
			"headline":    Sanitize(parsed.Profile.Headline),
		}, text)
	}

	for _, link := range parsed.WebLinks {
		add(TopicWebLink, map[string]any{
			"label": Sanitize(link.Label),
			"url":   Sanitize(link.URL),
		}, compactWebLink(link))
	}

	if text := compactAddress(parsed.Address); text != "" {
		add(TopicAddress, map[string]any{
			"street":      Sanitize(parsed.Address.Street),
			"city":        Sanitize(parsed.Address.City),
			"state":       Sanitize(parsed.Address.State),
			"postal_code": Sanitize(parsed.Address.PostalCode),
			"country":     Sanitize(parsed.Address.Country),
		}, text)
	}

	for _, edu := range parsed.Education {
		add(TopicEducation, map[string]any{
			"degree":      Sanitize(edu.Degree),
			"field":       Sanitize(edu.Field),
			"institution": Sanitize(edu.Institution),
			"start":       Sanitize(edu.Start),
			"end":         Sanitize(edu.End),
			"grade":       Sanitize(edu.Grade),
		}, compactEducation(edu))
	}

	for _, cert := range parsed.Certifications {
		add(TopicCertification, map[string]any{
			"name":   Sanitize(cert.Name),
			"issuer": Sanitize(cert.Issuer),
			"year":   Sanitize(cert.Year),
		}, compactCertification(cert))
	}

	for _, exp := range parsed.Experience {
		highlights := make([]any, 0, len(exp.Highlights))
		for _, h := range exp.Highlights {
			highlights = append(highlights, Sanitize(h))
		}
		add(TopicExperience, map[string]any{
			"company":    Sanitize(exp.Company),
			"role":       Sanitize(exp.Role),
			"start":      Sanitize(exp.Start),
			"end":        Sanitize(exp.End),
			"summary":    Sanitize(exp.Summary),
			"highlights": highlights,
		}, compactExperience(exp))
	}

	for _, proj := range parsed.Projects {
		skills := make([]any, 0, len(proj.Skills))
		for _, s := range proj.Skills {
			skills = append(skills, Sanitize(s))
		}
		add(TopicProject, map[string]any{
			"title":   Sanitize(proj.Title),
			"summary": Sanitize(proj.Summary),
			"skills":  skills,
			"impact":  Sanitize(proj.Impact),
		}, compactProject(proj))
	}

	for _, skill := range parsed.Skills {
		add(TopicSkill, map[string]any{
			"name":  Sanitize(skill.Name),
			"level": Sanitize(skill.Level),
		}, compactSkill(skill))
	}

	return rows, texts
}

// Sanitize strips NUL bytes and replaces other control characters with
// spaces, then trims. Embedded control characters otherwise break both
// storage and embedding input.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == 0 || r == '�':
			// dropped
		case r < 32:
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// joinNonEmpty sanitizes each part and joins the non-empty ones.
func joinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := Sanitize(p); s != "" {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, sep)
}

// dateRange renders "start–end" with missing endpoints omitted; empty when
// neither is set.
func dateRange(start, end string) string {
	start, end = Sanitize(start), Sanitize(end)
	if start == "" && end == "" {
		return ""
	}
	return start + "–" + end
}

func compactProfile(p models.Profile) string {
	return joinNonEmpty(" | ", p.FullName(), p.Headline, p.Email, p.Phone)
}

func compactWebLink(l models.WebLink) string {
	label, url := Sanitize(l.Label), Sanitize(l.URL)
	if label == "" {
		return url
	}
	if url == "" {
		return label
	}
	return label + ": " + url
}

func compactAddress(a models.Address) string {
	return joinNonEmpty(", ", a.Street, a.City, a.State, a.PostalCode, a.Country)
}

func compactEducation(e models.Education) string {
	return joinNonEmpty(", ", e.Degree, e.Field, e.Institution, dateRange(e.Start, e.End), e.Grade)
}

func compactCertification(c models.Certification) string {
	name := Sanitize(c.Name)
	detail := joinNonEmpty(", ", c.Issuer, c.Year)
	if detail == "" {
		return name
	}
	if name == "" {
		return detail
	}
	return name + " (" + detail + ")"
}

func compactExperience(e models.Experience) string {
	head := joinNonEmpty(" @ ", e.Role, e.Company)
	segments := make([]string, 0, 4)
	if head != "" {
		segments = append(segments, head)
	}
	if r := dateRange(e.Start, e.End); r != "" {
		segments = append(segments, r)
	}
	if s := Sanitize(e.Summary); s != "" {
		segments = append(segments, s)
	}
	if h := joinNonEmpty("; ", e.Highlights...); h != "" {
		segments = append(segments, "Highlights: "+h)
	}
	return strings.Join(segments, " | ")
}

func compactProject(p models.Project) string {
	head := Sanitize(p.Title)
	if s := Sanitize(p.Summary); s != "" {
		if head != "" {
			head += ": " + s
		} else {
			head = s
		}
	}
	segments := make([]string, 0, 3)
	if head != "" {
		segments = append(segments, head)
	}
	if s := joinNonEmpty(", ", p.Skills...); s != "" {
		segments = append(segments, "Skills: "+s)
	}
	if impact := Sanitize(p.Impact); impact != "" {
		segments = append(segments, "Impact: "+impact)
	}
	return strings.Join(segments, " | ")
}

func compactSkill(s models.SkillItem) string {
	name, level := Sanitize(s.Name), Sanitize(s.Level)
	if level == "" {
		return name
	}
	if name == "" {
		return level
	}
	return name + " (" + level + ")"
}
