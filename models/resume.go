package models

import "strings"

// ParsedResume is the structured entity output of the extraction model.
// Every field is optional: the extractor is instructed to return the full
// shape, but downstream code never assumes any field is present.
type ParsedResume struct {
	Profile        Profile         `json:"user_profile"`
	WebLinks       []WebLink       `json:"user_web_links"`
	Address        Address         `json:"address"`
	Education      []Education     `json:"education"`
	Certifications []Certification `json:"certifications"`
	Experience     []Experience    `json:"experience"`
	Projects       []Project       `json:"projects"`
	Skills         []SkillItem     `json:"user_skills"`
}

type Profile struct {
	FirstName  string `json:"first_name"`
	MiddleName string `json:"middle_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Headline   string `json:"headline"`
}

type WebLink struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type Education struct {
	Degree      string `json:"degree"`
	Field       string `json:"field"`
	Institution string `json:"institution"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Grade       string `json:"grade"`
}

type Certification struct {
	Name   string `json:"name"`
	Issuer string `json:"issuer"`
	Year   string `json:"year"`
}

type Experience struct {
	Company    string   `json:"company"`
	Role       string   `json:"role"`
	Start      string   `json:"start"`
	End        string   `json:"end"`
	Summary    string   `json:"summary"`
	Highlights []string `json:"highlights"`
}

type Project struct {
	Title   string   `json:"title"`
	Summary string   `json:"summary"`
	Skills  []string `json:"skills"`
	Impact  string   `json:"impact"`
}

type SkillItem struct {
	Name  string `json:"name"`
	Level string `json:"level"`
}

// FullName joins the profile name parts, skipping empty ones.
func (p Profile) FullName() string {
	parts := make([]string, 0, 3)
	for _, s := range []string{p.FirstName, p.MiddleName, p.LastName} {
		if strings.TrimSpace(s) != "" {
			parts = append(parts, strings.TrimSpace(s))
		}
	}
	return strings.Join(parts, " ")
}
