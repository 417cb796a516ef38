package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"cv-screening-platform/internal/config"
)

func TestExtractTextPlainTextResume(t *testing.T) {
	body := "Jane Doe\nSenior software engineer with ten years of experience in the design " +
		"and delivery of distributed systems. Led the platform team to a successful launch."
	path := filepath.Join(t.TempDir(), "resume.txt")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	extractor := NewTextExtractor(&config.Config{})
	result, err := extractor.ExtractText(context.Background(), path)
	if err != nil {
		t.Fatalf("plain-text resume must extract: %v", err)
	}
	if result.Method != "plain-text" {
		t.Errorf("method = %q, want plain-text", result.Method)
	}
	if result.Text != body {
		t.Errorf("text not preserved: %q", result.Text)
	}
	if result.QualityScore < 0.7 {
		t.Errorf("clean prose quality = %v, want >= 0.7", result.QualityScore)
	}
	if result.WordCount == 0 || result.CharacterCount != len(body) {
		t.Errorf("counts not filled: words=%d chars=%d", result.WordCount, result.CharacterCount)
	}
}

func TestEvaluateTextQuality(t *testing.T) {
	cases := []struct {
		name string
		text string
		min  float64
		max  float64
	}{
		{"empty", "", 0, 0},
		{"too short", "ab", 0.05, 0.15},
		{
			"clean prose",
			"Experienced software engineer with ten years of work in distributed systems. " +
				"Led the design and delivery of large data pipelines and mentored junior engineers across the team.",
			0.7, 1,
		},
		{
			"garbled",
			"��������������",
			0, 0.2,
		},
	}

	for _, c := range cases {
		got := EvaluateTextQuality(c.text)
		if got < c.min || got > c.max {
			t.Errorf("%s: quality = %v, want in [%v, %v]", c.name, got, c.min, c.max)
		}
	}
}

func TestEvaluateTextQualityPrefersProse(t *testing.T) {
	prose := "He worked at the company for five years and led the platform team to a successful launch of the product."
	noise := "xK9#qW2$mL7@vB4!xK9#qW2$mL7@vB4!xK9#qW2$mL7@vB4!xK9#qW2$mL7@vB4!xK9#qW2$mL7@vB4!xK9#qW2$mL7@vB4!zzzz"
	if EvaluateTextQuality(prose) <= EvaluateTextQuality(noise) {
		t.Fatalf("prose must score above symbol noise: %v vs %v",
			EvaluateTextQuality(prose), EvaluateTextQuality(noise))
	}
}
