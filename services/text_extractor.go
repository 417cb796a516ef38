package services

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"cv-screening-platform/internal/config"
)

// TextExtractor handles robust PDF text extraction
type TextExtractor struct {
	config *config.Config
}

func NewTextExtractor(cfg *config.Config) *TextExtractor {
	return &TextExtractor{config: cfg}
}

// ExtractionResult contains the result of PDF text extraction
type ExtractionResult struct {
	Text           string
	Pages          int
	Method         string
	QualityScore   float64
	ProcessingTime time.Duration
	WordCount      int
	CharacterCount int
}

// ExtractText extracts text from a stored resume. Plain-text uploads are
// read as-is; PDFs go through multiple extraction methods with fallbacks,
// where the first result with acceptable quality wins and otherwise the best
// attempt is returned.
func (e *TextExtractor) ExtractText(ctx context.Context, filePath string) (*ExtractionResult, error) {
	start := time.Now()

	stat, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat resume file: %w", err)
	}
	if stat.Size() > 200<<20 { // 200MB safety cap
		return nil, fmt.Errorf("resume too large for in-memory extraction")
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read resume file: %w", err)
	}

	if !bytes.HasPrefix(content, []byte("%PDF")) {
		return e.finishResult(e.extractPlainText(content), "plain-text", start)
	}

	methods := []struct {
		name    string
		extract func(context.Context, []byte) (*ExtractionResult, error)
	}{
		{"poppler", e.extractWithPoppler},
		{"go-pdf", e.extractWithGoPDF},
	}

	var lastErr error
	var bestResult *ExtractionResult

	for _, method := range methods {
		result, err := method.extract(ctx, content)
		if err != nil {
			lastErr = err
			continue
		}

		result.Method = method.name
		result.ProcessingTime = time.Since(start)
		result.QualityScore = EvaluateTextQuality(result.Text)
		result.WordCount = len(strings.Fields(result.Text))
		result.CharacterCount = len(result.Text)

		if result.QualityScore >= 0.7 {
			return result, nil
		}
		if bestResult == nil || result.QualityScore > bestResult.QualityScore {
			bestResult = result
		}
	}

	if bestResult != nil && bestResult.QualityScore >= 0.3 {
		return bestResult, nil
	}

	return nil, fmt.Errorf("all extraction methods failed: %v", lastErr)
}

// extractPlainText handles text resume uploads, which need none of the PDF
// machinery.
func (e *TextExtractor) extractPlainText(content []byte) *ExtractionResult {
	return &ExtractionResult{
		Text:  string(bytes.ToValidUTF8(content, []byte("�"))),
		Pages: 1,
	}
}

func (e *TextExtractor) finishResult(result *ExtractionResult, method string, start time.Time) (*ExtractionResult, error) {
	result.Method = method
	result.ProcessingTime = time.Since(start)
	result.QualityScore = EvaluateTextQuality(result.Text)
	result.WordCount = len(strings.Fields(result.Text))
	result.CharacterCount = len(result.Text)
	return result, nil
}

// extractWithPoppler uses poppler-utils (pdftotext) for extraction
func (e *TextExtractor) extractWithPoppler(ctx context.Context, content []byte) (*ExtractionResult, error) {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return nil, fmt.Errorf("pdftotext not available")
	}

	extractCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(extractCtx, "pdftotext", "-layout", "-", "-")
	cmd.Stdin = bytes.NewReader(content)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("pdftotext failed: %v, stderr: %s", err, stderr.String())
	}

	extractedText := stdout.String()
	if len(extractedText) == 0 {
		return nil, fmt.Errorf("no text extracted by pdftotext")
	}

	return &ExtractionResult{
		Text:  extractedText,
		Pages: strings.Count(extractedText, "\f") + 1,
	}, nil
}

// extractWithGoPDF uses the Go PDF library for extraction
func (e *TextExtractor) extractWithGoPDF(ctx context.Context, content []byte) (*ExtractionResult, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF reader: %w", err)
	}

	var textBuilder strings.Builder
	pages := reader.NumPage()

	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		fonts := make(map[string]*pdf.Font)
		text, err := page.GetPlainText(fonts)
		if err != nil {
			continue
		}

		textBuilder.WriteString(text)
		textBuilder.WriteString("\n")
	}

	extractedText := textBuilder.String()
	if len(extractedText) == 0 {
		return nil, fmt.Errorf("no text extracted by go-pdf")
	}

	return &ExtractionResult{
		Text:  extractedText,
		Pages: pages,
	}, nil
}

// EvaluateTextQuality scores extracted text between 0 and 1. Garbled
// extractions (font subsetting, scanned pages) score low and trigger the
// next fallback method.
func EvaluateTextQuality(text string) float64 {
	if len(text) == 0 {
		return 0.0
	}

	text = strings.TrimSpace(text)
	if len(text) < 10 {
		return 0.1
	}

	var alphanumeric, printable, corrupted int

	for _, r := range text {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			alphanumeric++
			printable++
		case r == ' ' || r == '\n' || r == '\t':
			printable++
		case r >= 32 && r <= 126:
			printable++
		case r == '�':
			corrupted++
		default:
			if r > 127 {
				printable++
			} else {
				corrupted++
			}
		}
	}

	total := len([]rune(text))
	alphanumericRatio := float64(alphanumeric) / float64(total)
	printableRatio := float64(printable) / float64(total)
	corruptedRatio := float64(corrupted) / float64(total)

	score := printableRatio * 0.4
	if alphanumericRatio >= 0.3 {
		score += 0.3
	} else {
		score += alphanumericRatio
	}
	score -= corruptedRatio * 2.0
	if len(text) > 100 {
		score += 0.1
	}
	if hasProsePatterns(text) {
		score += 0.2
	}

	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score
}

// hasProsePatterns checks for signals of a clean extraction: capitalized
// words, sentence boundaries, common English function words.
func hasProsePatterns(text string) bool {
	signals := 0
	lower := strings.ToLower(text)
	for _, word := range []string{" the ", " and ", " of ", " to ", " in "} {
		if strings.Contains(lower, word) {
			signals++
		}
	}
	return signals >= 2
}
