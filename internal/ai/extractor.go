package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	genai "github.com/google/generative-ai-go/genai"

	"cv-screening-platform/internal/telemetry"
	"cv-screening-platform/models"
)

const systemPrompt = "You are an expert CV parser. Extract clean, schema-compliant JSON. " +
	"Return ONLY JSON, no explanations."

const extractionSchema = `{
  "user_profile": {
    "first_name": "string", "middle_name": "string", "last_name": "string",
    "email": "string", "phone": "string", "headline": "string"
  },
  "user_web_links": [{"label": "string", "url": "string"}],
  "address": {"street": "string", "city": "string", "state": "string", "postal_code": "string", "country": "string"},
  "education": [{"degree": "string", "field": "string", "institution": "string", "start": "string", "end": "string", "grade": "string"}],
  "certifications": [{"name": "string", "issuer": "string", "year": "string"}],
  "experience": [{"company": "string", "role": "string", "start": "string", "end": "string", "summary": "string", "highlights": ["string"]}],
  "projects": [{"title": "string", "summary": "string", "skills": ["string"], "impact": "string"}],
  "user_skills": [{"name": "string", "level": "string"}]
}`

// Model output can exceed a single prompt window on very long documents.
const maxExtractionChars = 200000

type RateLimits struct {
	RPM int // Requests per minute
	TPM int // Tokens per minute
	RPD int // Requests per day
}

func getRateLimits(tier string) RateLimits {
	switch tier {
	case "free":
		return RateLimits{RPM: 10, TPM: 250000, RPD: 250}
	case "tier1":
		return RateLimits{RPM: 1000, TPM: 1000000, RPD: 10000}
	case "tier2":
		return RateLimits{RPM: 2000, TPM: 4000000, RPD: 50000}
	default:
		return RateLimits{RPM: 10, TPM: 250000, RPD: 250}
	}
}

// ResumeExtractor turns raw resume text into a structured ParsedResume via
// Gemini, guarded by a circuit breaker and a tier-based rate limiter.
type ResumeExtractor struct {
	client      *genai.Client
	model       string
	breaker     *gobreaker.CircuitBreaker
	rateLimiter *rate.Limiter
}

func NewResumeExtractor(apiKey, model, tier string, metrics *telemetry.Metrics) (*ResumeExtractor, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	limits := getRateLimits(tier)

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "GeminiExtraction",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Printf("Circuit breaker %s: %s -> %s", name, from, to)
			metrics.RecordCircuitBreakerState(name, to.String())
		},
	})

	// RPM limit with some buffer
	rateLimiter := rate.NewLimiter(rate.Limit(float64(limits.RPM)*0.9/60.0), max(limits.RPM/10, 1))

	return &ResumeExtractor{
		client:      client,
		model:       model,
		breaker:     breaker,
		rateLimiter: rateLimiter,
	}, nil
}

// Extract parses resume text into the structured schema. The text is
// truncated to a safe prompt size before the call.
func (re *ResumeExtractor) Extract(ctx context.Context, resumeText string) (*models.ParsedResume, error) {
	tracer := otel.Tracer("resume-extractor")
	ctx, span := tracer.Start(ctx, "gemini.extract_resume")
	defer span.End()

	if len(resumeText) > maxExtractionChars {
		resumeText = resumeText[:maxExtractionChars]
		span.SetAttributes(attribute.Bool("extraction.truncated", true))
	}
	span.SetAttributes(
		attribute.Int("extraction.text_chars", len(resumeText)),
		attribute.String("extraction.model", re.model),
	)

	if err := re.rateLimiter.Wait(ctx); err != nil {
		span.SetAttributes(attribute.Bool("extraction.rate_limited", true))
		return nil, err
	}

	prompt := fmt.Sprintf("%s\n\nExtract the following CV into JSON using this schema:\n%s\n\nCV:\n%s",
		systemPrompt, extractionSchema, resumeText)

	result, err := re.breaker.Execute(func() (interface{}, error) {
		model := re.client.GenerativeModel(re.model)
		model.SetTemperature(0)

		resp, err := model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			span.SetAttributes(attribute.Bool("extraction.error", true))
			return nil, err
		}
		return resp, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			span.SetAttributes(attribute.Bool("extraction.circuit_breaker_open", true))
		}
		return nil, err
	}

	raw := responseText(result.(*genai.GenerateContentResponse))
	parsed, err := decodeModelJSON(raw)
	if err != nil {
		span.SetAttributes(attribute.Bool("extraction.invalid_json", true))
		return nil, fmt.Errorf("model returned unparseable JSON: %w", err)
	}

	span.SetAttributes(attribute.Bool("extraction.success", true))
	return parsed, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	var sb strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
	}
	return sb.String()
}

var (
	fenceRe  = regexp.MustCompile("(?is)^```(?:json)?\\s*|\\s*```$")
	objectRe = regexp.MustCompile(`(?s)\{.*\}`)
)

// decodeModelJSON decodes the model output, tolerating markdown code fences
// and surrounding prose. Falls back to the outermost JSON object when the
// whole string is not valid JSON.
func decodeModelJSON(raw string) (*models.ParsedResume, error) {
	cleaned := fenceRe.ReplaceAllString(strings.TrimSpace(raw), "")

	var parsed models.ParsedResume
	if err := json.Unmarshal([]byte(cleaned), &parsed); err == nil {
		return &parsed, nil
	}

	obj := objectRe.FindString(cleaned)
	if obj == "" {
		return nil, errors.New("no JSON object in model output")
	}
	if err := json.Unmarshal([]byte(obj), &parsed); err != nil {
		return nil, err
	}
	return &parsed, nil
}

func (re *ResumeExtractor) Close() error {
	if re.client != nil {
		return re.client.Close()
	}
	return nil
}
