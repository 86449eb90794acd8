// Package gemini resolves ZIP codes with Google's Gemini models when the
// postal data sources have no answer.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"google.golang.org/genai"

	"github.com/codeGROOVE-dev/zipTZ/pkg/lookup"
	"github.com/codeGROOVE-dev/zipTZ/pkg/zipcode"
)

// SourceName identifies this resolver in results and logs.
const SourceName = "gemini"

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash-lite"

// Response represents the structured Gemini answer.
type Response struct {
	City       string `json:"city"`
	State      string `json:"state"`
	Timezone   string `json:"timezone"`
	Confidence string `json:"confidence"` // "high", "medium", or "low"
}

// Generator produces the raw JSON text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Client resolves ZIP codes through a Generator.
type Client struct {
	generator Generator
	logger    *slog.Logger
}

// NewClient creates a resolver backed by the Gemini API.
// With an empty apiKey it uses Vertex AI and Application Default Credentials.
func NewClient(apiKey, model, gcpProject string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		generator: &sdkGenerator{apiKey: apiKey, model: model, gcpProject: gcpProject, logger: logger},
		logger:    logger,
	}
}

// NewWithGenerator creates a resolver over any Generator.
func NewWithGenerator(g Generator, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{generator: g, logger: logger}
}

// Lookup implements lookup.Resolver.
func (c *Client) Lookup(ctx context.Context, code zipcode.Code) (*lookup.Location, error) {
	text, err := c.generator.Generate(ctx, zipPrompt(code.String()))
	if err != nil {
		return nil, err
	}
	resp, err := parseResponse(text)
	if err != nil {
		c.logger.Warn("failed to parse Gemini JSON response", "error", err, "response_text", text)
		return nil, err
	}
	c.logger.Debug("Gemini response", "zip", code, "city", resp.City, "state", resp.State,
		"timezone", resp.Timezone, "confidence", resp.Confidence)

	if resp.Timezone == "" || strings.HasPrefix(strings.ToUpper(resp.Timezone), "UTC") {
		return nil, lookup.ErrNotFound
	}
	if resp.Confidence == "low" && resp.City == "" {
		return nil, lookup.ErrNotFound
	}
	return &lookup.Location{
		ZIP:      code,
		City:     resp.City,
		State:    resp.State,
		Timezone: resp.Timezone,
		Source:   SourceName,
	}, nil
}

// parseResponse decodes the model output, tolerating fenced code blocks.
func parseResponse(text string) (*Response, error) {
	var resp Response
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		jsonText, extractErr := extractJSON(text)
		if extractErr != nil {
			return nil, fmt.Errorf("failed to parse Gemini JSON response: %w", err)
		}
		if err := json.Unmarshal([]byte(jsonText), &resp); err != nil {
			return nil, fmt.Errorf("failed to parse Gemini JSON response: %w", err)
		}
	}
	resp.City = strings.TrimSpace(resp.City)
	resp.State = strings.ToUpper(strings.TrimSpace(resp.State))
	resp.Timezone = strings.TrimSpace(resp.Timezone)
	resp.Confidence = strings.ToLower(strings.TrimSpace(resp.Confidence))
	return &resp, nil
}

// extractJSON pulls the outermost JSON object out of surrounding prose.
func extractJSON(text string) (string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return "", fmt.Errorf("no valid JSON found in response")
	}
	return text[start : end+1], nil
}

// sdkGenerator calls Gemini through the official SDK.
type sdkGenerator struct {
	logger     *slog.Logger
	apiKey     string
	model      string
	gcpProject string
}

func (g *sdkGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	client, err := g.createClient(ctx)
	if err != nil {
		return "", err
	}

	modelName := strings.TrimPrefix(g.model, "models/")
	if modelName == "" {
		modelName = DefaultModel
	}
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}
	temperature := float32(0)
	config := &genai.GenerateContentConfig{
		Temperature:      &temperature,
		MaxOutputTokens:  256,
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema(),
	}

	var resp *genai.GenerateContentResponse
	err = retry.Do(
		func() error {
			var genErr error
			resp, genErr = client.Models.GenerateContent(ctx, modelName, contents, config)
			if genErr != nil && !isTransientError(genErr) {
				g.logger.Error("Gemini API non-transient error", "error", genErr)
				return retry.Unrecoverable(genErr)
			}
			return genErr
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.MaxDelay(5*time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			g.logger.Debug("Retrying Gemini API call", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return "", fmt.Errorf("gemini API call failed: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("empty response from Gemini API")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 || candidate.Content.Parts[0].Text == "" {
		return "", fmt.Errorf("no content in Gemini response")
	}
	return candidate.Content.Parts[0].Text, nil
}

func (g *sdkGenerator) createClient(ctx context.Context) (*genai.Client, error) {
	var config *genai.ClientConfig
	if g.apiKey != "" {
		config = &genai.ClientConfig{
			Backend: genai.BackendGeminiAPI,
			APIKey:  g.apiKey,
		}
	} else {
		projectID := g.gcpProject
		if projectID == "" {
			projectID = os.Getenv("GOOGLE_CLOUD_PROJECT")
		}
		config = &genai.ClientConfig{
			Backend:  genai.BackendVertexAI,
			Project:  projectID,
			Location: "us-central1",
		}
		g.logger.Debug("Using Vertex AI with Application Default Credentials", "project", projectID)
	}

	client, err := genai.NewClient(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return client, nil
}

func responseSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"city": {
				Type:        genai.TypeString,
				Description: "Primary city for the ZIP code, empty if unknown",
			},
			"state": {
				Type:        genai.TypeString,
				Description: "Two-letter USPS state abbreviation, empty if unknown",
			},
			"timezone": {
				Type:        genai.TypeString,
				Description: "IANA timezone identifier such as 'America/New_York', empty if unknown",
			},
			"confidence": {
				Type: genai.TypeString,
				Enum: []string{"high", "medium", "low"},
			},
		},
		PropertyOrdering: []string{"city", "state", "timezone", "confidence"},
		Required:         []string{"city", "state", "timezone", "confidence"},
	}
}

// isTransientError determines if an error should trigger a retry.
func isTransientError(err error) bool {
	errStr := strings.ToLower(err.Error())
	for _, indicator := range []string{
		"rate limit", "quota", "timeout", "deadline", "unavailable",
		"internal server error", "502", "503", "504",
	} {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}
	return false
}
