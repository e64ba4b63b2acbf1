package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gitgauge/gitgauge/internal/interfaces"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// StatusError is a typed HTTP failure from the generation provider. The
// retry policy branches on StatusCode.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("provider returned status %d: %s", e.StatusCode, e.Message)
}

// GeminiConfig configures the Gemini REST generator.
type GeminiConfig struct {
	APIKey          string
	BaseURL         string
	Model           string
	Temperature     float64
	MaxOutputTokens int
	HTTPTimeout     time.Duration
}

// DefaultGeminiConfig returns production defaults. The API key must still
// be supplied.
func DefaultGeminiConfig() GeminiConfig {
	return GeminiConfig{
		BaseURL:         defaultGeminiBaseURL,
		Model:           "gemini-2.0-flash",
		Temperature:     0.3,
		MaxOutputTokens: 8192,
		HTTPTimeout:     120 * time.Second,
	}
}

// GeminiGenerator implements interfaces.Generator against the Gemini
// generateContent endpoint with a structured-output contract.
type GeminiGenerator struct {
	cfg    GeminiConfig
	client *http.Client
}

// NewGeminiGenerator creates a generator, filling zero cfg fields with
// defaults.
func NewGeminiGenerator(cfg GeminiConfig) *GeminiGenerator {
	def := DefaultGeminiConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = def.Temperature
	}
	if cfg.MaxOutputTokens <= 0 {
		cfg.MaxOutputTokens = def.MaxOutputTokens
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = def.HTTPTimeout
	}
	return &GeminiGenerator{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.HTTPTimeout},
	}
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature      float64                    `json:"temperature"`
	MaxOutputTokens  int                        `json:"maxOutputTokens"`
	ResponseMimeType string                     `json:"responseMimeType"`
	ResponseSchema   *interfaces.ResponseSchema `json:"responseSchema,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

type geminiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Generate submits prompt with the response-shape contract and returns the
// raw JSON payload the model produced.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string, schema *interfaces.ResponseSchema) ([]byte, error) {
	reqBody := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: geminiGenerationConfig{
			Temperature:      g.cfg.Temperature,
			MaxOutputTokens:  g.cfg.MaxOutputTokens,
			ResponseMimeType: "application/json",
			ResponseSchema:   schema,
		},
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.cfg.BaseURL, g.cfg.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.cfg.APIKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr geminiError
		msg := ""
		if err := json.Unmarshal(body, &apiErr); err == nil {
			msg = apiErr.Error.Message
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Message: msg}
	}

	var decoded geminiResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("response contains no candidates")
	}
	return []byte(decoded.Candidates[0].Content.Parts[0].Text), nil
}

var _ interfaces.Generator = (*GeminiGenerator)(nil)
