package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/importar-info/importador/models"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Client is a lightweight Gemini API client for structured extraction.
// It uses net/http directly — no third-party SDK needed.
type Client struct {
	// BaseURL is the API endpoint. NewClient sets the public Gemini
	// endpoint; tests point it at a local server.
	BaseURL string

	httpClient *http.Client
	apiKey     string
	models     []string
}

// NewClient creates a Gemini client. Pass nil to use a default
// http.Client. An empty apiKey produces a disabled client whose
// Extract is a no-op.
func NewClient(httpClient *http.Client, apiKey string, modelNames []string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		BaseURL:    defaultBaseURL,
		httpClient: httpClient,
		apiKey:     apiKey,
		models:     modelNames,
	}
}

// Enabled reports whether the client has a credential to work with.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// generateRequest is the Gemini generateContent request body.
type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature"`
	ResponseMimeType string  `json:"responseMimeType"`
}

// generateResponse is the minimal Gemini response we need.
type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Extract asks the model for vehicle fields from the listing page.
// Without an API key it returns an empty partial and no error. Each
// configured model is tried in order; the first usable answer wins.
func (c *Client) Extract(ctx context.Context, prompt string) (models.CarFields, error) {
	var empty models.CarFields
	if !c.Enabled() || prompt == "" {
		return empty, nil
	}

	var lastErr error
	for _, model := range c.models {
		fields, err := c.generate(ctx, model, prompt)
		if err != nil {
			slog.Debug("gemini model failed, trying next", "model", model, "error", err)
			lastErr = err
			continue
		}
		return fields, nil
	}
	return empty, lastErr
}

func (c *Client) generate(ctx context.Context, model, prompt string) (models.CarFields, error) {
	var empty models.CarFields

	reqBody := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:      0,
			ResponseMimeType: "application/json",
		},
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return empty, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		strings.TrimRight(c.BaseURL, "/"), model, c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return empty, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return empty, models.NewScrapeError(models.ErrCodeLLMFailure, "LLM request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return empty, models.NewScrapeError(models.ErrCodeLLMFailure, "failed to read LLM response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return empty, classifyLLMError(resp.StatusCode, respBody)
	}

	var genResp generateResponse
	if err := json.Unmarshal(respBody, &genResp); err != nil {
		return empty, models.NewScrapeError(models.ErrCodeLLMFailure, "failed to parse LLM response", err)
	}
	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return empty, models.NewScrapeError(models.ErrCodeLLMFailure, "LLM returned no candidates", nil)
	}

	raw := stripFences(genResp.Candidates[0].Content.Parts[0].Text)
	return parseFields(raw)
}

// classifyLLMError maps HTTP status codes to appropriate error codes.
func classifyLLMError(statusCode int, body []byte) *models.ScrapeError {
	var errResp generateResponse
	msg := "LLM API error"
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		msg = errResp.Error.Message
	}

	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return models.NewScrapeError(models.ErrCodeLLMAuthFailure, msg, nil)
	case statusCode == http.StatusTooManyRequests:
		return models.NewScrapeError(models.ErrCodeLLMRateLimited, msg, nil)
	default:
		return models.NewScrapeError(models.ErrCodeLLMFailure, fmt.Sprintf("LLM API returned %d: %s", statusCode, msg), nil)
	}
}

// stripFences removes a markdown code fence the model sometimes wraps
// its JSON answer in despite the mime-type hint.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

// aiPayload tolerates the model returning numbers either as JSON
// numbers or as strings.
type aiPayload struct {
	Title             string          `json:"title"`
	ImgURL            string          `json:"imgUrl"`
	Price             json.RawMessage `json:"price"`
	FirstRegistration string          `json:"firstRegistration"`
	CO2               json.RawMessage `json:"co2"`
	Mileage           json.RawMessage `json:"mileage"`
	PowerHP           json.RawMessage `json:"powerHp"`
	SellerType        string          `json:"sellerType"`
	Brand             string          `json:"brand"`
	Model             string          `json:"model"`
	FuelType          string          `json:"fuelType"`
}

func parseFields(raw string) (models.CarFields, error) {
	var fields models.CarFields
	var payload aiPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return fields, models.NewScrapeError(models.ErrCodeLLMFailure, "LLM returned invalid JSON", err)
	}

	fields.Title = strings.TrimSpace(payload.Title)
	fields.ImgURL = strings.TrimSpace(payload.ImgURL)
	fields.Brand = strings.TrimSpace(payload.Brand)
	fields.Model = strings.TrimSpace(payload.Model)
	fields.FuelType = strings.TrimSpace(payload.FuelType)
	fields.FirstRegistration = strings.TrimSpace(payload.FirstRegistration)

	switch strings.ToLower(strings.TrimSpace(payload.SellerType)) {
	case "dealer", "händler", "haendler":
		fields.SellerType = models.SellerDealer
	case "private", "privat":
		fields.SellerType = models.SellerPrivate
	}

	if v, ok := coerceNumber(payload.Price); ok && v > 0 {
		fields.Price = models.Float(v)
	}
	if v, ok := coerceNumber(payload.Mileage); ok && v > 0 {
		fields.Mileage = models.Float(v)
	}
	if v, ok := coerceNumber(payload.PowerHP); ok && v > 0 {
		fields.PowerHP = models.Float(v)
	}
	if v, ok := coerceNumber(payload.CO2); ok && v > 0 {
		fields.CO2 = models.Int(int(v))
	}
	return fields, nil
}

// coerceNumber reads a raw JSON value as a number, accepting both
// `123` and `"123"` encodings and rejecting null and junk.
func coerceNumber(raw json.RawMessage) (float64, bool) {
	// Unmarshalling JSON null into a float64 is a silent no-op, so it
	// has to be rejected up front.
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}
	var num float64
	if err := json.Unmarshal(raw, &num); err == nil {
		return num, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	num, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return num, true
}
