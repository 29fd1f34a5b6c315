package classifier

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cybershield/internal/config"
	"cybershield/internal/logger"
	"cybershield/internal/models"
)

// ErrClassifierUnavailable wraps transport, timeout and protocol failures of
// the external classifier. Callers treat it as fail-open: the message is
// delivered unfiltered, but the condition is logged separately from a
// genuine clean verdict.
var ErrClassifierUnavailable = errors.New("classifier unavailable")

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// TextVerdict is the structured result of text abuse detection.
// Content carries the original text that was classified.
type TextVerdict struct {
	Content       string   `json:"-"`
	IsAbusive     bool     `json:"is_abusive"`
	ViolationType string   `json:"violation_type"`
	Severity      string   `json:"severity"`
	Categories    []string `json:"categories"`
	FilteredText  string   `json:"filtered_text"`
	Analysis      string   `json:"analysis"`
	Confidence    float64  `json:"confidence"`
	Model         string   `json:"-"`
}

// ImageVerdict is the structured result of image content detection
type ImageVerdict struct {
	IsSafe     bool     `json:"is_safe"`
	NSFWScore  float64  `json:"nsfw_score"`
	Categories []string `json:"categories"`
	Confidence float64  `json:"confidence"`
	Model      string   `json:"-"`
}

// Detector calls the Gemini API to classify message content
type Detector struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewDetector creates a Detector from classifier configuration
func NewDetector(cfg *config.ClassifierConfig) *Detector {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Detector{
		apiKey:  cfg.GeminiApiKey,
		model:   cfg.GeminiModel,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

const textPrompt = `You are a content moderation system for a chat platform. Analyze the message below for abusive content (cyberbullying, hate speech, harassment, NSFW content, profanity). The platform sensitivity level is %q.
Reply with only a JSON object, no markdown, with these fields:
{"is_abusive": bool, "violation_type": "cyberbullying|hate_speech|harassment|nsfw|profanity|none", "severity": "low|medium|high|critical", "categories": [string], "filtered_text": "the message with offensive parts replaced by asterisks", "analysis": "one sentence explanation", "confidence": 0.0-1.0}

Message:
%s`

// DetectTextAbuse classifies message text and returns a structured verdict.
// Content the model cannot classify yields a low-confidence non-abusive
// verdict rather than an error.
func (d *Detector) DetectTextAbuse(ctx context.Context, content, sensitivityLevel string) (*TextVerdict, error) {
	prompt := fmt.Sprintf(textPrompt, sensitivityLevel, content)

	text, err := d.generateContent(ctx, []map[string]interface{}{
		{"text": prompt},
	})
	if err != nil {
		return nil, err
	}

	verdict := &TextVerdict{}
	if err := decodeModelJSON(text, verdict); err != nil {
		logger.Warningf("Unparseable classifier response, treating as clean: %v", err)
		return &TextVerdict{
			Content:      content,
			IsAbusive:    false,
			FilteredText: content,
			Analysis:     "classifier response could not be parsed",
			Confidence:   0.0,
			Model:        d.model,
		}, nil
	}

	verdict.Content = content
	if verdict.FilteredText == "" {
		verdict.FilteredText = content
	}
	if !models.IsValidSeverity(verdict.Severity) && verdict.IsAbusive {
		verdict.Severity = models.SeverityLow
	}
	verdict.Model = d.model
	return verdict, nil
}

const imagePrompt = `You are a content moderation system. Analyze the attached image for NSFW or otherwise unsafe content. Reply with only a JSON object, no markdown:
{"is_safe": bool, "nsfw_score": 0.0-1.0, "categories": [string], "confidence": 0.0-1.0}`

// DetectImageContent classifies raw image bytes for unsafe content
func (d *Detector) DetectImageContent(ctx context.Context, data []byte) (*ImageVerdict, error) {
	parts := []map[string]interface{}{
		{"text": imagePrompt},
		{"inline_data": map[string]string{
			"mime_type": http.DetectContentType(data),
			"data":      base64.StdEncoding.EncodeToString(data),
		}},
	}

	text, err := d.generateContent(ctx, parts)
	if err != nil {
		return nil, err
	}

	verdict := &ImageVerdict{}
	if err := decodeModelJSON(text, verdict); err != nil {
		logger.Warningf("Unparseable image classifier response, treating as safe: %v", err)
		return &ImageVerdict{IsSafe: true, Confidence: 0.0, Model: d.model}, nil
	}
	verdict.Model = d.model
	return verdict, nil
}

// generateContent performs one Gemini generateContent call and returns the
// first candidate's text
func (d *Detector) generateContent(ctx context.Context, parts []map[string]interface{}) (string, error) {
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", d.baseURL, d.model, d.apiKey)
	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": parts},
		},
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrClassifierUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: gemini API returned status code %d: %s", ErrClassifierUnavailable, resp.StatusCode, string(respBytes))
	}

	var result struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("%w: %v", ErrClassifierUnavailable, err)
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: no candidates returned from gemini API", ErrClassifierUnavailable)
	}

	return result.Candidates[0].Content.Parts[0].Text, nil
}

// decodeModelJSON extracts the JSON object from a model reply, tolerating
// markdown code fences
func decodeModelJSON(text string, out interface{}) error {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
		text = strings.TrimSpace(text)
	}
	return json.Unmarshal([]byte(text), out)
}
