package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	OpenAIModerationURL = "https://api.openai.com/v1/moderations"
	defaultModel        = "omni-moderation-latest"
	defaultTimeout      = 2 * time.Second
)

// defaultCategoryMap translates moderation API categories into the
// pipeline's own category names. Unmapped categories are dropped.
var defaultCategoryMap = map[string]string{
	"sexual":                 "adult_content",
	"sexual/minors":          "child_abuse",
	"self-harm":              "self_harm",
	"self-harm/intent":       "self_harm",
	"self-harm/instructions": "self_harm",
	"violence":               "violence_gore",
	"violence/graphic":       "violence_gore",
	"hate":                   "hate_speech",
	"hate/threatening":       "hate_speech",
	"harassment/threatening": "violence_gore",
	"illicit":                "illegal_activities",
	"illicit/violent":        "weapons",
}

// OpenAIConfig configures the moderation-endpoint classifier.
type OpenAIConfig struct {
	APIKey      string            `mapstructure:"api_key"`
	Model       string            `mapstructure:"model"`
	URL         string            `mapstructure:"url"`
	Timeout     time.Duration     `mapstructure:"timeout"`
	CategoryMap map[string]string `mapstructure:"category_map"`
}

// OpenAIClassifier calls the OpenAI moderation API and maps its category
// scores onto pipeline categories.
type OpenAIClassifier struct {
	cfg    OpenAIConfig
	client *http.Client
}

type moderationRequest struct {
	Input string `json:"input"`
	Model string `json:"model,omitempty"`
}

type moderationResponse struct {
	Results []struct {
		Flagged        bool               `json:"flagged"`
		Categories     map[string]bool    `json:"categories"`
		CategoryScores map[string]float64 `json:"category_scores"`
	} `json:"results"`
}

func NewOpenAIClassifier(cfg OpenAIConfig, client *http.Client) *OpenAIClassifier {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.URL == "" {
		cfg.URL = OpenAIModerationURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.CategoryMap == nil {
		cfg.CategoryMap = defaultCategoryMap
	}
	if client == nil {
		client = &http.Client{}
	}
	return &OpenAIClassifier{cfg: cfg, client: client}
}

func (c *OpenAIClassifier) Name() string { return "openai_moderation" }

func (c *OpenAIClassifier) Classify(ctx context.Context, text string) ([]CategoryScore, error) {
	if text == "" {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	payload, err := json.Marshal(moderationRequest{Input: text, Model: c.cfg.Model})
	if err != nil {
		return nil, fmt.Errorf("marshaling moderation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("creating moderation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: moderation API returned status %d", ErrUnavailable, resp.StatusCode)
	}

	var moderation moderationResponse
	if err := json.Unmarshal(body, &moderation); err != nil {
		return nil, fmt.Errorf("%w: unparsable moderation response: %v", ErrUnavailable, err)
	}
	if len(moderation.Results) == 0 {
		return nil, nil
	}

	// Several API categories can map to one pipeline category; keep the max.
	byCategory := make(map[string]float64)
	for apiCategory, confidence := range moderation.Results[0].CategoryScores {
		category, ok := c.cfg.CategoryMap[apiCategory]
		if !ok {
			continue
		}
		if confidence > byCategory[category] {
			byCategory[category] = confidence
		}
	}

	scores := make([]CategoryScore, 0, len(byCategory))
	for category, confidence := range byCategory {
		scores = append(scores, CategoryScore{Category: category, Confidence: confidence})
	}
	return scores, nil
}
