// Package gen implements the text-generation collaborator on top of the
// Gemini API. Unlike a process-wide AI client, the API key here belongs to
// the requesting user, so a short-lived SDK client is built per call.
package gen

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/avolkov/genpost/internal/config"
)

// Client defines the interface for text generation. Every call is a single
// attempt; retry policy is out of scope at this boundary.
type Client interface {
	// Generate sends prompt to the generation service using the given
	// user-supplied credential and returns the generated text.
	Generate(ctx context.Context, credential, prompt string) (string, error)
}

type sdkClient struct {
	cfg config.GenConfig
	log *slog.Logger
}

// NewClient creates a generation client with the provided configuration.
func NewClient(cfg config.GenConfig, log *slog.Logger) Client {
	if log == nil {
		log = slog.Default()
	}
	return &sdkClient{
		cfg: cfg,
		log: log.With("component", "gen_client"),
	}
}

func (c *sdkClient) Generate(ctx context.Context, credential, prompt string) (string, error) {
	if credential == "" {
		return "", fmt.Errorf("generation credential is empty")
	}
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("generation prompt is empty")
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	gi, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  credential,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create genai client: %w", err)
	}

	contentCfg := &genai.GenerateContentConfig{
		Temperature: &c.cfg.Temperature,
		SafetySettings: []*genai.SafetySetting{
			{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockNone},
			{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdBlockNone},
			{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdBlockNone},
			{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockNone},
		},
	}

	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	resp, err := gi.Models.GenerateContent(ctx, c.cfg.Model, contents, contentCfg)
	if err != nil {
		c.log.ErrorContext(ctx, "Generation call failed", "model", c.cfg.Model, "error", err)
		return "", fmt.Errorf("generation call failed: %w", err)
	}

	return c.extractTextFromResponse(ctx, resp)
}

func (c *sdkClient) extractTextFromResponse(ctx context.Context, resp *genai.GenerateContentResponse) (string, error) {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockedReasonUnspecified {
		reasonMsg := fmt.Sprintf("%v", resp.PromptFeedback.BlockReason)
		if resp.PromptFeedback.BlockReasonMessage != "" {
			reasonMsg = resp.PromptFeedback.BlockReasonMessage
		}
		c.log.ErrorContext(ctx, "Generation request blocked", "reason", reasonMsg)
		return "", fmt.Errorf("generation blocked by safety filter: %s", reasonMsg)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		finishReason := "unknown"
		if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != genai.FinishReasonUnspecified {
			finishReason = fmt.Sprintf("%v", resp.Candidates[0].FinishReason)
		}
		c.log.WarnContext(ctx, "Generation response missing candidates or content", "finish_reason", finishReason)
		return "", fmt.Errorf("generation returned no content, finish reason: %s", finishReason)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("generation returned empty text")
	}

	return text, nil
}
