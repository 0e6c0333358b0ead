package triage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

const analysisPrompt = `You are a helpdesk triage assistant. Given a support ticket, respond with ONLY a JSON object, no markdown fences and no prose, with exactly these keys:
- "summary": a short technical summary of the issue and hints for resolving it
- "priority": one of "LOW", "MEDIUM", "HIGH"
- "required_skills": an array of technical skills needed to resolve it (e.g. ["Go", "MongoDB"])`

// OpenAIAnalyzer implements Analyzer against the OpenAI chat completion
// API. Calls are rate limited and bounded by a timeout.
type OpenAIAnalyzer struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	limiter *rate.Limiter
}

// NewOpenAIAnalyzer creates an analyzer using the given API key and
// model. A non-positive timeout defaults to 30 seconds.
func NewOpenAIAnalyzer(apiKey, model string, timeout time.Duration) *OpenAIAnalyzer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OpenAIAnalyzer{
		client:  openai.NewClient(apiKey),
		model:   model,
		timeout: timeout,
		limiter: rate.NewLimiter(rate.Limit(2), 4),
	}
}

// Analyze sends the ticket text to the model and decodes its JSON reply.
func (a *OpenAIAnalyzer) Analyze(ctx context.Context, title, description string) (*Analysis, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("analysis rate limit: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: analysisPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("Title: %s\n\nDescription: %s", title, description)},
		},
		Temperature: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("analysis completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("analysis completion: empty response")
	}

	raw := stripFences(resp.Choices[0].Message.Content)

	var analysis Analysis
	if err := json.Unmarshal([]byte(raw), &analysis); err != nil {
		return nil, fmt.Errorf("decode analysis output: %w", err)
	}
	return &analysis, nil
}

// stripFences removes a markdown code fence if the model wrapped its
// JSON in one despite the prompt.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
