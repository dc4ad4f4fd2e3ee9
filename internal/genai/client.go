package genai

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/unionlens/contract-assistant/internal/model"
	"github.com/unionlens/contract-assistant/internal/plan"
)

const systemPrompt = "You are an assistant for union members. Answer questions " +
	"using only the collective-bargaining agreement text provided. If the " +
	"agreement does not cover the question, say so plainly."

// ModelNames maps a plan tier to the provider model that serves it.
type ModelNames struct {
	Basic    string
	Standard string
	Premium  string
}

func (m ModelNames) forTier(t plan.Tier) string {
	switch t {
	case plan.TierPremium:
		return m.Premium
	case plan.TierStandard:
		return m.Standard
	default:
		return m.Basic
	}
}

// Client talks to an OpenAI-compatible chat-completions endpoint.
type Client struct {
	client *resty.Client
	models ModelNames
}

// NewClient builds a Client against baseURL. apiKey may be empty for
// unauthenticated local providers.
func NewClient(baseURL, apiKey string, models ModelNames) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(2 * time.Minute)
	if apiKey != "" {
		c.SetAuthToken(apiKey)
	}
	return &Client{client: c, models: models}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// GenerateAnswer asks the provider for an answer grounded in contractText,
// using the model assigned to the plan tier. Any failure is wrapped as a
// model.GenerationError so callers can distinguish it from local errors.
func (c *Client) GenerateAnswer(ctx context.Context, contractText, question string, tier plan.Tier) (string, error) {
	reqBody := chatRequest{
		Model: c.models.forTier(tier),
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: fmt.Sprintf("Agreement text:\n%s\n\nQuestion: %s", contractText, question)},
		},
	}

	var out chatResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(&reqBody).
		SetResult(&out).
		Post("/v1/chat/completions")
	if err != nil {
		return "", &model.GenerationError{Err: err}
	}
	if resp.IsError() {
		return "", &model.GenerationError{Err: fmt.Errorf("provider status %d", resp.StatusCode())}
	}
	if out.Error != nil {
		return "", &model.GenerationError{Err: fmt.Errorf("provider error: %s", out.Error.Message)}
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return "", &model.GenerationError{Err: fmt.Errorf("provider returned no answer")}
	}
	return out.Choices[0].Message.Content, nil
}
