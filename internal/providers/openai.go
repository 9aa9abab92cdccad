package providers

import (
	"context"
	"net/http"

	sdk "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/packages/param"
)

// openaiClient wraps the official OpenAI SDK for providers whose endpoint
// speaks the real OpenAI API surface (as opposed to an OpenAI-compatible
// self-hosted server reached over the plain HTTP client in http.go).
type openaiClient struct {
	sdk sdk.Client
}

func newOpenAIClient(cfg Config, httpClient *http.Client) *openaiClient {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithBaseURL(cfg.Endpoint))
	}
	opts = append(opts, option.WithHTTPClient(httpClient))
	return &openaiClient{sdk: sdk.NewClient(opts...)}
}

func (c *openaiClient) chat(ctx context.Context, model string, temperature float64, systemPrompt, userPrompt string) (string, error) {
	messages := make([]sdk.ChatCompletionMessageParamUnion, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, sdk.SystemMessage(systemPrompt))
	}
	messages = append(messages, sdk.UserMessage(userPrompt))

	params := sdk.ChatCompletionNewParams{
		Model:       sdk.ChatModel(model),
		Messages:    messages,
		Temperature: param.NewOpt(temperature),
	}
	comp, err := c.sdk.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if len(comp.Choices) == 0 {
		return "", nil
	}
	return comp.Choices[0].Message.Content, nil
}
