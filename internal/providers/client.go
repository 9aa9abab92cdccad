package providers

import (
	"context"
	"net/http"
	"time"
)

// Client carries the resolved provider connection plus the model and
// temperature the call sites bind it to.
type Client struct {
	cfg         Config
	Model       string
	Temperature float64

	httpClient *http.Client
	openai     *openaiClient // non-nil only when cfg.UseOpenAISDK

	Retry RetryConfig
}

func newClient(cfg Config, model string, temperature float64) *Client {
	c := &Client{
		cfg:         cfg,
		Model:       model,
		Temperature: temperature,
		httpClient:  &http.Client{Timeout: 60 * time.Second},
	}
	if cfg.UseOpenAISDK && cfg.AccessMethod == AccessOpenAICompatible {
		c.openai = newOpenAIClient(cfg, c.httpClient)
	}
	return c
}

// Chat sends a single-turn system+user prompt and returns the model's reply
// text. It is the call site for sensitivity classification, audit narrative
// synthesis, and LLM-guided chunk boundary analysis.
func (c *Client) Chat(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	var reply string
	err := WithRetry(ctx, c.Retry, func() error {
		var callErr error
		if c.openai != nil {
			reply, callErr = c.openai.chat(ctx, c.Model, c.Temperature, systemPrompt, userPrompt)
			return callErr
		}
		reply, callErr = httpChat(ctx, c.httpClient, c.cfg, c.Model, c.Temperature, systemPrompt, userPrompt)
		return callErr
	})
	return reply, err
}

// EmbedBatch requests embeddings for a batch of texts against this
// provider's endpoint. Every provider configured as openai_compatible,
// local, or huggingface_inference_api speaks the same OpenAI-shaped
// embeddings contract over HTTP.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var out [][]float32
	err := WithRetry(ctx, c.Retry, func() error {
		var callErr error
		out, callErr = httpEmbed(ctx, c.httpClient, c.cfg, c.Model, texts)
		return callErr
	})
	return out, err
}

// Ping checks endpoint reachability with a single one-input embeddings
// request, without retry.
func (c *Client) Ping(ctx context.Context) error {
	_, err := httpEmbed(ctx, c.httpClient, c.cfg, c.Model, []string{"ping"})
	return err
}
