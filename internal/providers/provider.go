// Package providers resolves named LLM/embedding providers into clients,
// wraps outbound calls with rate-limit retry, and loads prompt templates.
package providers

import (
	"fmt"
)

// AccessMethod is the wire protocol a provider speaks, per the
// infrastructure-level configuration model.
type AccessMethod string

const (
	AccessLocal                  AccessMethod = "local"
	AccessOpenAICompatible       AccessMethod = "openai_compatible"
	AccessHuggingFaceInference   AccessMethod = "huggingface_inference_api"
)

// Config is one named infrastructure-level provider entry.
type Config struct {
	Name         string            `yaml:"name"`
	AccessMethod AccessMethod      `yaml:"accessMethod"`
	Endpoint     string            `yaml:"endpoint"`
	APIKey       string            `yaml:"apiKey"`
	Headers      map[string]string `yaml:"headers"`
	// UseOpenAISDK selects the openai-go/v2 SDK client over the generic HTTP
	// client for chat calls against true OpenAI-shaped endpoints.
	UseOpenAISDK bool `yaml:"useOpenAISDK"`
}

func (c Config) validate() error {
	if c.Name == "" {
		return fmt.Errorf("provider: missing name")
	}
	switch c.AccessMethod {
	case AccessLocal, AccessOpenAICompatible, AccessHuggingFaceInference:
	default:
		return fmt.Errorf("provider %s: invalid access_method %q", c.Name, c.AccessMethod)
	}
	if c.Endpoint == "" {
		return fmt.Errorf("provider %s: missing endpoint", c.Name)
	}
	return nil
}

// Registry resolves a named provider into a connection descriptor and
// builds Client instances over it. It is held by reference and passed into
// stages explicitly; there is no process-wide singleton.
type Registry struct {
	providers map[string]Config
}

// NewRegistry validates and indexes the given provider configs.
func NewRegistry(cfgs []Config) (*Registry, error) {
	m := make(map[string]Config, len(cfgs))
	for _, c := range cfgs {
		if err := c.validate(); err != nil {
			return nil, err
		}
		m[c.Name] = c
	}
	return &Registry{providers: m}, nil
}

// Client returns a client object carrying the resolved provider connection
// plus the requested model and temperature.
func (r *Registry) Client(providerName, model string, temperature float64) (*Client, error) {
	cfg, ok := r.providers[providerName]
	if !ok {
		return nil, fmt.Errorf("provider %q is not configured", providerName)
	}
	return newClient(cfg, model, temperature), nil
}
