package providers

import "ragpipe/internal/config"

// NewRegistryFromConfig adapts the infrastructure-level provider configs
// loaded by internal/config into provider.Config entries and builds a
// Registry from them. Kept as a thin translation layer so internal/config
// stays free of any import on this package.
func NewRegistryFromConfig(cfgs []config.ProviderConfig) (*Registry, error) {
	out := make([]Config, len(cfgs))
	for i, c := range cfgs {
		out[i] = Config{
			Name:         c.Name,
			AccessMethod: AccessMethod(c.AccessMethod),
			Endpoint:     c.Endpoint,
			APIKey:       c.APIKey,
			Headers:      c.Headers,
			UseOpenAISDK: c.UseOpenAISDK,
		}
	}
	return NewRegistry(out)
}

// RetryConfigFromRateLimit adapts a functional stage's rate_limiting block
// into the RetryConfig a *Client applies to every outbound call.
func RetryConfigFromRateLimit(c config.RateLimitConfig) RetryConfig {
	return RetryConfig{
		Enabled:              c.Enabled,
		MaxRetries:           c.MaxRetries,
		RetryDelayBase:       c.RetryDelayBase(),
		ExponentialBackoff:   c.ExponentialBackoff,
		DelayBetweenRequests: c.DelayBetweenRequests(),
	}
}
