package config

import (
	"fmt"
	"strings"

	"github.com/polyrelay/polyrelay/common/env"
)

var (
	// ServerPort overrides the --port flag when running inside container or PaaS environments.
	ServerPort = strings.TrimSpace(env.String("PORT", "3000"))
	// GinMode allows forcing Gin into release mode (or other modes) without recompiling.
	GinMode = strings.TrimSpace(env.String("GIN_MODE", ""))
	// DebugEnabled toggles verbose structured logging when DEBUG=true.
	DebugEnabled = env.Bool("DEBUG", false)

	// APIKeys is the comma separated list of bearer tokens accepted by the gateway.
	// Empty disables authentication entirely.
	APIKeys = func() []string {
		raw := strings.TrimSpace(env.String("API_KEYS", ""))
		if raw == "" {
			return nil
		}
		var keys []string
		for _, k := range strings.Split(raw, ",") {
			if k = strings.TrimSpace(k); k != "" {
				keys = append(keys, k)
			}
		}
		return keys
	}()

	// AwsRegion selects the Bedrock runtime endpoint region.
	AwsRegion = env.String("AWS_REGION", "us-east-1")
	// AwsAccessKey / AwsSecretKey are static Bedrock credentials. When empty the
	// default AWS credential chain is used.
	AwsAccessKey = strings.TrimSpace(env.String("AWS_ACCESS_KEY_ID", ""))
	AwsSecretKey = strings.TrimSpace(env.String("AWS_SECRET_ACCESS_KEY", ""))

	// OpenAIBaseURL points the native OpenAI adaptor at an alternative endpoint.
	OpenAIBaseURL = strings.TrimRight(env.String("OPENAI_BASE_URL", "https://api.openai.com"), "/")
	// OpenAIAPIKey authenticates the native OpenAI adaptor upstream calls.
	OpenAIAPIKey = strings.TrimSpace(env.String("OPENAI_API_KEY", ""))

	// DefaultMaxToken caps generation length when the caller omits max_tokens.
	DefaultMaxToken = env.Int("DEFAULT_MAX_TOKEN", 2048)
	// DefaultTemperature is applied when the caller omits temperature.
	DefaultTemperature = env.Float64("DEFAULT_TEMPERATURE", 1.0)

	// RelayTimeout bounds upstream blocking calls (seconds). Zero means no limit.
	RelayTimeout = env.Int("RELAY_TIMEOUT", 0)
	// ShutdownTimeoutSec specifies the graceful shutdown timeout (seconds) for the HTTP server.
	ShutdownTimeoutSec = env.Int("SHUTDOWN_TIMEOUT", 60)

	// EnablePrometheusMetrics exposes the /metrics endpoint for Prometheus scrapers when true.
	EnablePrometheusMetrics = env.Bool("ENABLE_PROMETHEUS_METRICS", true)
)

// ProviderDefaults carries the per-provider generation defaults that strategies
// fall back to when the inbound request leaves a sampling field unset.
type ProviderDefaults struct {
	MaxTokens   int
	Temperature float64
}

// DefaultProviderDefaults snapshots the process-wide defaults. Strategies keep
// the struct they were constructed with, so tests can pass their own values.
func DefaultProviderDefaults() ProviderDefaults {
	return ProviderDefaults{
		MaxTokens:   DefaultMaxToken,
		Temperature: DefaultTemperature,
	}
}

// Fingerprint returns a stable cache-key component for adapter registry entries.
func (d ProviderDefaults) Fingerprint() string {
	return fmt.Sprintf("mt=%d;t=%.3f", d.MaxTokens, d.Temperature)
}
