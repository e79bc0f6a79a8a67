package bedrock_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/polyrelay/polyrelay/common/config"
	"github.com/polyrelay/polyrelay/relay/adaptor/bedrock"
	"github.com/polyrelay/polyrelay/relay/apierr"
)

func TestResolveStrategy(t *testing.T) {
	cases := map[string]string{
		"anthropic.claude-3-sonnet-20240229-v1:0": "claude",
		"amazon.titan-text-express-v1":            "titan",
		"amazon.nova-pro-v1:0":                    "nova",
		"ai21.j2-ultra-v1":                        "ai21",
		"cohere.command-text-v14":                 "cohere",
		"meta.llama3-70b-instruct-v1:0":           "meta",
		"mistral.mistral-large-2402-v1:0":         "mistral",
		"stability.stable-diffusion-xl-v1":        "stability",
		"writer.palmyra-x5-v1:0":                  "writer",
	}
	for modelID, want := range cases {
		strategy, err := bedrock.ResolveStrategy(modelID, config.DefaultProviderDefaults())
		require.NoError(t, err, "model %q", modelID)
		require.Equal(t, want, strategy.Name(), "model %q", modelID)
	}
}

func TestResolveStrategyUnknownPrefix(t *testing.T) {
	_, err := bedrock.ResolveStrategy("acme.frontier-v1", config.DefaultProviderDefaults())
	require.Error(t, err)
	require.Equal(t, apierr.KindModelNotFound, apierr.KindOf(err))
	require.Contains(t, err.Error(), "anthropic.claude")
	require.Contains(t, err.Error(), "writer.")
}

func TestResolveStrategyRejectsTitanEmbeddings(t *testing.T) {
	_, err := bedrock.ResolveStrategy("amazon.titan-embed-text-v1", config.DefaultProviderDefaults())
	require.Error(t, err)
	require.Equal(t, apierr.KindModelNotFound, apierr.KindOf(err))
}
