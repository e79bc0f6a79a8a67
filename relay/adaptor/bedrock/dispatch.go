// Package bedrock resolves Bedrock model ids to per-family strategies and
// exposes them behind the uniform adaptor contract.
package bedrock

import (
	"sort"
	"strings"

	"github.com/polyrelay/polyrelay/common/config"
	"github.com/polyrelay/polyrelay/relay/adaptor/bedrock/ai21"
	"github.com/polyrelay/polyrelay/relay/adaptor/bedrock/claude"
	"github.com/polyrelay/polyrelay/relay/adaptor/bedrock/cohere"
	"github.com/polyrelay/polyrelay/relay/adaptor/bedrock/meta"
	"github.com/polyrelay/polyrelay/relay/adaptor/bedrock/mistral"
	"github.com/polyrelay/polyrelay/relay/adaptor/bedrock/nova"
	"github.com/polyrelay/polyrelay/relay/adaptor/bedrock/stability"
	"github.com/polyrelay/polyrelay/relay/adaptor/bedrock/titan"
	"github.com/polyrelay/polyrelay/relay/adaptor/bedrock/writer"
	"github.com/polyrelay/polyrelay/relay/apierr"
	relaymodel "github.com/polyrelay/polyrelay/relay/model"
)

// Strategy is the per-model-family protocol translation contract.
type Strategy interface {
	Name() string
	PrepareRequestPayload(request *relaymodel.ChatCompletionRequest) ([]byte, error)
	ParseResponse(body []byte, request *relaymodel.ChatCompletionRequest) (*relaymodel.ChatCompletionResponse, error)
	HandleStreamChunk(event []byte, request *relaymodel.ChatCompletionRequest, streamID string, streamCreated int64) (*relaymodel.ChatCompletionChunk, error)
}

// strategyTable maps model-id prefixes to strategy constructors. Resolution
// is longest-match, so more specific prefixes can be added without ordering
// concerns. Add new model families here, not with branching.
var strategyTable = map[string]func(config.ProviderDefaults) Strategy{
	"anthropic.claude": func(d config.ProviderDefaults) Strategy { return claude.NewStrategy(d) },
	"amazon.titan":     func(d config.ProviderDefaults) Strategy { return titan.NewStrategy(d) },
	"amazon.nova":      func(d config.ProviderDefaults) Strategy { return nova.NewStrategy(d) },
	"ai21.":            func(d config.ProviderDefaults) Strategy { return ai21.NewStrategy(d) },
	"cohere.":          func(d config.ProviderDefaults) Strategy { return cohere.NewStrategy(d) },
	"meta.":            func(d config.ProviderDefaults) Strategy { return meta.NewStrategy(d) },
	"mistral.":         func(d config.ProviderDefaults) Strategy { return mistral.NewStrategy(d) },
	"stability.":       func(d config.ProviderDefaults) Strategy { return stability.NewStrategy(d) },
	"writer.":          func(d config.ProviderDefaults) Strategy { return writer.NewStrategy(d) },
}

// SupportedPrefixes returns the sorted prefix set, for error messages and
// model listings.
func SupportedPrefixes() []string {
	prefixes := make([]string, 0, len(strategyTable))
	for prefix := range strategyTable {
		prefixes = append(prefixes, prefix)
	}
	sort.Strings(prefixes)
	return prefixes
}

// ResolveStrategy selects the strategy whose prefix is the longest match for
// the model id.
func ResolveStrategy(modelID string, defaults config.ProviderDefaults) (Strategy, error) {
	var bestPrefix string
	var bestCtor func(config.ProviderDefaults) Strategy
	for prefix, ctor := range strategyTable {
		if strings.HasPrefix(modelID, prefix) && len(prefix) > len(bestPrefix) {
			bestPrefix = prefix
			bestCtor = ctor
		}
	}
	if bestCtor == nil {
		return nil, apierr.New(apierr.KindModelNotFound,
			"no bedrock strategy for model %q, supported prefixes: %s",
			modelID, strings.Join(SupportedPrefixes(), ", "))
	}
	// Titan embedding models share the amazon.titan prefix but answer a
	// different API entirely.
	if bestPrefix == "amazon.titan" && strings.Contains(modelID, "embed") {
		return nil, apierr.New(apierr.KindModelNotFound,
			"model %q is an embedding model, not a text generation model", modelID)
	}
	return bestCtor(defaults), nil
}
