package llm

import (
	"errors"
	"fmt"

	"github.com/raphaelgruber/podrag-go/internal/config"
)

// ErrUnsupportedModel is returned for a model id outside the registry.
// The pipeline surfaces it before any stage runs.
var ErrUnsupportedModel = errors.New("unsupported model")

// Supported chat model ids.
const (
	ModelGPT35Turbo = "gpt-3.5-turbo"
	ModelGPT4       = "gpt-4"
	ModelGPT4o      = "gpt-4o"
	ModelGPT4oMini  = "gpt-4o-mini"

	ModelClaude35Sonnet = "claude-3-5-sonnet-20240620"
	ModelClaude3Opus    = "claude-3-opus-20240229"
	ModelClaude3Haiku   = "claude-3-haiku-20240307"

	ModelLlama2  = "llama2"
	ModelMixtral = "mixtral"

	ModelBedrockClaude35Sonnet = "anthropic.claude-3-5-sonnet-20240620-v1:0"
	ModelBedrockClaude3Haiku   = "anthropic.claude-3-haiku-20240307-v1:0"
)

// registry maps model ids to the provider that serves them.
var registry = map[string]config.Provider{
	ModelGPT35Turbo: config.ProviderOpenAI,
	ModelGPT4:       config.ProviderOpenAI,
	ModelGPT4o:      config.ProviderOpenAI,
	ModelGPT4oMini:  config.ProviderOpenAI,

	ModelClaude35Sonnet: config.ProviderAnthropic,
	ModelClaude3Opus:    config.ProviderAnthropic,
	ModelClaude3Haiku:   config.ProviderAnthropic,

	ModelLlama2:  config.ProviderOllama,
	ModelMixtral: config.ProviderOllama,

	ModelBedrockClaude35Sonnet: config.ProviderBedrock,
	ModelBedrockClaude3Haiku:   config.ProviderBedrock,
}

// ProviderFor resolves the provider serving a model id.
func ProviderFor(modelID string) (config.Provider, error) {
	provider, ok := registry[modelID]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedModel, modelID)
	}
	return provider, nil
}

// SupportedModels lists all registered model ids.
func SupportedModels() []string {
	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	return ids
}
