// Package llm provides chat model and embedding clients using langchaingo.
package llm

import (
	"context"
	"fmt"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/raphaelgruber/podrag-go/internal/config"
	"github.com/raphaelgruber/podrag-go/internal/models"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/bedrock"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	// structuredMaxTokens bounds classifier/rewriter completions.
	structuredMaxTokens = 1024

	// chatMaxTokens bounds a streamed answer.
	chatMaxTokens = 4096
)

// Client wraps a langchaingo chat model for one registered model id.
// Outputs feed structural filters, so all calls pin temperature to 0.
type Client struct {
	llm     llms.Model
	modelID string
}

// NewClient constructs the chat model serving modelID. Unknown ids fail
// with ErrUnsupportedModel before any provider is contacted.
func NewClient(ctx context.Context, cfg config.Config, modelID string) (*Client, error) {
	provider, err := ProviderFor(modelID)
	if err != nil {
		return nil, err
	}

	var model llms.Model
	switch provider {
	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		model, err = openai.New(
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithModel(modelID),
		)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}

	case config.ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("Anthropic API key required")
		}
		model, err = anthropic.New(
			anthropic.WithToken(cfg.AnthropicAPIKey),
			anthropic.WithModel(modelID),
		)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}

	case config.ProviderOllama:
		model, err = ollama.New(
			ollama.WithModel(modelID),
			ollama.WithServerURL(cfg.OllamaHost),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}

	case config.ProviderBedrock:
		awsCfg, cfgErr := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if cfgErr != nil {
			return nil, fmt.Errorf("load aws config: %w", cfgErr)
		}
		runtime := bedrockruntime.NewFromConfig(awsCfg)
		model, err = bedrock.New(
			bedrock.WithClient(runtime),
			bedrock.WithModel(modelID),
		)
		if err != nil {
			return nil, fmt.Errorf("create bedrock model: %w", err)
		}

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedModel, modelID)
	}

	return &Client{llm: model, modelID: modelID}, nil
}

// ModelID returns the registered model id this client serves.
func (c *Client) ModelID() string {
	return c.modelID
}

// CompleteStructured runs a single prompt expecting JSON output.
// The raw model text is returned; parsing belongs to the caller.
func (c *Client) CompleteStructured(ctx context.Context, prompt string) (string, error) {
	response, err := llms.GenerateFromSinglePrompt(ctx, c.llm, prompt,
		llms.WithTemperature(0),
		llms.WithMaxTokens(structuredMaxTokens),
	)
	if err != nil {
		return "", wrapFatalError(fmt.Errorf("structured completion: %w", err))
	}
	return response, nil
}

// Complete runs a system+user prompt pair without streaming.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, userPrompt),
	}

	response, err := c.llm.GenerateContent(ctx, messages,
		llms.WithTemperature(0),
		llms.WithMaxTokens(structuredMaxTokens),
	)
	if err != nil {
		return "", wrapFatalError(fmt.Errorf("complete: %w", err))
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no response choices")
	}
	return response.Choices[0].Content, nil
}

// StreamChat generates an answer over the system prompt, prior turns and
// the question, invoking onToken for every streamed chunk. The full
// answer text is returned once the stream completes. An error from
// onToken aborts the stream and is propagated.
func (c *Client) StreamChat(
	ctx context.Context,
	systemPrompt string,
	history []models.ConversationTurn,
	question string,
	onToken func(token string) error,
) (string, error) {
	messages := make([]llms.MessageContent, 0, len(history)+2)
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt))
	for _, turn := range history {
		role := llms.ChatMessageTypeHuman
		if turn.Role == models.RoleAI {
			role = llms.ChatMessageTypeAI
		}
		messages = append(messages, llms.TextParts(role, turn.Content))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, question))

	var full strings.Builder
	response, err := c.llm.GenerateContent(ctx, messages,
		llms.WithTemperature(0),
		llms.WithMaxTokens(chatMaxTokens),
		llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
			if len(chunk) == 0 {
				return nil
			}
			full.WriteString(string(chunk))
			return onToken(string(chunk))
		}),
	)
	if err != nil {
		return full.String(), wrapFatalError(fmt.Errorf("stream chat: %w", err))
	}

	// Some providers only deliver the final text in the response.
	if full.Len() == 0 && len(response.Choices) > 0 {
		text := response.Choices[0].Content
		if text != "" {
			if err := onToken(text); err != nil {
				return text, err
			}
		}
		return text, nil
	}
	return full.String(), nil
}
