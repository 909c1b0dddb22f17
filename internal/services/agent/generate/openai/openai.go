// Package openai generates replies with the OpenAI chat completions API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/louisbranch/feedwatch/internal/platform/timeouts"
	"github.com/louisbranch/feedwatch/internal/services/agent/generate"
	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const providerName = "openai"

// DefaultModel is used when Config.Model is empty.
const DefaultModel = "gpt-4o-mini"

// Config configures the OpenAI generator.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	// MaxRetries is passed to the SDK. Zero disables SDK retries.
	MaxRetries int
}

// Generator implements generate.Generator over chat completions.
type Generator struct {
	client sdk.Client
	model  string
}

var _ generate.Generator = (*Generator)(nil)

// New builds a Generator.
func New(cfg Config) (*Generator, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(cfg.HTTPClient),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if baseURL := strings.TrimSpace(cfg.BaseURL); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &Generator{client: sdk.NewClient(opts...), model: model}, nil
}

// Generate sends turns as chat messages and returns the first choice.
func (g *Generator) Generate(ctx context.Context, turns []generate.Turn) (generate.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Generate)
	defer cancel()

	messages := make([]sdk.ChatCompletionMessageParamUnion, 0, len(turns))
	for _, turn := range turns {
		switch turn.Role {
		case generate.RoleSystem:
			messages = append(messages, sdk.SystemMessage(turn.Text))
		default:
			messages = append(messages, sdk.UserMessage(turn.Text))
		}
	}

	completion, err := g.client.Chat.Completions.New(ctx, sdk.ChatCompletionNewParams{
		Model:    sdk.ChatModel(g.model),
		Messages: messages,
	})
	if err != nil {
		return generate.Result{}, generate.ProviderError(providerName, err)
	}
	if completion == nil || len(completion.Choices) == 0 {
		return generate.Result{}, generate.ProviderError(providerName, errors.New("response has no choices"))
	}
	return generate.Result{Text: completion.Choices[0].Message.Content}, nil
}
