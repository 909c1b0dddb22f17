// Package gemini generates replies with the Gemini API.
package gemini

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/louisbranch/feedwatch/internal/platform/timeouts"
	"github.com/louisbranch/feedwatch/internal/services/agent/generate"
	"google.golang.org/genai"
)

const providerName = "gemini"

// DefaultModel is used when Config.Model is empty.
const DefaultModel = "gemini-2.0-flash"

// Config configures the Gemini generator.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

// Generator implements generate.Generator over GenerateContent.
type Generator struct {
	client *genai.Client
	model  string
}

var _ generate.Generator = (*Generator)(nil)

// New builds a Generator.
func New(ctx context.Context, cfg Config) (*Generator, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  cfg.HTTPClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: strings.TrimSpace(cfg.BaseURL)},
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Generator{client: client, model: model}, nil
}

// Generate sends system turns as the system instruction and the rest as
// user contents.
func (g *Generator) Generate(ctx context.Context, turns []generate.Turn) (generate.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Generate)
	defer cancel()

	system, rest := generate.SplitSystem(turns)
	contents := make([]*genai.Content, 0, len(rest))
	for _, turn := range rest {
		contents = append(contents, genai.NewContentFromText(turn.Text, genai.RoleUser))
	}

	var config *genai.GenerateContentConfig
	if system != "" {
		config = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		}
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return generate.Result{}, generate.ProviderError(providerName, err)
	}
	text := resp.Text()
	if text == "" {
		return generate.Result{}, generate.ProviderError(providerName, fmt.Errorf("response has no text"))
	}
	return generate.Result{Text: text}, nil
}
