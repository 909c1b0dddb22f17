// Package agent parses agent command flags and starts the feed agent.
package agent

import (
	"context"
	"flag"

	platformcmd "github.com/louisbranch/feedwatch/internal/platform/cmd"
	agentapp "github.com/louisbranch/feedwatch/internal/services/agent/app"
)

// Config holds agent command configuration.
type Config struct {
	FeedURI       string `env:"FEEDWATCH_FEED_URI"       envDefault:"chat://channel/general/messages"`
	FeedTransport string `env:"FEEDWATCH_FEED_TRANSPORT" envDefault:"http"`
	FeedEndpoint  string `env:"FEEDWATCH_FEED_ENDPOINT"  envDefault:"http://localhost:8091/mcp"`
	FeedCommand   string `env:"FEEDWATCH_FEED_COMMAND"`
	Provider      string `env:"FEEDWATCH_PROVIDER"`
	Model         string `env:"FEEDWATCH_MODEL"`
	OpenAIBaseURL string `env:"FEEDWATCH_OPENAI_BASE_URL"`
	ProfilePath   string `env:"FEEDWATCH_PROFILE"`
	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	GeminiAPIKey  string `env:"GEMINI_API_KEY"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := platformcmd.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.FeedURI, "feed-uri", cfg.FeedURI, "Feed resource URI to watch")
	fs.StringVar(&cfg.FeedTransport, "feed-transport", cfg.FeedTransport, "Feed transport: http or command")
	fs.StringVar(&cfg.FeedEndpoint, "feed-endpoint", cfg.FeedEndpoint, "Feed server MCP endpoint (for http transport)")
	fs.StringVar(&cfg.FeedCommand, "feed-command", cfg.FeedCommand, "Feed server command line (for command transport)")
	fs.StringVar(&cfg.Provider, "provider", cfg.Provider, "Reply provider: openai or gemini")
	fs.StringVar(&cfg.Model, "model", cfg.Model, "Reply model name")
	fs.StringVar(&cfg.OpenAIBaseURL, "openai-base-url", cfg.OpenAIBaseURL, "OpenAI-compatible API base URL")
	fs.StringVar(&cfg.ProfilePath, "profile", cfg.ProfilePath, "Agent profile YAML file")
	if err := platformcmd.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the agent with telemetry configured.
func Run(ctx context.Context, cfg Config) error {
	return platformcmd.RunWithTelemetry(ctx, platformcmd.ServiceAgent, func(ctx context.Context) error {
		return agentapp.Run(ctx, appConfig(cfg))
	})
}

func appConfig(cfg Config) agentapp.Config {
	return agentapp.Config{
		FeedURI:       cfg.FeedURI,
		FeedTransport: cfg.FeedTransport,
		FeedEndpoint:  cfg.FeedEndpoint,
		FeedCommand:   cfg.FeedCommand,
		Provider:      cfg.Provider,
		Model:         cfg.Model,
		OpenAIBaseURL: cfg.OpenAIBaseURL,
		OpenAIAPIKey:  cfg.OpenAIAPIKey,
		GeminiAPIKey:  cfg.GeminiAPIKey,
		ProfilePath:   cfg.ProfilePath,
	}
}
