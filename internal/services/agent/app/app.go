// Package app wires the feed client, reply generator, and reconciliation
// engine into a running agent.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/exec"
	"strings"

	"github.com/louisbranch/feedwatch/internal/services/agent/engine"
	"github.com/louisbranch/feedwatch/internal/services/agent/feed/mcpfeed"
	"github.com/louisbranch/feedwatch/internal/services/agent/generate"
	"github.com/louisbranch/feedwatch/internal/services/agent/generate/gemini"
	"github.com/louisbranch/feedwatch/internal/services/agent/generate/openai"
	"github.com/louisbranch/feedwatch/internal/services/agent/profile"
	"github.com/louisbranch/feedwatch/internal/services/shared/feedproto"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/sync/errgroup"
)

// Feed transport kinds.
const (
	TransportHTTP    = "http"
	TransportCommand = "command"
)

// Reply providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config configures an agent process.
type Config struct {
	FeedURI       string
	FeedTransport string
	FeedEndpoint  string
	// FeedCommand is split on whitespace and launched as a stdio feed server.
	FeedCommand string

	// Provider and Model fall back to the profile, then to openai defaults.
	Provider      string
	Model         string
	OpenAIBaseURL string
	OpenAIAPIKey  string
	GeminiAPIKey  string
	ProfilePath   string
}

// Runtime holds the resolved collaborators for an agent.
type Runtime struct {
	FeedID    string
	Transport mcp.Transport
	Generator generate.Generator
	Directive string
	Logf      func(format string, args ...any)
}

// Agent is a connected feed client driving one engine.
type Agent struct {
	client *mcpfeed.Client
	engine *engine.Engine
	logf   func(format string, args ...any)
}

// Run resolves cfg and serves the agent until ctx is done.
func Run(ctx context.Context, cfg Config) error {
	var prof profile.Profile
	if path := strings.TrimSpace(cfg.ProfilePath); path != "" {
		loaded, err := profile.Load(path)
		if err != nil {
			return err
		}
		prof = loaded
		log.Printf("profile loaded: name=%s", prof.Name)
	}
	if strings.TrimSpace(cfg.Provider) == "" {
		cfg.Provider = prof.Provider
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = prof.Model
	}

	gen, err := NewGenerator(ctx, cfg)
	if err != nil {
		return err
	}
	transport, err := NewTransport(cfg)
	if err != nil {
		return err
	}

	feedID := strings.TrimSpace(cfg.FeedURI)
	if feedID == "" {
		feedID = feedproto.DefaultFeedURI
	}
	agent, err := Start(ctx, Runtime{
		FeedID:    feedID,
		Transport: transport,
		Generator: gen,
		Directive: prof.Directive,
	})
	if err != nil {
		return err
	}
	return agent.Run(ctx)
}

// NewGenerator builds the reply generator named by cfg.Provider.
func NewGenerator(ctx context.Context, cfg Config) (generate.Generator, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	switch provider {
	case "", ProviderOpenAI:
		gen, err := openai.New(openai.Config{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.Model,
		})
		if err != nil {
			return nil, err
		}
		return gen, nil
	case ProviderGemini:
		gen, err := gemini.New(ctx, gemini.Config{
			APIKey: cfg.GeminiAPIKey,
			Model:  cfg.Model,
		})
		if err != nil {
			return nil, err
		}
		return gen, nil
	default:
		return nil, fmt.Errorf("provider %q is not supported", cfg.Provider)
	}
}

// NewTransport builds the MCP client transport for the feed server.
func NewTransport(cfg Config) (mcp.Transport, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.FeedTransport)) {
	case "", TransportHTTP:
		endpoint := strings.TrimSpace(cfg.FeedEndpoint)
		if endpoint == "" {
			return nil, fmt.Errorf("feed endpoint is required for %s transport", TransportHTTP)
		}
		return &mcp.StreamableClientTransport{Endpoint: endpoint}, nil
	case TransportCommand:
		fields := strings.Fields(cfg.FeedCommand)
		if len(fields) == 0 {
			return nil, fmt.Errorf("feed command is required for %s transport", TransportCommand)
		}
		return &mcp.CommandTransport{Command: exec.Command(fields[0], fields[1:]...)}, nil
	default:
		return nil, fmt.Errorf("feed transport %q is not supported", cfg.FeedTransport)
	}
}

// Start connects to the feed and loads the backlog. Updates queued before
// Run is called are delivered once it starts.
func Start(ctx context.Context, rt Runtime) (*Agent, error) {
	logf := rt.Logf
	if logf == nil {
		logf = log.Printf
	}
	if rt.Generator == nil {
		return nil, fmt.Errorf("generator is required")
	}

	client, err := mcpfeed.Connect(ctx, rt.Transport, mcpfeed.Options{Logf: logf})
	if err != nil {
		return nil, err
	}
	eng, err := engine.New(engine.Config{
		FeedID:     rt.FeedID,
		Feed:       client,
		Generator:  rt.Generator,
		Directive:  rt.Directive,
		SelfAuthor: feedproto.AgentAuthor,
		Logf:       logf,
	})
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	if err := eng.Start(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("start engine: %w", err)
	}
	logf("agent started: feed=%s", rt.FeedID)
	return &Agent{client: client, engine: eng, logf: logf}, nil
}

// Engine returns the agent's reconciliation engine.
func (a *Agent) Engine() *engine.Engine {
	return a.engine
}

// Close ends the feed session.
func (a *Agent) Close() error {
	return a.client.Close()
}

// Run delivers feed updates until ctx is done or the feed session ends.
// The session is closed on return.
func (a *Agent) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.client.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		if err := a.client.Close(); err != nil {
			a.logf("close feed session: %v", err)
		}
		return nil
	})
	g.Go(func() error {
		err := a.client.Wait()
		if gctx.Err() != nil {
			return nil
		}
		if err == nil {
			err = errors.New("closed by server")
		}
		return fmt.Errorf("feed session ended: %w", err)
	})
	err := g.Wait()
	if err == nil {
		a.logf("agent stopped")
	}
	return err
}
