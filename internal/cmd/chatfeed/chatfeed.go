// Package chatfeed parses chat feed command flags and selects stdio or HTTP transport.
package chatfeed

import (
	"context"
	"flag"

	platformcmd "github.com/louisbranch/feedwatch/internal/platform/cmd"
	chatfeedapp "github.com/louisbranch/feedwatch/internal/services/chatfeed/app"
)

// Config holds chat feed command configuration.
type Config struct {
	DBPath      string `env:"FEEDWATCH_CHATFEED_DB_PATH"   envDefault:"data/chatfeed.db"`
	Transport   string `env:"FEEDWATCH_CHATFEED_TRANSPORT" envDefault:"http"`
	HTTPAddr    string `env:"FEEDWATCH_CHATFEED_HTTP_ADDR" envDefault:"localhost:8091"`
	SeedChannel string `env:"FEEDWATCH_CHATFEED_SEED"      envDefault:"general"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := platformcmd.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "SQLite database path")
	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "Transport type: stdio or http")
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP server address (for HTTP transport)")
	fs.StringVar(&cfg.SeedChannel, "seed", cfg.SeedChannel, "Channel to seed with example messages when empty (blank disables)")
	if err := platformcmd.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the chat feed server with telemetry configured.
func Run(ctx context.Context, cfg Config) error {
	return platformcmd.RunWithTelemetry(ctx, platformcmd.ServiceChatFeed, func(ctx context.Context) error {
		return chatfeedapp.Run(ctx, chatfeedapp.Config{
			DBPath:      cfg.DBPath,
			Transport:   cfg.Transport,
			HTTPAddr:    cfg.HTTPAddr,
			SeedChannel: cfg.SeedChannel,
		})
	})
}
