// Package cmd holds the startup plumbing shared by feedwatch commands.
package cmd

import (
	"context"
	"errors"
	"flag"
	"log"
	"strings"

	"github.com/louisbranch/feedwatch/internal/platform/config"
	"github.com/louisbranch/feedwatch/internal/platform/otel"
	"github.com/louisbranch/feedwatch/internal/platform/timeouts"
)

// Service identifiers for telemetry resource names and log prefixes.
const (
	ServiceAgent    = "agent"
	ServiceChatFeed = "chatfeed"
)

// ParseConfig loads environment values and envDefault tags into cfg.
// Flags registered afterwards should use the loaded fields as defaults.
func ParseConfig[T any](cfg *T) error {
	if cfg == nil {
		return errors.New("config target is required")
	}
	return config.ParseEnv(cfg)
}

// ParseArgs parses command-line flags. Nil args parse as empty.
func ParseArgs(fs *flag.FlagSet, args []string) error {
	if fs == nil {
		return errors.New("flag parser is required")
	}
	if args == nil {
		args = []string{}
	}
	return fs.Parse(args)
}

// LogPrefix returns the standard log prefix for a service, e.g. "[AGENT] ".
func LogPrefix(service string) string {
	return "[" + strings.ToUpper(strings.TrimSpace(service)) + "] "
}

// RunWithTelemetry sets up tracing for service, runs run, and flushes spans
// once run returns.
func RunWithTelemetry(ctx context.Context, service string, run func(context.Context) error) error {
	service = strings.TrimSpace(service)
	switch {
	case service == "":
		return errors.New("service name is required")
	case run == nil:
		return errors.New("run function is required")
	}

	shutdown, err := otel.Setup(ctx, service)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			log.Printf("otel shutdown: service=%s err=%v", service, err)
		}
	}()
	return run(ctx)
}
