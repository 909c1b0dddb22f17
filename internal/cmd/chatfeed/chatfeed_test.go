package chatfeed

import (
	"context"
	"flag"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("chatfeed", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DBPath != "data/chatfeed.db" {
		t.Fatalf("expected default db path, got %q", cfg.DBPath)
	}
	if cfg.Transport != "http" {
		t.Fatalf("expected default transport http, got %q", cfg.Transport)
	}
	if cfg.HTTPAddr != "localhost:8091" {
		t.Fatalf("expected default http addr, got %q", cfg.HTTPAddr)
	}
	if cfg.SeedChannel != "general" {
		t.Fatalf("expected default seed channel, got %q", cfg.SeedChannel)
	}
}

func TestParseConfigOverrides(t *testing.T) {
	t.Setenv("FEEDWATCH_CHATFEED_HTTP_ADDR", "env-http")
	t.Setenv("FEEDWATCH_CHATFEED_SEED", "lobby")

	fs := flag.NewFlagSet("chatfeed", flag.ContinueOnError)
	args := []string{"-db-path", "/tmp/flag.db", "-transport", "stdio", "-seed", ""}
	cfg, err := ParseConfig(fs, args)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.HTTPAddr != "env-http" {
		t.Fatalf("expected env http addr, got %q", cfg.HTTPAddr)
	}
	if cfg.DBPath != "/tmp/flag.db" {
		t.Fatalf("expected flag db path, got %q", cfg.DBPath)
	}
	if cfg.Transport != "stdio" {
		t.Fatalf("expected transport stdio, got %q", cfg.Transport)
	}
	if cfg.SeedChannel != "" {
		t.Fatalf("expected seeding disabled, got %q", cfg.SeedChannel)
	}
}

func TestRunRejectsUnsupportedTransport(t *testing.T) {
	cfg := Config{DBPath: filepath.Join(t.TempDir(), "chatfeed.db"), Transport: "fax"}
	err := Run(context.Background(), cfg)
	if err == nil || !strings.Contains(err.Error(), "not supported") {
		t.Fatalf("err = %v, want unsupported transport", err)
	}
}
