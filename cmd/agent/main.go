package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	agentcmd "github.com/louisbranch/feedwatch/internal/cmd/agent"
	platformcmd "github.com/louisbranch/feedwatch/internal/platform/cmd"
	"github.com/louisbranch/feedwatch/internal/platform/config"
)

// main watches a chat feed and replies to new entries.
func main() {
	cfg, err := agentcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	log.SetPrefix(platformcmd.LogPrefix(platformcmd.ServiceAgent))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := agentcmd.Run(ctx, cfg); err != nil {
		log.Fatalf("agent stopped: %v", err)
	}
}
