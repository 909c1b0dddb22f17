package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	chatfeedcmd "github.com/louisbranch/feedwatch/internal/cmd/chatfeed"
	platformcmd "github.com/louisbranch/feedwatch/internal/platform/cmd"
	"github.com/louisbranch/feedwatch/internal/platform/config"
)

// main serves the chat feed on stdio or HTTP.
func main() {
	cfg, err := chatfeedcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	log.SetPrefix(platformcmd.LogPrefix(platformcmd.ServiceChatFeed))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := chatfeedcmd.Run(ctx, cfg); err != nil && ctx.Err() == nil {
		log.Fatalf("failed to serve chatfeed: %v", err)
	}
}
