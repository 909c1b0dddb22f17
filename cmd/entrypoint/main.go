// Package main runs the chat feed server and the agent in one container.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	platformcmd "github.com/louisbranch/feedwatch/internal/platform/cmd"
	"github.com/louisbranch/feedwatch/internal/platform/config"
)

// shutdownTimeout is the grace period before forcing child exit.
const shutdownTimeout = 10 * time.Second

// healthTimeout bounds how long the agent waits for the feed to come up.
const healthTimeout = 30 * time.Second

// entrypointConfig holds container wiring.
type entrypointConfig struct {
	ChatFeedBin  string `env:"FEEDWATCH_CHATFEED_BIN"       envDefault:"/app/chatfeed"`
	AgentBin     string `env:"FEEDWATCH_AGENT_BIN"          envDefault:"/app/agent"`
	FeedHTTPAddr string `env:"FEEDWATCH_CHATFEED_HTTP_ADDR" envDefault:"0.0.0.0:8091"`
	FeedEndpoint string `env:"FEEDWATCH_FEED_ENDPOINT"      envDefault:"http://127.0.0.1:8091/mcp"`
}

// childProcess describes a managed child command.
type childProcess struct {
	name string
	cmd  *exec.Cmd
}

// processExit reports a child process exit result.
type processExit struct {
	name string
	err  error
}

// main starts the chat feed, waits for it to report healthy, then starts
// the agent and supervises both.
func main() {
	log.SetPrefix("[ENTRYPOINT] ")
	var cfg entrypointConfig
	if err := platformcmd.ParseConfig(&cfg); err != nil {
		config.Exitf("parse env: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sup := newSupervisor()
	feed, err := startChild(platformcmd.ServiceChatFeed, exec.Command(cfg.ChatFeedBin, "-transport=http", "-http-addr="+cfg.FeedHTTPAddr))
	if err != nil {
		log.Fatalf("failed to start chatfeed: %v", err)
	}
	sup.start(feed)

	healthCtx, cancel := context.WithTimeout(ctx, healthTimeout)
	err = waitHealthy(healthCtx, http.DefaultClient, healthURL(cfg.FeedEndpoint))
	cancel()
	if err != nil {
		sup.stop([]*childProcess{feed}, shutdownTimeout)
		log.Fatalf("chatfeed not healthy: %v", err)
	}

	agent, err := startChild(platformcmd.ServiceAgent, exec.Command(cfg.AgentBin, "-feed-transport=http", "-feed-endpoint="+cfg.FeedEndpoint))
	if err != nil {
		sup.stop([]*childProcess{feed}, shutdownTimeout)
		log.Fatalf("failed to start agent: %v", err)
	}
	sup.start(agent)

	select {
	case <-ctx.Done():
		log.Printf("shutdown signal received")
		// The agent is stopped and reaped before the feed is signalled.
		sup.stop([]*childProcess{agent, feed}, shutdownTimeout)
	case exit := <-sup.exits:
		sup.record(exit)
		log.Printf("%s exited: %v", exit.name, exit.err)
		sup.stop([]*childProcess{agent, feed}, shutdownTimeout)
		os.Exit(exitCode(exit.err))
	}
}

// healthURL derives the health endpoint from the MCP endpoint.
func healthURL(endpoint string) string {
	return endpoint + "/health"
}

// waitHealthy polls url until it answers 200 or ctx ends.
func waitHealthy(ctx context.Context, client *http.Client, url string) error {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for %s: %w", url, ctx.Err())
		case <-ticker.C:
		}
	}
}

// startChild starts a child process with inherited stdio streams.
func startChild(name string, cmd *exec.Cmd) (*childProcess, error) {
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", name, err)
	}
	return &childProcess{name: name, cmd: cmd}, nil
}

// supervisor reaps started children. Exits are observed only through the
// exits channel, never through cmd.ProcessState.
type supervisor struct {
	exits  chan processExit
	exited map[string]error
}

func newSupervisor() *supervisor {
	return &supervisor{
		exits:  make(chan processExit, 4),
		exited: make(map[string]error),
	}
}

// start reaps child in the background.
func (s *supervisor) start(child *childProcess) {
	go func() {
		err := child.cmd.Wait()
		s.exits <- processExit{name: child.name, err: err}
	}()
}

// record marks an exit received directly from s.exits.
func (s *supervisor) record(exit processExit) {
	s.exited[exit.name] = exit.err
}

// awaitExit blocks until name has exited or timeout elapses.
func (s *supervisor) awaitExit(name string, timeout time.Duration) bool {
	if _, ok := s.exited[name]; ok {
		return true
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case exit := <-s.exits:
			s.record(exit)
			log.Printf("%s stopped: %v", exit.name, exit.err)
			if exit.name == name {
				return true
			}
		case <-timer.C:
			return false
		}
	}
}

// stop terminates children one at a time in order, waiting up to timeout
// for each before killing it.
func (s *supervisor) stop(children []*childProcess, timeout time.Duration) {
	for _, child := range children {
		if child == nil || child.cmd == nil || child.cmd.Process == nil {
			continue
		}
		if _, ok := s.exited[child.name]; ok {
			continue
		}
		_ = child.cmd.Process.Signal(syscall.SIGTERM)
		if s.awaitExit(child.name, timeout) {
			continue
		}
		log.Printf("%s did not stop within %s, killing", child.name, timeout)
		_ = child.cmd.Process.Kill()
		s.awaitExit(child.name, timeout)
	}
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}
