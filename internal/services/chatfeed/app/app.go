// Package app wires chat feed storage, the MCP server, and its transport.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/louisbranch/feedwatch/internal/platform/timeouts"
	"github.com/louisbranch/feedwatch/internal/services/chatfeed/service"
	"github.com/louisbranch/feedwatch/internal/services/chatfeed/storage/sqlite"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/sync/errgroup"
)

// Transport kinds.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

const (
	mcpPath    = "/mcp"
	healthPath = "/mcp/health"
)

// Config configures the chat feed server.
type Config struct {
	DBPath    string
	Transport string
	HTTPAddr  string
	// SeedChannel, when set, receives the example backlog if empty.
	SeedChannel string
}

// Run opens storage and serves the chat feed until ctx is done.
func Run(ctx context.Context, cfg Config) error {
	store, err := openStore(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("close chatfeed store: %v", err)
		}
	}()

	srv, err := service.New(store, log.Printf)
	if err != nil {
		return err
	}
	if channel := strings.TrimSpace(cfg.SeedChannel); channel != "" {
		if err := srv.Seed(ctx, channel); err != nil {
			return fmt.Errorf("seed channel: %w", err)
		}
	}

	switch cfg.Transport {
	case "", TransportStdio:
		return srv.Run(ctx, &mcp.StdioTransport{})
	case TransportHTTP:
		addr := cfg.HTTPAddr
		if addr == "" {
			addr = "localhost:8091"
		}
		listener, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("listen %s: %w", addr, err)
		}
		log.Printf("chatfeed listening: addr=%s path=%s", listener.Addr(), mcpPath)
		return ServeHTTP(ctx, listener, srv)
	default:
		return fmt.Errorf("transport %q is not supported", cfg.Transport)
	}
}

func openStore(path string) (*sqlite.Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("chatfeed db path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	store, err := sqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open chatfeed store: %w", err)
	}
	return store, nil
}

// Handler returns the HTTP routes for srv: streamable MCP on /mcp and a
// health check on /mcp/health.
func Handler(srv *service.Server) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(mcpPath, mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return srv.MCPServer()
	}, nil))
	mux.HandleFunc(healthPath, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	return mux
}

// ServeHTTP serves srv on listener until ctx is done, then shuts down.
func ServeHTTP(ctx context.Context, listener net.Listener, srv *service.Server) error {
	httpServer := &http.Server{
		Handler:           Handler(srv),
		ReadHeaderTimeout: timeouts.ReadHeader,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http: %w", err)
		}
		return nil
	})
	return g.Wait()
}
