// Package mcpfeed implements feed.Feed over an MCP client session.
//
// The feed is an MCP resource: subscribing uses resources/subscribe, reads
// use resources/read (entries as a JSON array in the first content, the
// destination reference in _meta.roomRef), and publishing calls the
// send_message tool. Update notifications are queued and delivered one at a
// time by Run, so a handler may issue requests on the same session.
package mcpfeed

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/louisbranch/feedwatch/internal/platform/timeouts"
	"github.com/louisbranch/feedwatch/internal/services/agent/entry"
	"github.com/louisbranch/feedwatch/internal/services/agent/feed"
	"github.com/louisbranch/feedwatch/internal/services/shared/feedproto"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	clientName    = "feedwatch-agent"
	clientVersion = "0.1.0"
)

var errUnknownRoomRef = errors.New("destination reference is unknown")

// Options configures a Client.
type Options struct {
	// RequestTimeout bounds each subscribe, read, and publish call.
	// Zero uses timeouts.FeedRequest.
	RequestTimeout time.Duration
	// Logf receives diagnostic lines. Nil uses log.Printf.
	Logf func(format string, args ...any)
}

// Client is an MCP-backed feed.Feed.
type Client struct {
	session        *mcp.ClientSession
	queue          *dispatcher
	requestTimeout time.Duration
	logf           func(format string, args ...any)

	mu      sync.Mutex
	handler feed.UpdateHandler
}

var _ feed.Feed = (*Client)(nil)

// Connect performs the MCP handshake over transport and returns a client
// whose notifications are delivered once Run is started.
func Connect(ctx context.Context, transport mcp.Transport, opts Options) (*Client, error) {
	if transport == nil {
		return nil, fmt.Errorf("mcp transport is required")
	}
	c := &Client{
		queue:          newDispatcher(),
		requestTimeout: opts.RequestTimeout,
		logf:           opts.Logf,
	}
	if c.requestTimeout <= 0 {
		c.requestTimeout = timeouts.FeedRequest
	}
	if c.logf == nil {
		c.logf = log.Printf
	}

	client := mcp.NewClient(&mcp.Implementation{Name: clientName, Version: clientVersion}, &mcp.ClientOptions{
		ResourceUpdatedHandler: c.enqueue,
	})

	connectCtx, cancel := context.WithTimeout(ctx, timeouts.FeedConnect)
	defer cancel()
	session, err := client.Connect(connectCtx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("connect feed: %w", err)
	}
	c.session = session
	return c, nil
}

// Close ends the MCP session.
func (c *Client) Close() error {
	if c == nil || c.session == nil {
		return nil
	}
	return c.session.Close()
}

// Wait blocks until the MCP session ends.
func (c *Client) Wait() error {
	return c.session.Wait()
}

// Subscribe requests update notifications for feedID.
func (c *Client) Subscribe(ctx context.Context, feedID string) error {
	callCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()
	if err := c.session.Subscribe(callCtx, &mcp.SubscribeParams{URI: feedID}); err != nil {
		return feed.SubscribeError(feedID, err)
	}
	return nil
}

// OnUpdate registers handler as the receiver for update notifications.
func (c *Client) OnUpdate(handler feed.UpdateHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = handler
}

// ReadSnapshot reads feedID and validates its entries. A result with no
// contents is an empty feed.
func (c *Client) ReadSnapshot(ctx context.Context, feedID string) (feed.Snapshot, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()
	result, err := c.session.ReadResource(callCtx, &mcp.ReadResourceParams{URI: feedID})
	if err != nil {
		return feed.Snapshot{}, feed.ReadError(feedID, err)
	}
	if result == nil {
		return feed.Snapshot{}, nil
	}

	snapshot := feed.Snapshot{RoomRef: feedproto.RoomRefFromMeta(result.Meta)}
	if len(result.Contents) == 0 || result.Contents[0] == nil {
		return snapshot, nil
	}
	first := result.Contents[0]
	if snapshot.RoomRef == "" {
		snapshot.RoomRef = feedproto.RoomRefFromMeta(first.Meta)
	}

	payload := []byte(first.Text)
	if len(payload) == 0 {
		payload = first.Blob
	}
	if len(payload) == 0 {
		return snapshot, nil
	}
	entries, err := entry.Decode(payload)
	if err != nil {
		return feed.Snapshot{}, feed.ReadError(feedID, err)
	}
	snapshot.Entries = entries
	return snapshot, nil
}

// Publish calls the send_message tool with roomRef and text.
func (c *Client) Publish(ctx context.Context, roomRef string, text string) error {
	if strings.TrimSpace(roomRef) == "" {
		return feed.PublishError(roomRef, errUnknownRoomRef)
	}
	callCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()
	result, err := c.session.CallTool(callCtx, &mcp.CallToolParams{
		Name: feedproto.ToolSendMessage,
		Arguments: map[string]any{
			"roomRef": roomRef,
			"content": text,
		},
	})
	if err != nil {
		return feed.PublishError(roomRef, err)
	}
	if result != nil && result.IsError {
		return feed.PublishError(roomRef, errors.New(toolErrorText(result)))
	}
	return nil
}

// Run delivers queued notifications to the registered handler, one at a
// time, until ctx is done. Handler errors are logged.
func (c *Client) Run(ctx context.Context) error {
	for {
		for {
			next, ok := c.queue.pop()
			if !ok {
				break
			}
			c.deliver(ctx, next)
			if ctx.Err() != nil {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-c.queue.wake:
		}
	}
}

func (c *Client) enqueue(_ context.Context, req *mcp.ResourceUpdatedNotificationRequest) {
	if req == nil || req.Params == nil {
		return
	}
	n := notification{
		uri:  req.Params.URI,
		hint: feedproto.RoomRefFromMeta(req.Params.Meta),
	}
	if !c.queue.push(n) {
		c.logf("feed update coalesced: uri=%s", n.uri)
	}
}

func (c *Client) deliver(ctx context.Context, n notification) {
	c.mu.Lock()
	handler := c.handler
	c.mu.Unlock()
	if handler == nil {
		c.logf("feed update dropped, no handler: uri=%s", n.uri)
		return
	}
	if err := handler(ctx, n.uri, n.hint); err != nil {
		c.logf("feed update handler failed: uri=%s err=%v", n.uri, err)
	}
}

func toolErrorText(result *mcp.CallToolResult) string {
	var parts []string
	for _, content := range result.Content {
		if text, ok := content.(*mcp.TextContent); ok && strings.TrimSpace(text.Text) != "" {
			parts = append(parts, text.Text)
		}
	}
	if len(parts) == 0 {
		return "tool reported an error"
	}
	return strings.Join(parts, "; ")
}
