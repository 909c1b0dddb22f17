// Package service exposes chat feed channels as MCP resources and tools.
//
// Each channel is the resource chat://channel/{channel}/messages whose
// content is a JSON array of messages and whose _meta.roomRef names the
// channel's destination reference. Appending a message sends
// notifications/resources/updated to subscribers with the same roomRef.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	apperrors "github.com/louisbranch/feedwatch/internal/platform/errors"
	"github.com/louisbranch/feedwatch/internal/services/chatfeed/storage"
	"github.com/louisbranch/feedwatch/internal/services/shared/feedproto"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	serverName    = "feedwatch-chatfeed"
	serverVersion = "0.1.0"
)

// Server is the chat feed MCP server.
type Server struct {
	mcpServer *mcp.Server
	store     storage.Store
	logf      func(format string, args ...any)
}

// New builds the MCP server over store and registers its resources and tools.
func New(store storage.Store, logf func(format string, args ...any)) (*Server, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if logf == nil {
		logf = log.Printf
	}
	s := &Server{store: store, logf: logf}
	s.mcpServer = mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, &mcp.ServerOptions{
		SubscribeHandler:   s.subscribe,
		UnsubscribeHandler: unsubscribe,
	})
	s.mcpServer.AddResourceTemplate(&mcp.ResourceTemplate{
		Name:        "channel-messages",
		Description: "All messages of a chat channel, oldest first.",
		URITemplate: feedproto.ChannelURITemplate,
		MIMEType:    feedproto.MIMEType,
	}, s.readChannel)
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        feedproto.ToolPostMessage,
		Description: "Post a message to a channel by name, creating the channel if needed.",
	}, s.postMessage)
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        feedproto.ToolSendMessage,
		Description: "Send an agent reply to the channel identified by a room reference.",
	}, s.sendMessage)
	return s, nil
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcpServer
}

// Run serves one MCP session over transport until it ends or ctx is done.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	return s.mcpServer.Run(ctx, transport)
}

// Post appends a message to the named channel and notifies subscribers.
// The agent author is reserved for send_message.
func (s *Server) Post(ctx context.Context, channelName, author, content string) (storage.Message, storage.Channel, error) {
	if reserved := strings.TrimSpace(author); strings.EqualFold(reserved, feedproto.AgentAuthor) {
		return storage.Message{}, storage.Channel{}, apperrors.WithMetadata(apperrors.CodeAuthorReserved, "author "+reserved+" is reserved", map[string]string{"author": reserved})
	}
	channelName = strings.TrimSpace(channelName)
	if channelName == "" {
		return storage.Message{}, storage.Channel{}, apperrors.New(apperrors.CodeChannelNameEmpty, "channel name is required")
	}
	channel, err := s.store.EnsureChannel(ctx, channelName)
	if err != nil {
		return storage.Message{}, storage.Channel{}, err
	}
	msg, err := s.append(ctx, channel, author, content)
	return msg, channel, err
}

// Seed appends the example backlog to channelName when it has no messages.
func (s *Server) Seed(ctx context.Context, channelName string) error {
	channel, err := s.store.EnsureChannel(ctx, channelName)
	if err != nil {
		return err
	}
	existing, err := s.store.ListMessages(ctx, channel.ID)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	for _, seed := range []struct{ author, content string }{
		{author: "Alice", content: "Hello agent!"},
		{author: "Bob", content: "Hello Bob!"},
	} {
		if _, err := s.store.AppendMessage(ctx, storage.Message{ChannelID: channel.ID, Author: seed.author, Content: seed.content}); err != nil {
			return fmt.Errorf("seed %s: %w", channelName, err)
		}
	}
	s.logf("channel seeded: channel=%s room=%s", channel.Name, channel.RoomRef)
	return nil
}

func (s *Server) append(ctx context.Context, channel storage.Channel, author, content string) (storage.Message, error) {
	if strings.TrimSpace(content) == "" {
		return storage.Message{}, apperrors.New(apperrors.CodeMessageEmpty, "message content is required")
	}
	msg, err := s.store.AppendMessage(ctx, storage.Message{
		ChannelID: channel.ID,
		Author:    strings.TrimSpace(author),
		Content:   content,
	})
	if err != nil {
		return storage.Message{}, err
	}
	s.notify(ctx, channel)
	return msg, nil
}

func (s *Server) notify(ctx context.Context, channel storage.Channel) {
	uri := feedproto.ChannelURI(channel.Name)
	if err := s.mcpServer.ResourceUpdated(ctx, &mcp.ResourceUpdatedNotificationParams{
		URI:  uri,
		Meta: mcp.Meta{feedproto.MetaRoomRef: channel.RoomRef},
	}); err != nil {
		s.logf("resource updated notify failed: uri=%s err=%v", uri, err)
	}
}

// subscribe accepts subscriptions to channel URIs, creating the channel so
// a watcher can attach before the first message.
func (s *Server) subscribe(ctx context.Context, req *mcp.SubscribeRequest) error {
	if req == nil || req.Params == nil {
		return fmt.Errorf("resource uri is required")
	}
	channelName, err := feedproto.ParseChannelURI(req.Params.URI)
	if err != nil {
		return err
	}
	channel, err := s.store.EnsureChannel(ctx, channelName)
	if err != nil {
		return err
	}
	s.logf("subscribed: channel=%s room=%s", channel.Name, channel.RoomRef)
	return nil
}

func unsubscribe(_ context.Context, req *mcp.UnsubscribeRequest) error {
	if req == nil || req.Params == nil || strings.TrimSpace(req.Params.URI) == "" {
		return fmt.Errorf("resource uri is required")
	}
	return nil
}

// messagePayload is the wire shape of one channel message.
type messagePayload struct {
	ID        string  `json:"id"`
	Author    string  `json:"author"`
	Content   string  `json:"content"`
	Timestamp float64 `json:"timestamp"`
}

func (s *Server) readChannel(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	if req == nil || req.Params == nil || req.Params.URI == "" {
		return nil, fmt.Errorf("resource uri is required; use %s", feedproto.ChannelURITemplate)
	}
	uri := req.Params.URI
	channelName, err := feedproto.ParseChannelURI(uri)
	if err != nil {
		return nil, mcp.ResourceNotFoundError(uri)
	}
	channel, err := s.store.ChannelByName(ctx, channelName)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, mcp.ResourceNotFoundError(uri)
		}
		return nil, err
	}
	messages, err := s.store.ListMessages(ctx, channel.ID)
	if err != nil {
		return nil, err
	}

	payload := make([]messagePayload, 0, len(messages))
	for _, msg := range messages {
		payload = append(payload, messagePayload{
			ID:        msg.ID,
			Author:    msg.Author,
			Content:   msg.Content,
			Timestamp: float64(msg.CreatedAt.UnixMilli()),
		})
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal channel messages: %w", err)
	}

	return &mcp.ReadResourceResult{
		Meta: mcp.Meta{feedproto.MetaRoomRef: channel.RoomRef},
		Contents: []*mcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: feedproto.MIMEType,
				Text:     string(data),
			},
		},
	}, nil
}

// PostMessageInput is the post_message tool input.
type PostMessageInput struct {
	Channel string `json:"channel" jsonschema:"channel name"`
	Author  string `json:"author" jsonschema:"display name of the sender"`
	Content string `json:"content" jsonschema:"message text"`
}

// SendMessageInput is the send_message tool input.
type SendMessageInput struct {
	RoomRef string `json:"roomRef" jsonschema:"destination reference from the channel resource"`
	Content string `json:"content" jsonschema:"reply text"`
}

// MessageResult identifies an appended message.
type MessageResult struct {
	ID      string `json:"id"`
	Channel string `json:"channel"`
	RoomRef string `json:"roomRef"`
}

func (s *Server) postMessage(ctx context.Context, req *mcp.CallToolRequest, input PostMessageInput) (*mcp.CallToolResult, MessageResult, error) {
	if strings.TrimSpace(input.Author) == "" {
		return nil, MessageResult{}, toolError(req, apperrors.New(apperrors.CodeAuthorEmpty, "author is required"))
	}
	msg, channel, err := s.Post(ctx, input.Channel, input.Author, input.Content)
	if err != nil {
		return nil, MessageResult{}, toolError(req, err)
	}
	return nil, MessageResult{ID: msg.ID, Channel: channel.Name, RoomRef: channel.RoomRef}, nil
}

func (s *Server) sendMessage(ctx context.Context, req *mcp.CallToolRequest, input SendMessageInput) (*mcp.CallToolResult, MessageResult, error) {
	roomRef := strings.TrimSpace(input.RoomRef)
	if roomRef == "" {
		return nil, MessageResult{}, toolError(req, apperrors.New(apperrors.CodeRoomRefEmpty, "roomRef is required"))
	}
	channel, err := s.store.ChannelByRoomRef(ctx, roomRef)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			err = apperrors.WithMetadata(apperrors.CodeRoomRefUnresolved, "unknown roomRef "+roomRef, map[string]string{"room_ref": roomRef})
		}
		return nil, MessageResult{}, toolError(req, err)
	}
	msg, err := s.append(ctx, channel, feedproto.AgentAuthor, input.Content)
	if err != nil {
		return nil, MessageResult{}, toolError(req, err)
	}
	return nil, MessageResult{ID: msg.ID, Channel: channel.Name, RoomRef: channel.RoomRef}, nil
}

// toolError localizes err for the locale named in the call's _meta.
func toolError(req *mcp.CallToolRequest, err error) error {
	var locale string
	if req != nil && req.Params != nil {
		locale = feedproto.LocaleFromMeta(req.Params.Meta)
	}
	return apperrors.Localize(err, locale)
}
