// Package storage defines persistence for chat channels and messages.
package storage

import (
	"context"
	"time"

	apperrors "github.com/louisbranch/feedwatch/internal/platform/errors"
)

// ErrNotFound indicates a requested channel is missing.
var ErrNotFound = apperrors.New(apperrors.CodeChannelNotFound, "record not found")

// Channel is a named conversation. RoomRef is the opaque destination
// reference clients use to post replies into it.
type Channel struct {
	ID        string
	Name      string
	RoomRef   string
	CreatedAt time.Time
}

// Message is one append-only channel entry.
type Message struct {
	ID        string
	ChannelID string
	Author    string
	Content   string
	CreatedAt time.Time
}

// ChannelStore persists channels.
type ChannelStore interface {
	// EnsureChannel returns the channel named name, creating it when absent.
	EnsureChannel(ctx context.Context, name string) (Channel, error)
	ChannelByName(ctx context.Context, name string) (Channel, error)
	ChannelByRoomRef(ctx context.Context, roomRef string) (Channel, error)
}

// MessageStore persists messages.
type MessageStore interface {
	// AppendMessage stores msg, assigning ID and CreatedAt when empty.
	AppendMessage(ctx context.Context, msg Message) (Message, error)
	// ListMessages returns a channel's messages in append order.
	ListMessages(ctx context.Context, channelID string) ([]Message, error)
}

// Store is the full chat feed persistence surface.
type Store interface {
	ChannelStore
	MessageStore
	Close() error
}
