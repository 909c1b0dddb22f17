// Package feed defines the boundary between the reconciliation engine and
// the transport that carries a conversation feed.
package feed

import (
	"context"

	apperrors "github.com/louisbranch/feedwatch/internal/platform/errors"
	"github.com/louisbranch/feedwatch/internal/services/agent/entry"
)

// Error kinds returned by Feed implementations. Match with errors.Is.
var (
	ErrSubscribe = apperrors.New(apperrors.CodeFeedSubscribe, "feed subscribe failed")
	ErrRead      = apperrors.New(apperrors.CodeFeedRead, "feed read failed")
	ErrPublish   = apperrors.New(apperrors.CodeFeedPublish, "feed publish failed")
)

// Snapshot is the full current state of a feed.
type Snapshot struct {
	Entries []entry.Entry
	// RoomRef is the destination reference for replies. Empty means the
	// read carried no reference.
	RoomRef string
}

// UpdateHandler is invoked once per update notification. hint is the
// destination reference carried by the notification, or empty.
type UpdateHandler func(ctx context.Context, feedID string, hint string) error

// Feed is the transport-facing collaborator used by the engine.
type Feed interface {
	// Subscribe asks the transport to deliver update notifications for feedID.
	Subscribe(ctx context.Context, feedID string) error
	// OnUpdate registers the single update handler, replacing any previous one.
	OnUpdate(handler UpdateHandler)
	// ReadSnapshot fetches and validates the full feed.
	ReadSnapshot(ctx context.Context, feedID string) (Snapshot, error)
	// Publish sends text to the destination identified by roomRef.
	Publish(ctx context.Context, roomRef string, text string) error
}

// SubscribeError wraps cause as a subscription failure.
func SubscribeError(feedID string, cause error) error {
	return apperrors.WrapWithMetadata(apperrors.CodeFeedSubscribe, "subscribe "+feedID, map[string]string{"feed": feedID}, cause)
}

// ReadError wraps cause as a snapshot read failure.
func ReadError(feedID string, cause error) error {
	return apperrors.WrapWithMetadata(apperrors.CodeFeedRead, "read "+feedID, map[string]string{"feed": feedID}, cause)
}

// PublishError wraps cause as a publish failure.
func PublishError(roomRef string, cause error) error {
	return apperrors.WrapWithMetadata(apperrors.CodeFeedPublish, "publish to "+roomRef, map[string]string{"room_ref": roomRef}, cause)
}
