// Package engine reconciles a re-read-in-full conversation feed against the
// entries already seen and replies once to each new entry.
//
// Start loads the backlog without replying. Every update notification then
// triggers a full snapshot read; entries with unseen ids are answered in
// snapshot order, each reply generated and published before the next one
// begins. A generation failure stops the batch. A publish failure is logged
// and the batch continues.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	apperrors "github.com/louisbranch/feedwatch/internal/platform/errors"
	"github.com/louisbranch/feedwatch/internal/services/agent/entry"
	"github.com/louisbranch/feedwatch/internal/services/agent/feed"
	"github.com/louisbranch/feedwatch/internal/services/agent/generate"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/louisbranch/feedwatch/internal/services/agent/engine"

// DefaultDirective is the system directive used when Config.Directive is empty.
const DefaultDirective = "You are a helpful assistant responding only to new incoming messages."

// ErrGenerate matches reply generation failures.
var ErrGenerate = apperrors.New(apperrors.CodeGenerate, "reply generation failed")

// Config wires an Engine to its collaborators.
type Config struct {
	FeedID    string
	Feed      feed.Feed
	Generator generate.Generator
	// Directive is the system turn of every conversation.
	Directive string
	// SelfAuthor, when set, names the author the feed uses for this agent's
	// own replies. Such entries become known but are never replied to.
	SelfAuthor string
	// Logf receives diagnostic lines. Nil uses log.Printf.
	Logf func(format string, args ...any)
}

// Engine owns the known state for one feed.
type Engine struct {
	feedID    string
	feed      feed.Feed
	generator generate.Generator
	directive string
	self      string
	logf      func(format string, args ...any)
	tracer    trace.Tracer

	// mu is held for the whole of Start and HandleUpdate.
	mu      sync.Mutex
	state   *knownState
	started bool
}

// New validates cfg and returns an engine with empty known state.
func New(cfg Config) (*Engine, error) {
	feedID := strings.TrimSpace(cfg.FeedID)
	if feedID == "" {
		return nil, fmt.Errorf("feed id is required")
	}
	if cfg.Feed == nil {
		return nil, fmt.Errorf("feed is required")
	}
	if cfg.Generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	directive := cfg.Directive
	if strings.TrimSpace(directive) == "" {
		directive = DefaultDirective
	}
	logf := cfg.Logf
	if logf == nil {
		logf = log.Printf
	}
	return &Engine{
		feedID:    feedID,
		feed:      cfg.Feed,
		generator: cfg.Generator,
		directive: directive,
		self:      strings.TrimSpace(cfg.SelfAuthor),
		logf:      logf,
		tracer:    otel.Tracer(tracerName),
		state:     newKnownState(),
	}, nil
}

// Start subscribes to the feed, registers HandleUpdate, and loads the
// backlog. No replies are produced for backlog entries.
func (e *Engine) Start(ctx context.Context) (err error) {
	ctx, span := e.tracer.Start(ctx, "engine.start", trace.WithAttributes(attribute.String("feed.id", e.feedID)))
	defer func() { endSpan(span, err) }()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return fmt.Errorf("engine for %s already started", e.feedID)
	}

	if err := e.feed.Subscribe(ctx, e.feedID); err != nil {
		return err
	}
	e.feed.OnUpdate(e.HandleUpdate)

	snapshot, err := e.feed.ReadSnapshot(ctx, e.feedID)
	if err != nil {
		return err
	}
	e.state.observeRoomRef(snapshot.RoomRef)
	e.state.accept(snapshot.Entries)
	e.started = true

	span.SetAttributes(attribute.Int("feed.backlog", len(snapshot.Entries)))
	e.logf("initial backlog loaded: count=%d room=%s", len(snapshot.Entries), e.state.roomRef)
	return nil
}

// HandleUpdate reconciles the feed after an update notification. It is the
// handler registered by Start. Notifications for another feed, or arriving
// before Start has succeeded, are ignored.
func (e *Engine) HandleUpdate(ctx context.Context, feedID string, hint string) (err error) {
	if feedID != e.feedID {
		return nil
	}

	ctx, span := e.tracer.Start(ctx, "engine.reconcile", trace.WithAttributes(
		attribute.String("feed.id", feedID),
		attribute.Bool("feed.hint", hint != ""),
	))
	defer func() { endSpan(span, err) }()

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.started {
		e.logf("update ignored before start: feed=%s", feedID)
		return nil
	}

	e.state.observeRoomRef(hint)

	snapshot, err := e.feed.ReadSnapshot(ctx, e.feedID)
	if err != nil {
		return err
	}
	e.state.observeRoomRef(snapshot.RoomRef)

	fresh := e.state.unseen(snapshot.Entries)
	span.SetAttributes(attribute.Int("feed.new_entries", len(fresh)))
	if len(fresh) == 0 {
		return nil
	}
	e.state.accept(snapshot.Entries)

	var publishErrs []error
	for _, item := range fresh {
		if e.self != "" && item.Author == e.self {
			continue
		}
		publishErr, genErr := e.reply(ctx, item)
		if publishErr != nil {
			e.logf("reply publish failed: entry=%s room=%s err=%v", item.ID, e.state.roomRef, publishErr)
			publishErrs = append(publishErrs, publishErr)
		}
		if genErr != nil {
			return errors.Join(append([]error{genErr}, publishErrs...)...)
		}
	}
	return errors.Join(publishErrs...)
}

// reply generates and publishes the reply to one new entry.
func (e *Engine) reply(ctx context.Context, item entry.Entry) (publishErr error, genErr error) {
	ctx, span := e.tracer.Start(ctx, "engine.reply", trace.WithAttributes(attribute.String("entry.id", item.ID)))
	defer func() { endSpan(span, errors.Join(genErr, publishErr)) }()

	turns := generate.Conversation(e.directive, e.state.entries, item)
	result, err := e.generator.Generate(ctx, turns)
	if err != nil {
		if !errors.Is(err, ErrGenerate) {
			err = apperrors.Wrap(apperrors.CodeGenerate, "generate reply to "+item.ID, err)
		}
		return nil, err
	}
	if err := e.feed.Publish(ctx, e.state.roomRef, result.Text); err != nil {
		if !errors.Is(err, feed.ErrPublish) {
			err = feed.PublishError(e.state.roomRef, err)
		}
		return err, nil
	}
	return nil, nil
}

// RoomRef returns the current destination reference.
func (e *Engine) RoomRef() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.roomRef
}

// Known returns a copy of the entries of the last accepted snapshot.
func (e *Engine) Known() []entry.Entry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]entry.Entry(nil), e.state.entries...)
}

// Seen reports whether id has ever been observed.
func (e *Engine) Seen(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.seen(id)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
