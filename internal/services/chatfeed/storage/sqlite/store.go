package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/feedwatch/internal/platform/id"
	sqlitemigrate "github.com/louisbranch/feedwatch/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/feedwatch/internal/services/chatfeed/storage"
	"github.com/louisbranch/feedwatch/internal/services/chatfeed/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// roomRefPrefix namespaces generated room references.
const roomRefPrefix = "chatfeed:channel:"

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Store implements storage.Store over SQLite.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
	newID func() (string, error)
}

var _ storage.Store = (*Store)(nil)

// Open opens a chat feed SQLite store and applies bundled migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB, now: time.Now, newID: id.NewID}
	if err := sqlitemigrate.ApplyMigrations(context.Background(), sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close releases the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// EnsureChannel returns the named channel, creating it with a fresh room
// reference when absent.
func (s *Store) EnsureChannel(ctx context.Context, name string) (storage.Channel, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return storage.Channel{}, fmt.Errorf("channel name is required")
	}

	channelID, err := s.newID()
	if err != nil {
		return storage.Channel{}, err
	}
	refID, err := s.newID()
	if err != nil {
		return storage.Channel{}, err
	}
	if _, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO channels (id, name, room_ref, created_at) VALUES (?, ?, ?, ?) ON CONFLICT(name) DO NOTHING`,
		channelID, name, roomRefPrefix+refID, toMillis(s.now()),
	); err != nil {
		return storage.Channel{}, fmt.Errorf("ensure channel %s: %w", name, err)
	}
	return s.ChannelByName(ctx, name)
}

// ChannelByName returns the channel named name.
func (s *Store) ChannelByName(ctx context.Context, name string) (storage.Channel, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, name, room_ref, created_at FROM channels WHERE name = ?`, strings.TrimSpace(name))
	return scanChannel(row)
}

// ChannelByRoomRef returns the channel addressed by roomRef.
func (s *Store) ChannelByRoomRef(ctx context.Context, roomRef string) (storage.Channel, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, name, room_ref, created_at FROM channels WHERE room_ref = ?`, strings.TrimSpace(roomRef))
	return scanChannel(row)
}

// AppendMessage stores msg at the end of its channel.
func (s *Store) AppendMessage(ctx context.Context, msg storage.Message) (storage.Message, error) {
	if strings.TrimSpace(msg.ChannelID) == "" {
		return storage.Message{}, fmt.Errorf("channel id is required")
	}
	if msg.ID == "" {
		messageID, err := s.newID()
		if err != nil {
			return storage.Message{}, err
		}
		msg.ID = messageID
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = s.now()
	}
	msg.CreatedAt = fromMillis(toMillis(msg.CreatedAt))

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO messages (id, channel_id, author, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		msg.ID, msg.ChannelID, msg.Author, msg.Content, toMillis(msg.CreatedAt),
	)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "foreign key") {
			return storage.Message{}, fmt.Errorf("channel %s: %w", msg.ChannelID, storage.ErrNotFound)
		}
		return storage.Message{}, fmt.Errorf("append message: %w", err)
	}
	return msg, nil
}

// ListMessages returns the messages of channelID in append order.
func (s *Store) ListMessages(ctx context.Context, channelID string) ([]storage.Message, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, channel_id, author, content, created_at FROM messages WHERE channel_id = ? ORDER BY seq`, channelID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []storage.Message
	for rows.Next() {
		var msg storage.Message
		var createdAt int64
		if err := rows.Scan(&msg.ID, &msg.ChannelID, &msg.Author, &msg.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg.CreatedAt = fromMillis(createdAt)
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return messages, nil
}

func scanChannel(row *sql.Row) (storage.Channel, error) {
	var channel storage.Channel
	var createdAt int64
	if err := row.Scan(&channel.ID, &channel.Name, &channel.RoomRef, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Channel{}, storage.ErrNotFound
		}
		return storage.Channel{}, fmt.Errorf("scan channel: %w", err)
	}
	channel.CreatedAt = fromMillis(createdAt)
	return channel, nil
}
