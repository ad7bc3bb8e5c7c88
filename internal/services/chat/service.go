package chat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/thenoetrevino/tablero/internal/cache"
	"github.com/thenoetrevino/tablero/internal/crypto"
	"github.com/thenoetrevino/tablero/internal/database"
	"github.com/thenoetrevino/tablero/internal/events"
	"github.com/thenoetrevino/tablero/internal/models"
	"github.com/thenoetrevino/tablero/internal/permission"
	"github.com/thenoetrevino/tablero/internal/ratelimit"
	"github.com/thenoetrevino/tablero/internal/types"
)

// Service defines the chat operations of a board
type Service interface {
	CreateMessage(ctx context.Context, boardID types.BoardID, text string, actorID types.UserID) (*models.ChatMessage, error)
	ListMessages(ctx context.Context, boardID types.BoardID, actorID types.UserID) ([]models.ChatMessage, error)
}

// MessageStore persists encrypted messages
type MessageStore interface {
	Create(ctx context.Context, msg *models.StoredMessage) (*models.StoredMessage, error)
	ListRecent(ctx context.Context, boardID types.BoardID, limit int) ([]*models.StoredMessage, error)
}

// Option configures the chat service
type Option func(*service)

// WithGuard throttles message sends per actor
func WithGuard(g ratelimit.Guard) Option {
	return func(s *service) {
		s.guard = g
	}
}

// WithHistory sets how many recent messages are loaded and served
func WithHistory(n int) Option {
	return func(s *service) {
		if n > 0 {
			s.history = n
		}
	}
}

// WithMaxLength sets the maximum message length in characters
func WithMaxLength(n int) Option {
	return func(s *service) {
		if n > 0 {
			s.maxLength = n
		}
	}
}

// WithClock overrides the clock used to stamp messages
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

type service struct {
	store     MessageStore
	gate      *permission.Gate
	cipher    *crypto.Cipher
	cache     cache.MessageCache
	publisher events.Publisher
	guard     ratelimit.Guard
	locks     *database.BoardLocks

	history   int
	maxLength int
	now       func() time.Time
}

// NewService creates a chat service. Plaintext only ever lives in the cache,
// in events and in return values; the store sees ciphertext.
func NewService(store MessageStore, gate *permission.Gate, cipher *crypto.Cipher, c cache.MessageCache, publisher events.Publisher, opts ...Option) Service {
	s := &service{
		store:     store,
		gate:      gate,
		cipher:    cipher,
		cache:     c,
		publisher: publisher,
		locks:     database.NewBoardLocks(),
		history:   models.DefaultMessageCacheSize,
		maxLength: models.MaxMessageLength,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateMessage encrypts and stores a message, then makes it visible through
// the cache and the board's realtime topic
func (s *service) CreateMessage(ctx context.Context, boardID types.BoardID, text string, actorID types.UserID) (*models.ChatMessage, error) {
	if boardID <= 0 {
		return nil, ErrInvalidBoardID
	}
	text, err := sanitize(text, s.maxLength)
	if err != nil {
		return nil, err
	}

	if _, err := s.gate.Require(ctx, boardID, actorID, permission.ActionChat); err != nil {
		return nil, err
	}

	if s.guard != nil {
		allowed, err := s.guard.Allow(ctx, actorID.String(), ratelimit.KindChatSend)
		if err != nil {
			return nil, fmt.Errorf("%w: rate guard: %v", models.ErrInternal, err)
		}
		if !allowed {
			return nil, ErrTooManyMessages
		}
	}

	blob, err := s.cipher.Encrypt([]byte(text))
	if err != nil {
		return nil, err
	}

	// Persist and cache under the board lock so a concurrent warm-up cannot
	// overwrite the entry with a snapshot that misses this message.
	unlock := s.locks.Lock(boardID)
	defer unlock()

	stored, err := s.store.Create(ctx, &models.StoredMessage{
		BoardID:    boardID,
		AuthorID:   actorID,
		Ciphertext: blob,
		CreatedAt:  s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	msg := models.ChatMessage{
		ID:        stored.ID,
		BoardID:   boardID,
		AuthorID:  actorID,
		Text:      text,
		CreatedAt: stored.CreatedAt,
	}
	s.remember(ctx, msg)

	events.Emit(ctx, s.publisher, events.ChatMessage, boardID, msg)
	return &msg, nil
}

// ListMessages returns the board's most recent messages, oldest first
func (s *service) ListMessages(ctx context.Context, boardID types.BoardID, actorID types.UserID) ([]models.ChatMessage, error) {
	if boardID <= 0 {
		return nil, ErrInvalidBoardID
	}
	if _, err := s.gate.Require(ctx, boardID, actorID, permission.ActionRead); err != nil {
		return nil, err
	}

	if msgs, ok := s.cached(ctx, boardID); ok {
		return msgs, nil
	}

	unlock := s.locks.Lock(boardID)
	defer unlock()

	// another reader may have filled the entry while we waited
	if msgs, ok := s.cached(ctx, boardID); ok {
		return msgs, nil
	}

	msgs, err := s.load(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, boardID, msgs); err != nil {
		slog.Warn("failed to fill message cache", "board_id", boardID, "error", err)
	}
	return msgs, nil
}

// cached reads the live entry. Cache failures degrade to a miss.
func (s *service) cached(ctx context.Context, boardID types.BoardID) ([]models.ChatMessage, bool) {
	msgs, ok, err := s.cache.Get(ctx, boardID)
	if err != nil {
		slog.Warn("message cache read failed", "board_id", boardID, "error", err)
		return nil, false
	}
	return msgs, ok
}

// remember appends msg to the live entry, or warms the entry from the store
// when there is none. The message is already committed, so failures are logged.
func (s *service) remember(ctx context.Context, msg models.ChatMessage) {
	appended, err := s.cache.Append(ctx, msg.BoardID, msg)
	if err == nil && appended {
		return
	}
	if err != nil {
		slog.Warn("message cache append failed", "board_id", msg.BoardID, "error", err)
	}

	msgs, err := s.load(ctx, msg.BoardID)
	if err != nil {
		slog.Warn("failed to warm message cache", "board_id", msg.BoardID, "error", err)
		if err := s.cache.Invalidate(ctx, msg.BoardID); err != nil {
			slog.Warn("failed to invalidate message cache", "board_id", msg.BoardID, "error", err)
		}
		return
	}
	if err := s.cache.Set(ctx, msg.BoardID, msgs); err != nil {
		slog.Warn("failed to warm message cache", "board_id", msg.BoardID, "error", err)
	}
}

// load reads and decrypts the newest history messages from the store
func (s *service) load(ctx context.Context, boardID types.BoardID) ([]models.ChatMessage, error) {
	stored, err := s.store.ListRecent(ctx, boardID, s.history)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}

	msgs := make([]models.ChatMessage, 0, len(stored))
	for _, m := range stored {
		plain, err := s.cipher.Decrypt(m.Ciphertext)
		if err != nil {
			return nil, fmt.Errorf("message %d on board %d: %w", m.ID, boardID, err)
		}
		msgs = append(msgs, models.ChatMessage{
			ID:        m.ID,
			BoardID:   m.BoardID,
			AuthorID:  m.AuthorID,
			Text:      string(plain),
			CreatedAt: m.CreatedAt,
		})
	}
	return msgs, nil
}
