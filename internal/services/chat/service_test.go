package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thenoetrevino/tablero/internal/cache"
	"github.com/thenoetrevino/tablero/internal/crypto"
	"github.com/thenoetrevino/tablero/internal/database"
	"github.com/thenoetrevino/tablero/internal/events"
	"github.com/thenoetrevino/tablero/internal/models"
	"github.com/thenoetrevino/tablero/internal/permission"
	"github.com/thenoetrevino/tablero/internal/ratelimit"
	"github.com/thenoetrevino/tablero/internal/testutil"
	"github.com/thenoetrevino/tablero/internal/types"
)

// ============================================================================
// TEST HELPERS
// ============================================================================

const (
	owner    types.UserID = 1
	member   types.UserID = 2
	stranger types.UserID = 3
)

const testSecret = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

// countingStore records how often the store is read
type countingStore struct {
	MessageStore
	reads atomic.Int32
}

func (s *countingStore) ListRecent(ctx context.Context, boardID types.BoardID, limit int) ([]*models.StoredMessage, error) {
	s.reads.Add(1)
	return s.MessageStore.ListRecent(ctx, boardID, limit)
}

// clock is a settable time source shared by the cache and the service
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	repo     *database.Repository
	store    *countingStore
	cache    *cache.MemoryCache
	clock    *clock
	recorder *events.Recorder
	board    *models.Board
	svc      Service
}

func setup(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	repo := testutil.SetupTestDB(t)
	board := testutil.CreateTestBoard(t, repo, "Team", owner)
	testutil.CreateTestMember(t, repo, board.ID, member, models.RoleMember)

	clk := &clock{now: testutil.Now}
	mc, err := cache.NewMemoryCache(cache.Options{Capacity: 5, TTL: time.Minute, Now: clk.Now})
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	cipher, err := crypto.NewCipherFromSecret(testSecret)
	if err != nil {
		t.Fatalf("Failed to create cipher: %v", err)
	}

	store := &countingStore{MessageStore: repo.Messages}
	recorder := &events.Recorder{}
	opts = append([]Option{WithHistory(5), WithClock(clk.Now)}, opts...)

	return &fixture{
		repo:     repo,
		store:    store,
		cache:    mc,
		clock:    clk,
		recorder: recorder,
		board:    board,
		svc:      NewService(store, permission.NewGate(repo.Boards), cipher, mc, recorder, opts...),
	}
}

func texts(msgs []models.ChatMessage) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Text
	}
	return out
}

// ============================================================================
// SEND
// ============================================================================

func TestCreateMessage(t *testing.T) {
	t.Parallel()
	f := setup(t)

	msg, err := f.svc.CreateMessage(context.Background(), f.board.ID, "  hello team ", member)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if msg.ID == 0 || msg.Text != "hello team" || msg.AuthorID != member || msg.BoardID != f.board.ID {
		t.Errorf("Unexpected message %+v", msg)
	}

	stored, err := f.repo.Messages.ListRecent(context.Background(), f.board.ID, 10)
	if err != nil || len(stored) != 1 {
		t.Fatalf("Expected one stored message, got %d (%v)", len(stored), err)
	}
	if strings.Contains(string(stored[0].Ciphertext), "hello team") {
		t.Error("Expected only ciphertext to be persisted")
	}

	last, ok := f.recorder.Last()
	if !ok || last.Kind != events.ChatMessage {
		t.Fatalf("Expected chat_message event, got %+v", last)
	}
	var published models.ChatMessage
	if err := last.Decode(&published); err != nil {
		t.Fatalf("Failed to decode payload: %v", err)
	}
	if published.Text != "hello team" || published.ID != msg.ID {
		t.Errorf("Expected decrypted record on the topic, got %+v", published)
	}
}

func TestCreateMessage_Validation(t *testing.T) {
	t.Parallel()
	f := setup(t)

	tests := []struct {
		name string
		text string
		want error
	}{
		{"empty", "   ", ErrEmptyMessage},
		{"too long", strings.Repeat("é", models.MaxMessageLength+1), ErrMessageTooLong},
		{"tag", "look <script>alert(1)</script>", ErrUnsafeContent},
		{"javascript url", "click JavaScript:void(0)", ErrUnsafeContent},
		{"event handler", `img onerror = "x"`, ErrUnsafeContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateMessage(context.Background(), f.board.ID, tt.text, member)
			if !errors.Is(err, tt.want) || !errors.Is(err, models.ErrInvalid) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}

	// at the limit is fine
	if _, err := f.svc.CreateMessage(context.Background(), f.board.ID, strings.Repeat("é", models.MaxMessageLength), member); err != nil {
		t.Errorf("Expected max-length message to be accepted, got %v", err)
	}
}

func TestCreateMessage_Permissions(t *testing.T) {
	t.Parallel()
	f := setup(t)

	if _, err := f.svc.CreateMessage(context.Background(), f.board.ID, "hi", owner); err != nil {
		t.Errorf("Expected owner to chat, got %v", err)
	}
	if _, err := f.svc.CreateMessage(context.Background(), f.board.ID, "hi", stranger); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Expected stranger to get not found, got %v", err)
	}
	if _, err := f.svc.CreateMessage(context.Background(), f.board.ID, "hi", 0); !errors.Is(err, models.ErrUnauthorized) {
		t.Errorf("Expected missing actor to be unauthorized, got %v", err)
	}
}

func TestCreateMessage_RateLimited(t *testing.T) {
	t.Parallel()
	guard := ratelimit.NewMemoryGuard(ratelimit.Options{
		Window: time.Minute,
		Limits: map[ratelimit.Kind]int{ratelimit.KindChatSend: 2},
	})
	f := setup(t, WithGuard(guard))

	for i := 0; i < 2; i++ {
		if _, err := f.svc.CreateMessage(context.Background(), f.board.ID, fmt.Sprintf("m%d", i), member); err != nil {
			t.Fatalf("send %d failed: %v", i, err)
		}
	}
	_, err := f.svc.CreateMessage(context.Background(), f.board.ID, "one too many", member)
	if !errors.Is(err, ErrTooManyMessages) || models.KindOf(err) != models.ErrRateLimited {
		t.Errorf("Expected rate limited error, got %v", err)
	}

	// other actors have their own window
	if _, err := f.svc.CreateMessage(context.Background(), f.board.ID, "owner here", owner); err != nil {
		t.Errorf("Expected owner to be unaffected, got %v", err)
	}
}

// ============================================================================
// READ / CACHE
// ============================================================================

func TestListMessages_CacheCoherence(t *testing.T) {
	t.Parallel()
	f := setup(t)

	// first read loads and fills the cache
	msgs, err := f.svc.ListMessages(context.Background(), f.board.ID, member)
	if err != nil || len(msgs) != 0 {
		t.Fatalf("Expected empty history, got %v (%v)", msgs, err)
	}
	reads := f.store.reads.Load()

	sent, err := f.svc.CreateMessage(context.Background(), f.board.ID, "fresh", owner)
	if err != nil {
		t.Fatalf("CreateMessage failed: %v", err)
	}

	msgs, err = f.svc.ListMessages(context.Background(), f.board.ID, member)
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Text != "fresh" || msgs[0].ID != sent.ID {
		t.Errorf("Expected the new message from cache, got %+v", msgs)
	}
	if got := f.store.reads.Load(); got != reads {
		t.Errorf("Expected a cache hit, store was read %d more times", got-reads)
	}
}

func TestCreateMessage_WarmsCacheOnMiss(t *testing.T) {
	t.Parallel()
	f := setup(t)

	for _, text := range []string{"one", "two"} {
		if _, err := f.svc.CreateMessage(context.Background(), f.board.ID, text, member); err != nil {
			t.Fatalf("CreateMessage failed: %v", err)
		}
	}
	// the first send warmed from the store, the second appended
	if got := f.store.reads.Load(); got != 1 {
		t.Errorf("Expected one warm-up read, got %d", got)
	}

	msgs, ok, _ := f.cache.Get(context.Background(), f.board.ID)
	if !ok || strings.Join(texts(msgs), ",") != "one,two" {
		t.Errorf("Expected warmed cache [one two], got %v (ok=%v)", texts(msgs), ok)
	}
}

func TestListMessages_ExpiryReloadsFromStore(t *testing.T) {
	t.Parallel()
	f := setup(t)

	if _, err := f.svc.CreateMessage(context.Background(), f.board.ID, "before", member); err != nil {
		t.Fatalf("CreateMessage failed: %v", err)
	}
	if _, err := f.svc.ListMessages(context.Background(), f.board.ID, member); err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	reads := f.store.reads.Load()

	f.clock.Advance(2 * time.Minute)

	msgs, err := f.svc.ListMessages(context.Background(), f.board.ID, member)
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	if got := f.store.reads.Load(); got != reads+1 {
		t.Errorf("Expected expired entry to be reloaded from store, reads went %d -> %d", reads, got)
	}
	if len(msgs) != 1 || msgs[0].Text != "before" {
		t.Errorf("Expected reloaded history, got %v", texts(msgs))
	}
}

func TestListMessages_CappedOldestFirst(t *testing.T) {
	t.Parallel()
	f := setup(t)

	for i := 0; i < 8; i++ {
		f.clock.Advance(time.Second)
		if _, err := f.svc.CreateMessage(context.Background(), f.board.ID, fmt.Sprintf("m%d", i), member); err != nil {
			t.Fatalf("CreateMessage failed: %v", err)
		}
	}

	want := "m3,m4,m5,m6,m7"
	msgs, err := f.svc.ListMessages(context.Background(), f.board.ID, owner)
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	if got := strings.Join(texts(msgs), ","); got != want {
		t.Errorf("Expected cached %s, got %s", want, got)
	}

	if err := f.cache.Invalidate(context.Background(), f.board.ID); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}
	msgs, err = f.svc.ListMessages(context.Background(), f.board.ID, owner)
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	if got := strings.Join(texts(msgs), ","); got != want {
		t.Errorf("Expected stored %s, got %s", want, got)
	}
}

func TestListMessages_StrangerLooksLikeMissingBoard(t *testing.T) {
	t.Parallel()
	f := setup(t)

	_, errStranger := f.svc.ListMessages(context.Background(), f.board.ID, stranger)
	_, errMissing := f.svc.ListMessages(context.Background(), 9999, stranger)

	if errStranger == nil || errMissing == nil {
		t.Fatalf("Expected both reads to fail, got %v / %v", errStranger, errMissing)
	}
	if models.KindOf(errStranger) != models.ErrNotFound || models.KindOf(errMissing) != models.ErrNotFound {
		t.Errorf("Expected both to be not found, got %v / %v", errStranger, errMissing)
	}
	if f.store.reads.Load() != 0 {
		t.Error("Expected rejected reads never to reach the store")
	}
}

func TestListMessages_WrongKeyIsInternal(t *testing.T) {
	t.Parallel()
	f := setup(t)

	if _, err := f.svc.CreateMessage(context.Background(), f.board.ID, "secret", member); err != nil {
		t.Fatalf("CreateMessage failed: %v", err)
	}

	other, err := crypto.NewCipherFromSecret("a different passphrase")
	if err != nil {
		t.Fatalf("Failed to create cipher: %v", err)
	}
	empty, _ := cache.NewMemoryCache(cache.Options{})
	svc := NewService(f.store, permission.NewGate(f.repo.Boards), other, empty, nil)

	_, err = svc.ListMessages(context.Background(), f.board.ID, member)
	if models.KindOf(err) != models.ErrInternal || !crypto.IsCipherError(err) {
		t.Errorf("Expected internal cipher error, got %v", err)
	}
}
