package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thenoetrevino/tablero/internal/app"
	"github.com/thenoetrevino/tablero/internal/config"
	"github.com/thenoetrevino/tablero/internal/events"
	"github.com/thenoetrevino/tablero/internal/models"
	"github.com/thenoetrevino/tablero/internal/testutil"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type testServer struct {
	*httptest.Server
	app *app.App
}

func newTestServer(t *testing.T, mutate ...func(*config.Config)) *testServer {
	t.Helper()
	cfg := config.Default()
	cfg.Chat.Secret = "api test secret"
	for _, m := range mutate {
		m(cfg)
	}

	a, err := app.New(context.Background(), testutil.SetupTestDB(t), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	srv := httptest.NewServer(NewServer(a).Handler())
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, app: a}
}

// do sends a JSON request as user and decodes the response into out when non-nil
func (s *testServer) do(t *testing.T, user int, method, path string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, s.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if user > 0 {
		req.Header.Set(ActorHeader, fmt.Sprint(user))
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (s *testServer) seedBoard(t *testing.T) (board models.Board, todo, done models.Column) {
	t.Helper()
	require.Equal(t, http.StatusCreated, s.do(t, 1, http.MethodPost, "/boards", gin.H{"name": "Team"}, &board))
	require.Equal(t, http.StatusCreated, s.do(t, 1, http.MethodPost, fmt.Sprintf("/boards/%d/columns", board.ID), gin.H{"title": "Todo"}, &todo))
	require.Equal(t, http.StatusCreated, s.do(t, 1, http.MethodPost, fmt.Sprintf("/boards/%d/columns", board.ID), gin.H{"title": "Done"}, &done))
	return board, todo, done
}

func TestMissingActor(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, 0, http.MethodGet, "/boards", nil, nil))
}

func TestHealthzAndMetrics(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusOK, s.do(t, 0, http.MethodGet, "/healthz", nil, nil))

	var snap map[string]any
	assert.Equal(t, http.StatusOK, s.do(t, 0, http.MethodGet, "/metrics", nil, &snap))
	assert.Contains(t, snap, "events_published")
}

func TestBoardFlow(t *testing.T) {
	s := newTestServer(t)
	board, todo, done := s.seedBoard(t)

	var cards [3]models.Card
	for i := range cards {
		path := fmt.Sprintf("/columns/%d/cards", todo.ID)
		require.Equal(t, http.StatusCreated, s.do(t, 1, http.MethodPost, path, gin.H{"title": fmt.Sprintf("T%d", i)}, &cards[i]))
	}

	var moved models.Card
	status := s.do(t, 1, http.MethodPost, fmt.Sprintf("/cards/%d/move", cards[1].ID), gin.H{"column_id": done.ID, "order": 0}, &moved)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, done.ID, moved.ColumnID)

	var detail models.BoardDetail
	require.Equal(t, http.StatusOK, s.do(t, 1, http.MethodGet, fmt.Sprintf("/boards/%d", board.ID), nil, &detail))
	require.Len(t, detail.Columns, 2)
	require.Len(t, detail.Columns[0].Cards, 2)
	assert.Equal(t, "T0", detail.Columns[0].Cards[0].Title)
	assert.Equal(t, "T2", detail.Columns[0].Cards[1].Title)
	assert.Equal(t, 1, detail.Columns[0].Cards[1].Order)
	require.Len(t, detail.Columns[1].Cards, 1)
	assert.Equal(t, "T1", detail.Columns[1].Cards[0].Title)

	var reordered models.Column
	require.Equal(t, http.StatusOK, s.do(t, 1, http.MethodPost, fmt.Sprintf("/columns/%d/reorder", done.ID), gin.H{"order": 0}, &reordered))
	assert.Equal(t, 0, reordered.Order)

	testutil.AssertBoardDense(t, s.app.Repo(), board.ID)
}

func TestErrorStatuses(t *testing.T) {
	s := newTestServer(t)
	board, todo, _ := s.seedBoard(t)
	require.Equal(t, http.StatusCreated, s.do(t, 1, http.MethodPost, fmt.Sprintf("/boards/%d/members", board.ID), gin.H{"user_id": 2, "role": "MEMBER"}, nil))

	var card models.Card
	require.Equal(t, http.StatusCreated, s.do(t, 1, http.MethodPost, fmt.Sprintf("/columns/%d/cards", todo.ID), gin.H{"title": "x"}, &card))

	var other models.Board
	require.Equal(t, http.StatusCreated, s.do(t, 1, http.MethodPost, "/boards", gin.H{"name": "Other"}, &other))
	var foreign models.Column
	require.Equal(t, http.StatusCreated, s.do(t, 1, http.MethodPost, fmt.Sprintf("/boards/%d/columns", other.ID), gin.H{"title": "F"}, &foreign))

	tests := []struct {
		name   string
		user   int
		method string
		path   string
		body   any
		want   int
	}{
		{"stranger reads board", 3, http.MethodGet, fmt.Sprintf("/boards/%d", board.ID), nil, http.StatusNotFound},
		{"missing board", 3, http.MethodGet, "/boards/9999", nil, http.StatusNotFound},
		{"member edits board", 2, http.MethodPost, fmt.Sprintf("/boards/%d/columns", board.ID), gin.H{"title": "x"}, http.StatusForbidden},
		{"member reads board", 2, http.MethodGet, fmt.Sprintf("/boards/%d", board.ID), nil, http.StatusOK},
		{"bad id", 1, http.MethodGet, "/boards/abc", nil, http.StatusBadRequest},
		{"missing body field", 1, http.MethodPost, fmt.Sprintf("/cards/%d/move", card.ID), gin.H{"column_id": todo.ID}, http.StatusBadRequest},
		{"foreign column", 1, http.MethodPost, fmt.Sprintf("/cards/%d/move", card.ID), gin.H{"column_id": foreign.ID, "order": 0}, http.StatusBadRequest},
		{"order out of range", 1, http.MethodPost, fmt.Sprintf("/cards/%d/move", card.ID), gin.H{"column_id": todo.ID, "order": 7}, http.StatusBadRequest},
		{"duplicate member", 1, http.MethodPost, fmt.Sprintf("/boards/%d/members", board.ID), gin.H{"user_id": 2, "role": "MEMBER"}, http.StatusConflict},
		{"unsafe chat", 2, http.MethodPost, fmt.Sprintf("/boards/%d/messages", board.ID), gin.H{"text": "<b>hi</b>"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.do(t, tt.user, tt.method, tt.path, tt.body, nil))
		})
	}
}

func TestChat(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) {
		cfg.RateLimit.Limits["chat_send"] = 2
	})
	board, _, _ := s.seedBoard(t)
	path := fmt.Sprintf("/boards/%d/messages", board.ID)

	var sent models.ChatMessage
	require.Equal(t, http.StatusCreated, s.do(t, 1, http.MethodPost, path, gin.H{"text": "hello"}, &sent))
	assert.Equal(t, "hello", sent.Text)
	require.Equal(t, http.StatusCreated, s.do(t, 1, http.MethodPost, path, gin.H{"text": "again"}, nil))
	assert.Equal(t, http.StatusTooManyRequests, s.do(t, 1, http.MethodPost, path, gin.H{"text": "spam"}, nil))

	var msgs []models.ChatMessage
	require.Equal(t, http.StatusOK, s.do(t, 1, http.MethodGet, path, nil, &msgs))
	require.Len(t, msgs, 2)
	assert.Equal(t, "hello", msgs[0].Text)
	assert.Equal(t, "again", msgs[1].Text)

	assert.Equal(t, http.StatusNotFound, s.do(t, 5, http.MethodGet, path, nil, nil))
}

// ============================================================================
// WEBSOCKET
// ============================================================================

func dialWS(t *testing.T, s *testServer, user int) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(s.URL, "http") + fmt.Sprintf("/ws?user_id=%d", user)
	ws, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func readFrame(t *testing.T, ws *websocket.Conn) events.Message {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(3*time.Second)))
	var msg events.Message
	require.NoError(t, ws.ReadJSON(&msg))
	return msg
}

func TestWebsocket_ReceivesBoardEvents(t *testing.T) {
	s := newTestServer(t)
	board, todo, _ := s.seedBoard(t)

	ws := dialWS(t, s, 1)
	require.NoError(t, ws.WriteJSON(events.Message{Type: events.FrameJoin, BoardID: board.ID}))
	joined := readFrame(t, ws)
	require.Equal(t, events.FrameJoined, joined.Type)
	assert.Equal(t, board.ID, joined.BoardID)

	require.Equal(t, http.StatusCreated, s.do(t, 1, http.MethodPost, fmt.Sprintf("/columns/%d/cards", todo.ID), gin.H{"title": "live"}, nil))

	frame := readFrame(t, ws)
	require.Equal(t, events.FrameEvent, frame.Type)
	require.NotNil(t, frame.Event)
	assert.Equal(t, events.CardCreated, frame.Event.Kind)
	assert.EqualValues(t, 1, frame.Event.Seq)

	var payload events.CardPayload
	require.NoError(t, frame.Event.Decode(&payload))
	assert.Equal(t, "live", payload.Card.Title)

	require.NoError(t, ws.WriteJSON(events.Message{Type: events.FrameLeave, BoardID: board.ID}))
	assert.Equal(t, events.FrameLeft, readFrame(t, ws).Type)
	assert.Eventually(t, func() bool { return s.app.Hub.Subscribers(board.ID) == 0 }, time.Second, 10*time.Millisecond)
}

func TestWebsocket_JoinRules(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) {
		cfg.RateLimit.Limits["topic_join"] = 2
		cfg.Realtime.RequireMembershipOnJoin = true
	})
	board, _, _ := s.seedBoard(t)

	stranger := dialWS(t, s, 9)
	require.NoError(t, stranger.WriteJSON(events.Message{Type: events.FrameJoin, BoardID: board.ID}))
	assert.Equal(t, events.FrameError, readFrame(t, stranger).Type)

	owner := dialWS(t, s, 1)
	for i := 0; i < 2; i++ {
		require.NoError(t, owner.WriteJSON(events.Message{Type: events.FrameJoin, BoardID: board.ID}))
		assert.Equal(t, events.FrameJoined, readFrame(t, owner).Type)
	}
	require.NoError(t, owner.WriteJSON(events.Message{Type: events.FrameJoin, BoardID: board.ID}))
	limited := readFrame(t, owner)
	assert.Equal(t, events.FrameError, limited.Type)
	assert.Equal(t, models.ErrRateLimited.Error(), limited.Error)

	require.NoError(t, owner.WriteJSON(map[string]string{"type": "shout"}))
	assert.Equal(t, events.FrameError, readFrame(t, owner).Type)
}
