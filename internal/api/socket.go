package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/thenoetrevino/tablero/internal/events"
	"github.com/thenoetrevino/tablero/internal/models"
	"github.com/thenoetrevino/tablero/internal/ratelimit"
	"github.com/thenoetrevino/tablero/internal/realtime"
)

const (
	defaultReadTimeout = 60 * time.Second
	maxFrameSize       = 4096
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// identity is verified upstream; origin policy belongs to the gateway
		return true
	},
}

// SocketController handles the websocket endpoint for board topics
type SocketController struct {
	hub             *realtime.Hub
	guard           ratelimit.Guard
	buffer          int
	inflightTimeout time.Duration
}

// NewSocketController creates the websocket handler. guard may be nil.
func NewSocketController(hub *realtime.Hub, guard ratelimit.Guard, buffer int) *SocketController {
	return &SocketController{
		hub:             hub,
		guard:           guard,
		buffer:          buffer,
		inflightTimeout: 5 * time.Second,
	}
}

// Handle upgrades HTTP connections to websocket and processes frames until the client disconnects.
func (ctl *SocketController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := actor(c)

		ws, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the response; just log and return.
			slog.Debug("websocket upgrade failed", "error", err)
			return
		}

		conn := realtime.NewConnection(userID, ws, ctl.buffer)
		ctl.hub.Attach(conn)
		conn.Start()
		defer func() {
			ctl.hub.Detach(conn)
			conn.Close(websocket.CloseNormalClosure, "session closed")
		}()

		ws.SetReadLimit(maxFrameSize)
		_ = ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		})

		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) &&
					!errors.Is(err, websocket.ErrCloseSent) {
					slog.Debug("websocket read ended", "conn", conn.ID(), "error", err)
				}
				return
			}

			var frame events.Message
			if err := json.Unmarshal(data, &frame); err != nil {
				ctl.replyError(conn, frame, "invalid payload")
				continue
			}

			switch frame.Type {
			case events.FrameJoin:
				ctl.handleJoin(c.Request.Context(), conn, frame)
			case events.FrameLeave:
				ctl.handleLeave(conn, frame)
			default:
				ctl.replyError(conn, frame, "unknown frame type")
			}
		}
	}
}

func (ctl *SocketController) handleJoin(parent context.Context, conn *realtime.Connection, frame events.Message) {
	if frame.BoardID <= 0 {
		ctl.replyError(conn, frame, "board_id is required")
		return
	}

	ctx, cancel := context.WithTimeout(parent, ctl.inflightTimeout)
	defer cancel()

	if ctl.guard != nil {
		allowed, err := ctl.guard.Allow(ctx, conn.UserID().String(), ratelimit.KindTopicJoin)
		if err != nil {
			slog.Warn("rate guard unavailable", "error", err)
			ctl.replyError(conn, frame, "internal error")
			return
		}
		if !allowed {
			ctl.replyError(conn, frame, models.ErrRateLimited.Error())
			return
		}
	}

	if err := ctl.hub.Join(ctx, frame.BoardID, conn); err != nil {
		if models.KindOf(err) == models.ErrNotFound {
			ctl.replyError(conn, frame, err.Error())
			return
		}
		slog.Warn("topic join failed", "board_id", frame.BoardID, "error", err)
		ctl.replyError(conn, frame, "internal error")
		return
	}

	_ = conn.SendJSON(events.Message{Type: events.FrameJoined, BoardID: frame.BoardID})
}

func (ctl *SocketController) handleLeave(conn *realtime.Connection, frame events.Message) {
	if frame.BoardID <= 0 {
		ctl.replyError(conn, frame, "board_id is required")
		return
	}
	ctl.hub.Leave(frame.BoardID, conn)
	_ = conn.SendJSON(events.Message{Type: events.FrameLeft, BoardID: frame.BoardID})
}

func (ctl *SocketController) replyError(conn *realtime.Connection, frame events.Message, message string) {
	_ = conn.SendJSON(events.Message{Type: events.FrameError, BoardID: frame.BoardID, Error: message})
}
