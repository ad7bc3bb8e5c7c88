package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/thenoetrevino/tablero/internal/types"
)

const (
	// ActorHeader carries the identity verified by the upstream gateway
	ActorHeader = "X-User-ID"

	actorKey = "actor"
)

// requireActor rejects requests without a verified actor id.
// Websocket clients that cannot set headers may pass user_id in the query.
func requireActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(ActorHeader)
		if raw == "" {
			raw = c.Query("user_id")
		}
		id, ok := types.ParseUserID(raw)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errMissingActor.Error()})
			return
		}
		c.Set(actorKey, id)
		c.Next()
	}
}

// actor returns the id stored by requireActor
func actor(c *gin.Context) types.UserID {
	id, _ := c.Get(actorKey)
	userID, _ := id.(types.UserID)
	return userID
}

// requestLogger logs one line per request through slog
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := slog.LevelDebug
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		slog.Log(c.Request.Context(), level, "http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

// idParam parses a positive integer path parameter
func idParam(c *gin.Context, name string) (int, bool) {
	n, err := strconv.Atoi(c.Param(name))
	if err != nil || n <= 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return n, true
}
