// Package api exposes the board engine over HTTP and websockets.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/thenoetrevino/tablero/internal/app"
)

// Server routes HTTP requests to the application services
type Server struct {
	app    *app.App
	engine *gin.Engine
	socket *SocketController
}

// NewServer builds the router for a
func NewServer(a *app.App) *Server {
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())

	s := &Server{
		app:    a,
		engine: engine,
		socket: NewSocketController(a.Hub, a.Guard, a.Config().Realtime.ClientBuffer),
	}
	s.routes()
	return s
}

// Handler returns the root http.Handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	s.engine.GET("/healthz", s.healthz)
	s.engine.GET("/metrics", s.metrics)

	boards := &boardController{svc: s.app.BoardService}
	columns := &columnController{svc: s.app.ColumnService}
	cards := &cardController{svc: s.app.CardService}
	chat := &chatController{svc: s.app.ChatService}

	g := s.engine.Group("/", requireActor())

	g.POST("/boards", boards.create)
	g.GET("/boards", boards.list)
	g.GET("/boards/:id", boards.get)
	g.DELETE("/boards/:id", boards.delete)

	g.GET("/boards/:id/members", boards.listMembers)
	g.POST("/boards/:id/members", boards.addMember)
	g.PATCH("/boards/:id/members/:user", boards.updateMember)
	g.DELETE("/boards/:id/members/:user", boards.removeMember)

	g.GET("/boards/:id/columns", columns.list)
	g.POST("/boards/:id/columns", columns.create)
	g.PATCH("/columns/:id", columns.update)
	g.DELETE("/columns/:id", columns.delete)
	g.POST("/columns/:id/reorder", columns.reorder)

	g.GET("/columns/:id/cards", cards.list)
	g.POST("/columns/:id/cards", cards.create)
	g.GET("/cards/:id", cards.get)
	g.PATCH("/cards/:id", cards.update)
	g.DELETE("/cards/:id", cards.delete)
	g.POST("/cards/:id/move", cards.move)

	g.GET("/boards/:id/messages", chat.list)
	g.POST("/boards/:id/messages", chat.send)

	g.GET("/ws", s.socket.Handle())
}

func (s *Server) healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := s.app.Repo().Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

func (s *Server) metrics(c *gin.Context) {
	c.JSON(http.StatusOK, s.app.Hub.Snapshot())
}
