package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thenoetrevino/tablero/internal/models"
	boardservice "github.com/thenoetrevino/tablero/internal/services/board"
	"github.com/thenoetrevino/tablero/internal/types"
)

type boardController struct {
	svc boardservice.Service
}

type createBoardRequest struct {
	Name string `json:"name" binding:"required"`
}

type memberRequest struct {
	UserID int    `json:"user_id"`
	Role   string `json:"role" binding:"required"`
}

func (h *boardController) create(c *gin.Context) {
	var req createBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	board, err := h.svc.CreateBoard(c.Request.Context(), req.Name, actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, board)
}

func (h *boardController) list(c *gin.Context) {
	boards, err := h.svc.ListBoards(c.Request.Context(), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if boards == nil {
		boards = []*models.Board{}
	}
	c.JSON(http.StatusOK, boards)
}

func (h *boardController) get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	detail, err := h.svc.GetBoard(c.Request.Context(), types.BoardID(id), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *boardController) delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteBoard(c.Request.Context(), types.BoardID(id), actor(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *boardController) listMembers(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	members, err := h.svc.ListMembers(c.Request.Context(), types.BoardID(id), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if members == nil {
		members = []*models.BoardMember{}
	}
	c.JSON(http.StatusOK, members)
}

func (h *boardController) addMember(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req memberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	member, err := h.svc.AddMember(c.Request.Context(), boardservice.MemberRequest{
		BoardID: types.BoardID(id),
		ActorID: actor(c),
		UserID:  types.UserID(req.UserID),
		Role:    models.Role(req.Role),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, member)
}

func (h *boardController) updateMember(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	userID, ok := idParam(c, "user")
	if !ok {
		return
	}
	var req memberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	member, err := h.svc.UpdateMemberRole(c.Request.Context(), boardservice.MemberRequest{
		BoardID: types.BoardID(id),
		ActorID: actor(c),
		UserID:  types.UserID(userID),
		Role:    models.Role(req.Role),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}

func (h *boardController) removeMember(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	userID, ok := idParam(c, "user")
	if !ok {
		return
	}
	if err := h.svc.RemoveMember(c.Request.Context(), types.BoardID(id), actor(c), types.UserID(userID)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
