package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thenoetrevino/tablero/internal/models"
	cardservice "github.com/thenoetrevino/tablero/internal/services/card"
	"github.com/thenoetrevino/tablero/internal/types"
)

type cardController struct {
	svc cardservice.Service
}

type createCardRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Order       *int   `json:"order"`
}

type updateCardRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

type moveCardRequest struct {
	ColumnID int  `json:"column_id" binding:"required"`
	Order    *int `json:"order" binding:"required"`
}

func (h *cardController) list(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	cards, err := h.svc.ListCards(c.Request.Context(), types.ColumnID(id), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if cards == nil {
		cards = []*models.Card{}
	}
	c.JSON(http.StatusOK, cards)
}

func (h *cardController) create(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req createCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	card, err := h.svc.CreateCard(c.Request.Context(), cardservice.CreateCardRequest{
		ColumnID:    types.ColumnID(id),
		ActorID:     actor(c),
		Title:       req.Title,
		Description: req.Description,
		Order:       req.Order,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, card)
}

func (h *cardController) get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	card, err := h.svc.GetCard(c.Request.Context(), types.CardID(id), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, card)
}

func (h *cardController) update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req updateCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	card, err := h.svc.UpdateCard(c.Request.Context(), cardservice.UpdateCardRequest{
		CardID:      types.CardID(id),
		ActorID:     actor(c),
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, card)
}

func (h *cardController) delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteCard(c.Request.Context(), types.CardID(id), actor(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *cardController) move(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req moveCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	card, err := h.svc.MoveCard(c.Request.Context(), cardservice.MoveCardRequest{
		CardID:       types.CardID(id),
		ActorID:      actor(c),
		DestColumnID: types.ColumnID(req.ColumnID),
		DestOrder:    *req.Order,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, card)
}
