package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thenoetrevino/tablero/internal/models"
	columnservice "github.com/thenoetrevino/tablero/internal/services/column"
	"github.com/thenoetrevino/tablero/internal/types"
)

type columnController struct {
	svc columnservice.Service
}

type createColumnRequest struct {
	Title string `json:"title" binding:"required"`
	Order *int   `json:"order"`
}

type updateColumnRequest struct {
	Title string `json:"title" binding:"required"`
}

type reorderRequest struct {
	Order *int `json:"order" binding:"required"`
}

func (h *columnController) list(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	columns, err := h.svc.ListColumns(c.Request.Context(), types.BoardID(id), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if columns == nil {
		columns = []*models.Column{}
	}
	c.JSON(http.StatusOK, columns)
}

func (h *columnController) create(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req createColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	column, err := h.svc.CreateColumn(c.Request.Context(), columnservice.CreateColumnRequest{
		BoardID: types.BoardID(id),
		ActorID: actor(c),
		Title:   req.Title,
		Order:   req.Order,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, column)
}

func (h *columnController) update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req updateColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	column, err := h.svc.UpdateColumn(c.Request.Context(), columnservice.UpdateColumnRequest{
		ColumnID: types.ColumnID(id),
		ActorID:  actor(c),
		Title:    req.Title,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, column)
}

func (h *columnController) delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteColumn(c.Request.Context(), types.ColumnID(id), actor(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *columnController) reorder(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	column, err := h.svc.ReorderColumn(c.Request.Context(), types.ColumnID(id), actor(c), *req.Order)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, column)
}
