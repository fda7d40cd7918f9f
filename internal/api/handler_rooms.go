package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"facility-asset-backend/internal/model"
)

// ListRooms handles GET /api/rooms.
func (h *Handler) ListRooms(c *gin.Context) {
	rooms, err := h.store.ListRooms(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rooms)
}

type createRoomPayload struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// CreateRoom handles POST /api/rooms.
func (h *Handler) CreateRoom(c *gin.Context) {
	var payload createRoomPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	room := model.Room{Name: payload.Name, Description: payload.Description}
	if err := h.store.CreateRoom(c.Request.Context(), &room); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, room)
}
