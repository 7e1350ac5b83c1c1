package handler

import (
	"fmt"

	"hallpass-service/internal/models"
	"hallpass-service/internal/service"
	"hallpass-service/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RoomHandler struct {
	rooms     *service.RoomRegistry
	projector *service.Projector
	logger    *zap.Logger
}

func NewRoomHandler(rooms *service.RoomRegistry, projector *service.Projector, logger *zap.Logger) *RoomHandler {
	return &RoomHandler{
		rooms:     rooms,
		projector: projector,
		logger:    logger,
	}
}

type CreateRoomRequest struct {
	Room     string          `json:"room" binding:"required,max=100,roomname"`
	Type     models.RoomType `json:"type" binding:"omitempty,oneof=room station"`
	Capacity int             `json:"capacity" binding:"min=0,max=50"`
}

type ToggleRoomRequest struct {
	Room   string `json:"room" binding:"required"`
	Active *bool  `json:"active" binding:"required"`
}

type RoomRequest struct {
	Room string `json:"room" form:"room" binding:"required"`
}

type RenameRoomRequest struct {
	Old string `json:"old" binding:"required"`
	New string `json:"new" binding:"required,max=100,roomname"`
}

// GetRooms lists every room with its slot counters
func (h *RoomHandler) GetRooms(c *gin.Context) {
	utils.JSONResponse(c, h.projector.AdminRooms())
}

// CreateRoom adds a room or station
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	room, err := h.rooms.Create(actor(c), req.Room, req.Type, req.Capacity)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.MessageDataResponse(c, fmt.Sprintf("Added %s", room.Name), room)
}

// ToggleRoom activates or deactivates a room
func (h *RoomHandler) ToggleRoom(c *gin.Context) {
	var req ToggleRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	room, err := h.rooms.SetActive(actor(c), req.Room, *req.Active)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	state := "inactive"
	if room.IsActive {
		state = "active"
	}
	utils.MessageResponse(c, fmt.Sprintf("%s is now %s", room.Name, state))
}

// DeleteRoom removes a room with no open passes. The name may come in the
// JSON body or the query string.
func (h *RoomHandler) DeleteRoom(c *gin.Context) {
	var req RoomRequest
	if err := c.ShouldBind(&req); err != nil {
		if req.Room = c.Query("room"); req.Room == "" {
			bindError(c, err)
			return
		}
	}
	if err := h.rooms.Delete(actor(c), req.Room); err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.MessageResponse(c, fmt.Sprintf("Deleted %s", req.Room))
}

func (h *RoomHandler) RenameRoom(c *gin.Context) {
	var req RenameRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	room, err := h.rooms.Rename(actor(c), req.Old, req.New)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.MessageResponse(c, fmt.Sprintf("Renamed %s to %s", req.Old, room.Name))
}

// ResetRoom clears today's finished passes from the room's view
func (h *RoomHandler) ResetRoom(c *gin.Context) {
	var req RoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	cleared, err := h.rooms.ResetToday(actor(c), req.Room)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.MessageResponse(c, fmt.Sprintf("Cleared %d pass(es) from %s", cleared, req.Room))
}

func (h *RoomHandler) GetRoomStats(c *gin.Context) {
	stats, err := h.rooms.Stats(c.Param("room"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.JSONResponse(c, stats)
}
