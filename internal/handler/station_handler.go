package handler

import (
	"fmt"

	"hallpass-service/internal/service"
	"hallpass-service/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StationHandler takes card swipes from room and station kiosks
type StationHandler struct {
	stations *service.StationService
	logger   *zap.Logger
}

func NewStationHandler(stations *service.StationService, logger *zap.Logger) *StationHandler {
	return &StationHandler{stations: stations, logger: logger}
}

type SwipeRequest struct {
	StudentID string `json:"student_id" binding:"required,max=50"`
}

func (h *StationHandler) Swipe(c *gin.Context) {
	var req SwipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	result, err := h.stations.Swipe(c.Param("room"), req.StudentID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.MessageDataResponse(c, fmt.Sprintf("%s: %s", result.Action, displayName(result.Pass)), result)
}

// Open is called when a kiosk console starts and marks its room active
func (h *StationHandler) Open(c *gin.Context) {
	room, err := h.stations.Open(c.Param("room"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.MessageDataResponse(c, fmt.Sprintf("%s is open", room.Name), room)
}

// Close is called when a kiosk console shuts down and marks its room inactive
func (h *StationHandler) Close(c *gin.Context) {
	room, err := h.stations.Close(c.Param("room"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.MessageDataResponse(c, fmt.Sprintf("%s is closed", room.Name), room)
}
