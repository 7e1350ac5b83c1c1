package handler

import (
	"fmt"
	"net/http"

	"hallpass-service/internal/middleware"
	"hallpass-service/internal/models"
	"hallpass-service/internal/service"
	"hallpass-service/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PassHandler serves the student-facing endpoints
type PassHandler struct {
	store     *service.PassStore
	projector *service.Projector
	logger    *zap.Logger
}

func NewPassHandler(store *service.PassStore, projector *service.Projector, logger *zap.Logger) *PassHandler {
	return &PassHandler{
		store:     store,
		projector: projector,
		logger:    logger,
	}
}

type requestPassForm struct {
	StudentID string `form:"student_id" binding:"omitempty,max=50"`
	Room      string `form:"room" binding:"omitempty,max=100,roomname"`
}

// GetOccupancy returns the free/taken/pending slots of every active room
func (h *PassHandler) GetOccupancy(c *gin.Context) {
	rows, err := h.projector.Occupancy(c.GetString(middleware.ContextUserID))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.JSONResponse(c, rows)
}

// RequestPass asks for a new pass, or asks to come back when the student
// is already out.
func (h *PassHandler) RequestPass(c *gin.Context) {
	var form requestPassForm
	if err := c.ShouldBind(&form); err != nil {
		bindError(c, err)
		return
	}

	studentID := c.GetString(middleware.ContextUserID)
	if form.StudentID != "" && form.StudentID != studentID {
		utils.ErrorResponse(c, http.StatusForbidden, "You can only request passes for yourself")
		return
	}

	if open := h.store.OpenPass(studentID); open != nil && open.Status == models.StatusActive {
		if _, err := h.store.RequestReturn(studentID, open.ID); err != nil {
			respondError(c, h.logger, err)
			return
		}
		utils.MessageResponse(c, "Return requested, wait for check-in")
		return
	}

	pass, err := h.store.Create(service.NewPass{
		StudentID: studentID,
		Room:      form.Room,
		Actor:     studentID,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.MessageDataResponse(c, fmt.Sprintf("Pass to %s requested", pass.RoomName), pass)
}

// MyStatus returns the caller's current period and open pass
func (h *PassHandler) MyStatus(c *gin.Context) {
	status, err := h.projector.StudentStatus(c.GetString(middleware.ContextUserID))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.JSONResponse(c, status)
}
