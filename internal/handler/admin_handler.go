package handler

import (
	"fmt"
	"net/http"

	"hallpass-service/internal/models"
	"hallpass-service/internal/service"
	"hallpass-service/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AdminHandler serves the pass queue and pass transitions for staff
type AdminHandler struct {
	store     *service.PassStore
	rooms     *service.RoomRegistry
	projector *service.Projector
	reports   *service.ReportService
	logger    *zap.Logger
}

func NewAdminHandler(
	store *service.PassStore,
	rooms *service.RoomRegistry,
	projector *service.Projector,
	reports *service.ReportService,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		store:     store,
		rooms:     rooms,
		projector: projector,
		reports:   reports,
		logger:    logger,
	}
}

type CreatePassRequest struct {
	StudentID string `json:"student_id" binding:"required,max=50"`
	Room      string `json:"room" binding:"omitempty,max=100,roomname"`
	Period    string `json:"period" binding:"omitempty,max=20"`
	Note      string `json:"note" binding:"omitempty,max=1000"`
}

type NoteRequest struct {
	Note string `json:"note" binding:"max=1000"`
}

type StationRequest struct {
	Station string `json:"station" binding:"required,max=100"`
}

func (h *AdminHandler) GetPasses(c *gin.Context) {
	utils.JSONResponse(c, h.projector.AdminPasses())
}

func (h *AdminHandler) GetPendingPasses(c *gin.Context) {
	utils.JSONResponse(c, h.projector.PendingPasses())
}

func (h *AdminHandler) GetPendingCount(c *gin.Context) {
	utils.JSONResponse(c, h.projector.PendingCount())
}

// Approve starts a requested pass
func (h *AdminHandler) Approve(c *gin.Context) {
	id, ok := parsePassID(c)
	if !ok {
		return
	}
	pass, err := h.store.Approve(actor(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.MessageResponse(c, fmt.Sprintf("Approved pass for %s", displayName(pass)))
}

// Reject declines a requested pass
func (h *AdminHandler) Reject(c *gin.Context) {
	id, ok := parsePassID(c)
	if !ok {
		return
	}
	pass, err := h.store.Reject(actor(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.MessageResponse(c, fmt.Sprintf("Rejected pass for %s", displayName(pass)))
}

// Checkin completes a pass by hand
func (h *AdminHandler) Checkin(c *gin.Context) {
	id, ok := parsePassID(c)
	if !ok {
		return
	}
	pass, err := h.store.Complete(actor(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.MessageResponse(c, fmt.Sprintf("%s checked in after %s", displayName(pass), service.FormatSeconds(pass.TotalSeconds)))
}

// StationIn records arrival at a station on the student's behalf
func (h *AdminHandler) StationIn(c *gin.Context) {
	id, ok := parsePassID(c)
	if !ok {
		return
	}
	var req StationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	station, err := h.rooms.Get(req.Station)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if station.Type != models.RoomTypeStation {
		utils.ErrorResponse(c, http.StatusBadRequest, fmt.Sprintf("%s is not a station", station.Name))
		return
	}
	pass, err := h.store.RecordStationIn(actor(c), id, station.ID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.MessageResponse(c, fmt.Sprintf("%s arrived at %s", displayName(pass), station.Name))
}

// StationOut records leaving the station
func (h *AdminHandler) StationOut(c *gin.Context) {
	id, ok := parsePassID(c)
	if !ok {
		return
	}
	pass, err := h.store.RecordStationOut(actor(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.MessageResponse(c, fmt.Sprintf("%s left the station", displayName(pass)))
}

// CreatePass issues an override pass that starts immediately
func (h *AdminHandler) CreatePass(c *gin.Context) {
	var req CreatePassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	pass, err := h.store.Create(service.NewPass{
		StudentID: req.StudentID,
		Room:      req.Room,
		Period:    req.Period,
		Note:      req.Note,
		Override:  true,
		Actor:     actor(c),
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.MessageDataResponse(c, fmt.Sprintf("Override pass for %s to %s created", displayName(pass), pass.RoomName), pass)
}

// AddNote sets the note on the student's latest pass
func (h *AdminHandler) AddNote(c *gin.Context) {
	var req NoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	pass, err := h.store.AttachNote(actor(c), c.Param("student_id"), req.Note)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.MessageResponse(c, fmt.Sprintf("Note saved for %s", displayName(pass)))
}

// TodayReport downloads today's passes as a spreadsheet
func (h *AdminHandler) TodayReport(c *gin.Context) {
	data, err := h.reports.TodayWorkbook()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="passes-today.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}

func displayName(p *models.Pass) string {
	if p.StudentName != "" {
		return p.StudentName
	}
	return p.StudentID
}
