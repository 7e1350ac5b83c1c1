package handler

import (
	"hallpass-service/internal/middleware"
	"hallpass-service/internal/service"
	"hallpass-service/pkg/utils"

	"github.com/gin-gonic/gin"
)

// Handlers groups everything the router needs
type Handlers struct {
	Pass      *PassHandler
	Admin     *AdminHandler
	Room      *RoomHandler
	Station   *StationHandler
	Projector *service.Projector
}

// PollingPaths are hit every few seconds by every open browser
var PollingPaths = []string{
	"/passes",
	"/student_slot_view",
	"/my_status",
	"/admin_passes",
	"/admin_pending_passes",
	"/admin_pending_count",
}

// RegisterRoutes mounts the public, student, staff and kiosk routes
func RegisterRoutes(r *gin.Engine, h Handlers, stationKeyHash string) {
	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		utils.SuccessResponse(c, gin.H{
			"status":  "healthy",
			"service": "hallpass-service",
		})
	})

	// Public views, a token only personalises them
	public := r.Group("/")
	public.Use(middleware.OptionalAuth())
	{
		public.GET("/passes", h.Pass.GetOccupancy)
		public.GET("/student_slot_view", h.Pass.GetOccupancy)
		public.GET("/debug_period", DebugPeriod(h.Projector))
	}

	// Student routes
	student := r.Group("/")
	student.Use(middleware.AuthMiddleware(), middleware.RequireStudent())
	{
		student.POST("/request_pass", h.Pass.RequestPass)
		student.GET("/my_status", h.Pass.MyStatus)
	}

	// Staff routes
	staff := r.Group("/")
	staff.Use(middleware.AuthMiddleware(), middleware.RequireStaff())
	{
		staff.GET("/admin_passes", h.Admin.GetPasses)
		staff.GET("/admin_pending_passes", h.Admin.GetPendingPasses)
		staff.GET("/admin_pending_count", h.Admin.GetPendingCount)
		staff.GET("/admin_report/today", h.Admin.TodayReport)

		staff.POST("/admin/approve/:id", h.Admin.Approve)
		staff.POST("/admin/reject/:id", h.Admin.Reject)
		staff.POST("/admin/station_in/:id", h.Admin.StationIn)
		staff.POST("/admin/station_out/:id", h.Admin.StationOut)
		staff.POST("/admin_checkin/:id", h.Admin.Checkin)
		staff.POST("/admin_create_pass", h.Admin.CreatePass)
		staff.POST("/admin_add_note/:student_id", h.Admin.AddNote)

		staff.GET("/admin_rooms", h.Room.GetRooms)
		staff.POST("/admin_rooms", h.Room.CreateRoom)
		staff.PATCH("/admin_rooms", h.Room.ToggleRoom)
		staff.DELETE("/admin_rooms", h.Room.DeleteRoom)
		staff.POST("/admin_rooms/rename", h.Room.RenameRoom)
		staff.POST("/admin_rooms/reset", h.Room.ResetRoom)
		staff.GET("/admin_rooms/stats/:room", h.Room.GetRoomStats)
	}

	// Kiosk consoles
	kiosk := r.Group("/station/:room")
	kiosk.Use(middleware.StationKeyAuth(stationKeyHash))
	{
		kiosk.POST("/swipe", h.Station.Swipe)
		kiosk.POST("/open", h.Station.Open)
		kiosk.POST("/close", h.Station.Close)
	}
}

// DebugPeriod lists the bell schedule with the current window flagged
func DebugPeriod(projector *service.Projector) gin.HandlerFunc {
	return func(c *gin.Context) {
		utils.JSONResponse(c, projector.Periods())
	}
}
