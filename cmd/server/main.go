package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hallpass-service/internal/config"
	"hallpass-service/internal/database"
	"hallpass-service/internal/handler"
	"hallpass-service/internal/middleware"
	"hallpass-service/internal/repository"
	"hallpass-service/internal/service"
	"hallpass-service/pkg/logger"
	"hallpass-service/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// 1. Load configuration
	cfg := config.LoadConfig()

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "hallpass-service")
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()
	log.Info("configuration loaded",
		zap.String("storage", cfg.Database.Backend),
		zap.String("timezone", cfg.Hall.Location.String()),
	)

	// 2. Initialize JWT utilities with config
	utils.InitJWT(cfg.JWT.AccessSecret, cfg.JWT.AccessTokenExpiry)

	// 3. Parse the configured bell schedule
	configuredWindows, err := service.ParsePeriodSchedule(cfg.Hall.PeriodSchedule)
	if err != nil {
		log.Fatal("invalid PERIOD_SCHEDULE", zap.Error(err))
	}

	// 4. Initialize storage and repositories
	var (
		passPersister service.PassPersister = service.NopPersister{}
		roomPersister service.RoomPersister = service.NopPersister{}
		auditWriter   service.AuditWriter   = service.NopPersister{}
		roster        service.Roster        = service.OpenRoster{}
		scheduleSrc   service.ScheduleSource
		passRepo      *repository.PassRepository
		roomRepo      *repository.RoomRepository
	)
	switch cfg.Database.Backend {
	case "mysql":
		db, err := database.Connect(cfg, log)
		if err != nil {
			log.Fatal("database unavailable", zap.Error(err))
		}
		passRepo = repository.NewPassRepo(db)
		roomRepo = repository.NewRoomRepo(db)
		passPersister = passRepo
		roomPersister = roomRepo
		auditWriter = repository.NewAuditRepo(db)
		roster = repository.NewStudentRepo(db)
		scheduleSrc = &service.FallbackSchedule{
			Primary:  repository.NewScheduleRepo(db),
			Fallback: configuredWindows,
		}
	case "memory":
		log.Warn("using in-memory storage, state is lost on restart")
		scheduleSrc = &service.StaticSchedule{Windows: configuredWindows}
	default:
		log.Fatal("unknown STORAGE_BACKEND", zap.String("backend", cfg.Database.Backend))
	}

	// 5. Initialize services
	schedule := service.NewScheduleMatcher(scheduleSrc, cfg.Hall.Location)
	if err := schedule.Reload(); err != nil {
		log.Fatal("failed to load bell schedule", zap.Error(err))
	}

	rooms := service.NewRoomRegistry(service.RegistryOptions{
		Persister:    roomPersister,
		Audit:        auditWriter,
		Logger:       log,
		Location:     cfg.Hall.Location,
		StationSlots: cfg.Hall.StationSlots,
		RoomSlots:    cfg.Hall.RoomSlots,
	})
	store := service.NewPassStore(service.StoreOptions{
		Rooms:     rooms,
		Schedule:  schedule,
		Roster:    roster,
		Persister: passPersister,
		Audit:     auditWriter,
		Logger:    log,
	})

	if roomRepo != nil {
		if err := loadState(rooms, store, roomRepo, passRepo, cfg); err != nil {
			log.Fatal("failed to load state", zap.Error(err))
		}
	}

	projector := service.NewProjector(store, rooms, schedule, nil, cfg.Hall.Location)
	reports := service.NewReportService(projector, cfg.Hall.Location)
	stations := service.NewStationService(store, rooms, log)

	rolloverHour, rolloverMinute, err := cfg.Hall.ParseRollover()
	if err != nil {
		log.Fatal("invalid rollover time", zap.Error(err))
	}
	workerService := service.NewWorkerService(store, schedule, log, cfg.Hall.Location, rolloverHour, rolloverMinute)

	// 6. Start background worker in goroutine
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := workerService.Start(ctx); err != nil {
			log.Error("background worker failed", zap.Error(err))
		}
	}()

	// 7. Setup Gin mode
	gin.SetMode(cfg.Server.GinMode)
	if err := middleware.RegisterValidators(); err != nil {
		log.Fatal("failed to register validators", zap.Error(err))
	}

	// 8. Setup Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log, handler.PollingPaths...))
	r.Use(middleware.CORS(cfg))

	// 9. Register handlers and routes
	handler.RegisterRoutes(r, handler.Handlers{
		Pass:      handler.NewPassHandler(store, projector, log),
		Admin:     handler.NewAdminHandler(store, rooms, projector, reports, log),
		Room:      handler.NewRoomHandler(rooms, projector, log),
		Station:   handler.NewStationHandler(stations, log),
		Projector: projector,
	}, cfg.Hall.StationKeyHash)

	// 10. Setup graceful shutdown
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", zap.Error(err))
	}

	// Cancel background worker context
	cancel()
	log.Info("server exited")
}

// loadState seeds the in-memory registry and store from MySQL
func loadState(rooms *service.RoomRegistry, store *service.PassStore, roomRepo *repository.RoomRepository, passRepo *repository.PassRepository, cfg *config.Config) error {
	stored, err := roomRepo.GetAllRooms()
	if err != nil {
		return err
	}
	maxRoomID, err := roomRepo.GetMaxReferencedID()
	if err != nil {
		return err
	}
	if err := rooms.Load(stored, maxRoomID); err != nil {
		return err
	}

	now := time.Now().In(cfg.Hall.Location)
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, cfg.Hall.Location)
	passes, err := passRepo.GetWorkingSet(midnight)
	if err != nil {
		return err
	}
	maxID, err := passRepo.GetMaxID()
	if err != nil {
		return err
	}
	return store.Load(passes, maxID)
}
