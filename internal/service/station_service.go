package service

import (
	"fmt"
	"strings"
	"time"

	"hallpass-service/internal/models"

	"go.uber.org/zap"
)

// reentryDelay is how long a kiosk ignores a swipe back into the station the
// student just swiped out of.
const reentryDelay = 30 * time.Second

// SwipeResult reports what a kiosk swipe did.
type SwipeResult struct {
	Action string       `json:"action"`
	Pass   *models.Pass `json:"pass"`
}

// StationService turns kiosk card swipes into pass events.
type StationService struct {
	store  *PassStore
	rooms  *RoomRegistry
	logger *zap.Logger
}

func NewStationService(store *PassStore, rooms *RoomRegistry, logger *zap.Logger) *StationService {
	return &StationService{store: store, rooms: rooms, logger: logger}
}

// Swipe applies a swipe at the named room or station.
//
// With no open pass, a classroom swipe checks the student out on an active
// pass to that room. On an open pass a station swipe records check-in, then
// check-out. A swipe at the pass's own room checks the student in, and so
// does a classroom swipe once a station-bound pass has left its station.
func (s *StationService) Swipe(roomName, studentID string) (*SwipeResult, error) {
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return nil, validationError("student_id is required")
	}
	room, err := s.rooms.Get(roomName)
	if err != nil {
		return nil, err
	}
	actor := kioskActor(room.Name)

	open := s.store.OpenPass(studentID)
	if open == nil {
		if room.Type == models.RoomTypeStation {
			return nil, notFoundError("%s has no open pass to use %s", studentID, room.Name)
		}
		pass, err := s.store.Create(NewPass{StudentID: studentID, Room: room.Name, SelfCheckout: true, Actor: actor})
		if err != nil {
			return nil, err
		}
		return s.done(room, studentID, "checkout", pass), nil
	}
	if open.Status == models.StatusPendingStart {
		return nil, conflictError("pass %d is waiting for approval", open.ID)
	}

	var (
		action string
		pass   *models.Pass
	)
	switch {
	case room.Type == models.RoomTypeStation && open.StationInTime == nil:
		action = "station_in"
		pass, err = s.store.RecordStationIn(actor, open.ID, room.ID)
	case room.Type == models.RoomTypeStation && open.StationOutTime == nil:
		action = "station_out"
		pass, err = s.store.RecordStationOut(actor, open.ID)
	case room.Type == models.RoomTypeStation && room.ID == open.RoomID:
		if wait := s.reentryWait(open); wait > 0 {
			return nil, conflictError("already swiped out of %s, wait %ds", room.Name, int(wait.Seconds()+0.5))
		}
		action = "checkin"
		pass, err = s.store.Complete(actor, open.ID)
	case room.Type == models.RoomTypeStation:
		return nil, conflictError("pass %d already passed through a station", open.ID)
	case room.ID == open.RoomID:
		action = "checkin"
		pass, err = s.store.Complete(actor, open.ID)
	case s.leftStation(open):
		action = "checkin"
		pass, err = s.store.Complete(actor, open.ID)
	default:
		return nil, validationError("pass %d belongs to %s, not %s", open.ID, open.RoomName, room.Name)
	}
	if err != nil {
		return nil, err
	}
	return s.done(room, studentID, action, pass), nil
}

// leftStation reports whether a pass bound for a station has been stamped
// out of it, so the student may check in at whichever classroom they return to.
func (s *StationService) leftStation(p *models.Pass) bool {
	return p.StationOutTime != nil && p.StationID != nil && *p.StationID == p.RoomID
}

func (s *StationService) reentryWait(p *models.Pass) time.Duration {
	if p.StationOutTime == nil {
		return 0
	}
	return reentryDelay - s.store.clock().Sub(*p.StationOutTime)
}

// Open marks the kiosk's room active when its console starts.
func (s *StationService) Open(roomName string) (*models.Room, error) {
	return s.setActive(roomName, true)
}

// Close marks the kiosk's room inactive when its console shuts down. Open
// passes to the room are not affected.
func (s *StationService) Close(roomName string) (*models.Room, error) {
	return s.setActive(roomName, false)
}

func (s *StationService) setActive(roomName string, active bool) (*models.Room, error) {
	room, err := s.rooms.SetActive(kioskActor(roomName), roomName, active)
	if err != nil {
		return nil, err
	}
	s.logger.Info("kiosk console",
		zap.String("room", room.Name),
		zap.Bool("active", active),
	)
	return room, nil
}

func (s *StationService) done(room *models.Room, studentID, action string, pass *models.Pass) *SwipeResult {
	s.logger.Info("kiosk swipe",
		zap.String("room", room.Name),
		zap.String("student_id", studentID),
		zap.String("action", action),
		zap.Uint("pass_id", pass.ID),
	)
	return &SwipeResult{Action: action, Pass: pass}
}

func kioskActor(roomName string) string {
	return fmt.Sprintf("kiosk:%s", roomName)
}
