package service

import (
	"fmt"
	"time"

	"hallpass-service/internal/models"
)

// Snapshot is a consistent copy of rooms and passes taken under both locks.
type Snapshot struct {
	Rooms  []models.Room
	Passes []models.Pass
	Now    time.Time
}

// PassView is one row of the admin pass table.
type PassView struct {
	ID             uint       `json:"id"`
	StudentID      string     `json:"student_id"`
	StudentName    string     `json:"student_name"`
	RoomID         uint       `json:"room_id"`
	Room           string     `json:"room"`
	Station        string     `json:"station,omitempty"`
	Status         string     `json:"status"`
	Period         *string    `json:"period"`
	IsOverride     bool       `json:"is_override"`
	Note           string     `json:"note"`
	CreatedAt      time.Time  `json:"created_at"`
	CheckoutTime   *time.Time `json:"checkout_time"`
	StationInTime  *time.Time `json:"station_in_time"`
	StationOutTime *time.Time `json:"station_out_time"`
	CompletedTime  *time.Time `json:"completed_time"`
	ElapsedSeconds int        `json:"elapsed_seconds"`
	Elapsed        string     `json:"elapsed"`
	StationSeconds int        `json:"station_seconds"`
	StationTime    string     `json:"station_time"`
	HallwaySeconds int        `json:"hallway_seconds"`
	HallwayTime    string     `json:"hallway_time"`
}

// PendingCount summarises the approval queue.
type PendingCount struct {
	PendingStart  int `json:"pending_start"`
	PendingReturn int `json:"pending_return"`
	Total         int `json:"total"`
}

// StudentStatus is what a student sees about themselves.
type StudentStatus struct {
	StudentID string         `json:"student_id"`
	Period    *CurrentPeriod `json:"period"`
	Pass      *PassView      `json:"pass"`
}

// Projector derives read views from the store and registry. Every view is
// recomputed per call from stored timestamps.
type Projector struct {
	store    *PassStore
	rooms    *RoomRegistry
	schedule *ScheduleMatcher
	clock    Clock
	location *time.Location
}

func NewProjector(store *PassStore, rooms *RoomRegistry, schedule *ScheduleMatcher, clock Clock, location *time.Location) *Projector {
	if clock == nil {
		clock = SystemClock
	}
	if location == nil {
		location = time.Local
	}
	return &Projector{store: store, rooms: rooms, schedule: schedule, clock: clock, location: location}
}

// Snapshot copies rooms and passes together so a rename or transition is
// either fully visible or not at all.
func (p *Projector) Snapshot() Snapshot {
	var snap Snapshot
	_ = p.rooms.view(func() error {
		snap.Rooms = p.rooms.listLocked()
		p.store.mu.RLock()
		snap.Passes = p.store.snapshotLocked()
		p.store.mu.RUnlock()
		return nil
	})
	snap.Now = p.clock()
	return snap
}

// AdminPasses returns today's visible passes plus every open pass.
func (p *Projector) AdminPasses() []PassView {
	snap := p.Snapshot()
	since := startOfDay(snap.Now, p.location)
	names := roomNames(snap.Rooms)

	views := []PassView{}
	for i := range snap.Passes {
		pass := &snap.Passes[i]
		today := !pass.CreatedAt.Before(since) && !pass.Archived
		if !today && !pass.Status.IsOpen() {
			continue
		}
		views = append(views, projectPass(pass, names, snap.Now))
	}
	return views
}

// PendingPasses returns passes waiting on an admin decision.
func (p *Projector) PendingPasses() []PassView {
	snap := p.Snapshot()
	names := roomNames(snap.Rooms)

	views := []PassView{}
	for i := range snap.Passes {
		pass := &snap.Passes[i]
		if pass.Status == models.StatusPendingStart || pass.Status == models.StatusPendingReturn {
			views = append(views, projectPass(pass, names, snap.Now))
		}
	}
	return views
}

func (p *Projector) PendingCount() PendingCount {
	snap := p.Snapshot()
	var count PendingCount
	for _, pass := range snap.Passes {
		switch pass.Status {
		case models.StatusPendingStart:
			count.PendingStart++
		case models.StatusPendingReturn:
			count.PendingReturn++
		}
	}
	count.Total = count.PendingStart + count.PendingReturn
	return count
}

// Occupancy is the public slot view over active rooms. is_current marks the
// room the student is scheduled in right now.
func (p *Projector) Occupancy(studentID string) ([]models.RoomOccupancy, error) {
	current, err := p.currentPeriod(studentID)
	if err != nil {
		return nil, err
	}
	snap := p.Snapshot()
	rows := p.occupancy(snap, false)
	if current != nil {
		for i := range rows {
			rows[i].IsCurrent = rows[i].RoomID == current.RoomID
		}
	}
	return rows, nil
}

// AdminRooms is the occupancy view over every room, active or not.
func (p *Projector) AdminRooms() []models.RoomOccupancy {
	return p.occupancy(p.Snapshot(), true)
}

func (p *Projector) occupancy(snap Snapshot, includeInactive bool) []models.RoomOccupancy {
	type counts struct{ taken, pending int }
	byRoom := make(map[uint]*counts, len(snap.Rooms))
	for _, pass := range snap.Passes {
		c, ok := byRoom[pass.RoomID]
		if !ok {
			c = &counts{}
			byRoom[pass.RoomID] = c
		}
		switch pass.Status {
		case models.StatusActive, models.StatusPendingReturn:
			c.taken++
		case models.StatusPendingStart:
			c.pending++
		}
	}

	rows := []models.RoomOccupancy{}
	for i := range snap.Rooms {
		room := &snap.Rooms[i]
		if !room.IsActive && !includeInactive {
			continue
		}
		row := models.RoomOccupancy{
			RoomID: room.ID,
			Room:   room.Name,
			Type:   room.Type,
			Active: room.IsActive,
		}
		if c, ok := byRoom[room.ID]; ok {
			row.Taken = c.taken
			row.Pending = c.pending
		}
		row.Free = p.rooms.Capacity(room) - row.Taken - row.Pending
		if row.Free < 0 {
			row.Free = 0
		}
		rows = append(rows, row)
	}
	return rows
}

// StudentStatus reports the student's current period and open pass.
func (p *Projector) StudentStatus(studentID string) (*StudentStatus, error) {
	current, err := p.currentPeriod(studentID)
	if err != nil {
		return nil, err
	}
	status := &StudentStatus{StudentID: studentID, Period: current}

	snap := p.Snapshot()
	names := roomNames(snap.Rooms)
	for i := range snap.Passes {
		pass := &snap.Passes[i]
		if pass.StudentID == studentID && pass.Status.IsOpen() {
			view := projectPass(pass, names, snap.Now)
			status.Pass = &view
			break
		}
	}
	return status, nil
}

// TodayPasses returns every pass created today, archived included, for export.
func (p *Projector) TodayPasses() []PassView {
	snap := p.Snapshot()
	since := startOfDay(snap.Now, p.location)
	names := roomNames(snap.Rooms)

	views := []PassView{}
	for i := range snap.Passes {
		pass := &snap.Passes[i]
		if !pass.CreatedAt.Before(since) {
			views = append(views, projectPass(pass, names, snap.Now))
		}
	}
	return views
}

// Periods lists the bell schedule with the window containing now flagged.
func (p *Projector) Periods() []models.PeriodMatch {
	if p.schedule == nil {
		return []models.PeriodMatch{}
	}
	return p.schedule.Matches(p.clock())
}

func (p *Projector) currentPeriod(studentID string) (*CurrentPeriod, error) {
	if p.schedule == nil || studentID == "" {
		return nil, nil
	}
	current, err := p.schedule.CurrentPeriod(studentID, p.clock())
	if err != nil || current == nil {
		return nil, err
	}
	current.Room = p.rooms.NameOf(current.RoomID)
	return current, nil
}

func roomNames(rooms []models.Room) map[uint]string {
	names := make(map[uint]string, len(rooms))
	for _, r := range rooms {
		names[r.ID] = r.Name
	}
	return names
}

func projectPass(pass *models.Pass, names map[uint]string, now time.Time) PassView {
	room, ok := names[pass.RoomID]
	if !ok {
		room = pass.RoomName
	}
	view := PassView{
		ID:             pass.ID,
		StudentID:      pass.StudentID,
		StudentName:    pass.StudentName,
		RoomID:         pass.RoomID,
		Room:           room,
		Status:         pass.Status.String(),
		Period:         pass.Period,
		IsOverride:     pass.IsOverride,
		Note:           pass.Note,
		CreatedAt:      pass.CreatedAt,
		CheckoutTime:   pass.CheckoutTime,
		StationInTime:  pass.StationInTime,
		StationOutTime: pass.StationOutTime,
		CompletedTime:  pass.CompletedTime,
	}
	if pass.StationID != nil {
		view.Station = names[*pass.StationID]
	}

	switch {
	case pass.Status.IsTerminal():
		view.ElapsedSeconds = pass.TotalSeconds
		view.StationSeconds = pass.StationSeconds
		view.HallwaySeconds = pass.HallwaySeconds
	case pass.Status == models.StatusPendingStart:
		view.ElapsedSeconds = seconds(now.Sub(pass.CreatedAt))
	default:
		d := passDurations(pass, now)
		view.ElapsedSeconds = d.total
		view.StationSeconds = d.station
		view.HallwaySeconds = d.hallway
	}
	view.Elapsed = FormatSeconds(view.ElapsedSeconds)
	view.StationTime = FormatSeconds(view.StationSeconds)
	view.HallwayTime = FormatSeconds(view.HallwaySeconds)
	return view
}

// FormatSeconds renders a duration as "Xm Ys".
func FormatSeconds(total int) string {
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%dm %ds", total/60, total%60)
}
