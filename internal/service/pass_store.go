package service

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"hallpass-service/internal/models"

	"go.uber.org/zap"
)

// PassStore is the authoritative record of every pass.
//
// All mutations run under the write lock so transitions on one id are
// serialized: of two racing approvals exactly one succeeds.
type PassStore struct {
	mu     sync.RWMutex
	passes map[uint]*models.Pass
	nextID uint

	rooms    *RoomRegistry
	schedule *ScheduleMatcher
	roster   Roster
	persist  PassPersister
	audit    auditor
	logger   *zap.Logger
	clock    Clock
}

// StoreOptions wires the store to its collaborators.
type StoreOptions struct {
	Rooms     *RoomRegistry
	Schedule  *ScheduleMatcher
	Roster    Roster
	Persister PassPersister
	Audit     AuditWriter
	Logger    *zap.Logger
	Clock     Clock
}

// NewPassStore creates a store and binds it to the room registry.
func NewPassStore(opts StoreOptions) *PassStore {
	if opts.Persister == nil {
		opts.Persister = NopPersister{}
	}
	if opts.Roster == nil {
		opts.Roster = OpenRoster{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock
	}
	s := &PassStore{
		passes:   make(map[uint]*models.Pass),
		nextID:   1,
		rooms:    opts.Rooms,
		schedule: opts.Schedule,
		roster:   opts.Roster,
		persist:  opts.Persister,
		audit:    auditor{writer: opts.Audit, logger: opts.Logger},
		logger:   opts.Logger,
		clock:    opts.Clock,
	}
	opts.Rooms.mu.Lock()
	opts.Rooms.usage = s
	opts.Rooms.mu.Unlock()
	return s
}

// NewPass describes a pass to create. SelfCheckout is a kiosk swipe out of
// a classroom: it starts active like an override but still needs a free slot.
type NewPass struct {
	StudentID    string
	Room         string
	Period       string
	Override     bool
	SelfCheckout bool
	Note         string
	Actor        string
}

// Load seeds the store with persisted passes. maxID is the highest id ever
// issued so new ids keep increasing even when old rows are not loaded.
func (s *PassStore) Load(passes []models.Pass, maxID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	open := make(map[string]uint)
	for i := range passes {
		p := passes[i]
		if p.Status.IsOpen() {
			if other, dup := open[p.StudentID]; dup {
				return fmt.Errorf("student %s has two open passes (%d and %d)", p.StudentID, other, p.ID)
			}
			open[p.StudentID] = p.ID
		}
		s.passes[p.ID] = &p
		if p.ID > maxID {
			maxID = p.ID
		}
	}
	s.nextID = maxID + 1
	return nil
}

// now returns the clock reading, never earlier than the latest timestamp
// already on the pass.
func (s *PassStore) now(p *models.Pass) time.Time {
	now := s.clock()
	if p != nil {
		if latest := p.LatestTimestamp(); latest.After(now) {
			return latest
		}
	}
	return now
}

// Create opens a new pass. Student requests start in pending_start and
// need a free slot. Override passes start active and skip the slot check.
func (s *PassStore) Create(req NewPass) (*models.Pass, error) {
	req.StudentID = strings.TrimSpace(req.StudentID)
	req.Room = strings.TrimSpace(req.Room)
	req.Period = strings.TrimSpace(req.Period)
	if req.StudentID == "" {
		return nil, validationError("student_id is required")
	}

	student, err := s.roster.GetStudent(req.StudentID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up student %s: %w", req.StudentID, err)
	}
	if student == nil {
		return nil, notFoundError("student %s not found", req.StudentID)
	}

	current, err := s.currentPeriod(req.StudentID)
	if err != nil {
		return nil, err
	}
	target, period, err := s.resolveRoom(req, current)
	if err != nil {
		return nil, err
	}

	var created models.Pass
	err = s.rooms.view(func() error {
		room, err := s.targetLocked(target, period)
		if err != nil {
			return err
		}
		if !room.IsActive {
			return validationError("room %s is not active", room.Name)
		}
		if !req.Override && current != nil && room.Type == models.RoomTypeRoom && room.ID != current.RoomID {
			// A scheduled room that has since been deleted does not pin the student.
			if scheduled := s.rooms.nameLocked(current.RoomID); scheduled != "" {
				return validationError("you are scheduled in %s this period, not %s", scheduled, room.Name)
			}
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		if existing := s.openPassLocked(req.StudentID); existing != nil {
			return conflictError("%s already has an open pass (%s)", req.StudentID, existing.Status)
		}
		if !req.Override {
			taken, pending := s.occupancyLocked(room.ID)
			if s.rooms.Capacity(room)-taken-pending <= 0 {
				return conflictError("no free slots in %s", room.Name)
			}
		}

		now := s.now(nil)
		pass := models.Pass{
			ID:          s.nextID,
			StudentID:   student.ID,
			StudentName: student.Name,
			RoomID:      room.ID,
			RoomName:    room.Name,
			Status:      models.StatusPendingStart,
			IsOverride:  req.Override,
			Note:        req.Note,
			CreatedAt:   now,
		}
		if period != "" {
			p := period
			pass.Period = &p
		}
		if req.Override || req.SelfCheckout {
			checkout := now
			pass.Status = models.StatusActive
			pass.CheckoutTime = &checkout
		}
		if err := s.persist.CreatePass(&pass); err != nil {
			return fmt.Errorf("failed to save pass: %w", err)
		}
		s.nextID++
		s.passes[pass.ID] = &pass
		created = pass
		return nil
	})
	if err != nil {
		return nil, err
	}

	action := "PASS_REQUEST"
	switch {
	case req.Override:
		action = "PASS_OVERRIDE"
	case req.SelfCheckout:
		action = "PASS_SELF_CHECKOUT"
	}
	s.audit.record(req.Actor, created.StudentID, action, fmt.Sprintf("Pass %d to %s", created.ID, created.RoomName))
	return &created, nil
}

func (s *PassStore) currentPeriod(studentID string) (*CurrentPeriod, error) {
	if s.schedule == nil {
		return nil, nil
	}
	current, err := s.schedule.CurrentPeriod(studentID, s.clock())
	if err != nil || current == nil {
		return nil, err
	}
	current.Room = s.rooms.NameOf(current.RoomID)
	return current, nil
}

// roomTarget is a room named by the caller or taken from the schedule.
type roomTarget struct {
	name string
	id   uint
}

// resolveRoom picks the target room and the period label to record.
func (s *PassStore) resolveRoom(req NewPass, current *CurrentPeriod) (roomTarget, string, error) {
	period := req.Period
	if period == "" && current != nil {
		period = current.Period
	}
	if req.Room != "" {
		return roomTarget{name: req.Room}, period, nil
	}

	if req.Override && req.Period != "" && s.schedule != nil {
		roomID, err := s.schedule.RoomForPeriod(req.StudentID, req.Period)
		if err != nil {
			return roomTarget{}, "", err
		}
		if roomID == 0 {
			return roomTarget{}, "", validationError("%s has no room for period %s", req.StudentID, req.Period)
		}
		return roomTarget{id: roomID}, period, nil
	}
	if current == nil {
		return roomTarget{}, "", validationError("no room given and %s has no class right now", req.StudentID)
	}
	return roomTarget{id: current.RoomID}, period, nil
}

// targetLocked looks the target up. Callers hold the registry lock.
func (s *PassStore) targetLocked(target roomTarget, period string) (*models.Room, error) {
	if target.name != "" {
		id, ok := s.rooms.byName[target.name]
		if !ok {
			return nil, validationError("unknown room %s", target.name)
		}
		return s.rooms.rooms[id], nil
	}
	room, ok := s.rooms.rooms[target.id]
	if !ok {
		return nil, validationError("the room scheduled for period %s no longer exists", period)
	}
	return room, nil
}

// Approve moves a pending request to active and starts the clock.
func (s *PassStore) Approve(actor string, id uint) (*models.Pass, error) {
	pass, err := s.transition(id, models.EventApprove, func(p *models.Pass, now time.Time) error {
		p.CheckoutTime = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.audit.record(actor, pass.StudentID, "PASS_APPROVE", fmt.Sprintf("Approved pass %d", id))
	return pass, nil
}

// Reject closes a pending request without it ever becoming active.
func (s *PassStore) Reject(actor string, id uint) (*models.Pass, error) {
	pass, err := s.transition(id, models.EventReject, nil)
	if err != nil {
		return nil, err
	}
	s.audit.record(actor, pass.StudentID, "PASS_REJECT", fmt.Sprintf("Rejected pass %d", id))
	return pass, nil
}

// RequestReturn marks an active pass as waiting for check-in.
func (s *PassStore) RequestReturn(actor string, id uint) (*models.Pass, error) {
	pass, err := s.transition(id, models.EventRequestReturn, nil)
	if err != nil {
		return nil, err
	}
	s.audit.record(actor, pass.StudentID, "PASS_RETURN_REQUEST", fmt.Sprintf("Return requested for pass %d", id))
	return pass, nil
}

// RecordStationIn stamps arrival at a station. The status stays active.
func (s *PassStore) RecordStationIn(actor string, id uint, stationID uint) (*models.Pass, error) {
	pass, err := s.transition(id, models.EventStationIn, func(p *models.Pass, now time.Time) error {
		if p.StationInTime != nil {
			return conflictError("pass %d already checked in at a station", p.ID)
		}
		station := stationID
		p.StationID = &station
		p.StationInTime = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.audit.record(actor, pass.StudentID, "PASS_STATION_IN", fmt.Sprintf("Pass %d in at station %d", id, stationID))
	return pass, nil
}

// RecordStationOut stamps departure from the station checked in at.
func (s *PassStore) RecordStationOut(actor string, id uint) (*models.Pass, error) {
	pass, err := s.transition(id, models.EventStationOut, func(p *models.Pass, now time.Time) error {
		if p.StationInTime == nil {
			return conflictError("pass %d has not checked in at a station", p.ID)
		}
		if p.StationOutTime != nil {
			return conflictError("pass %d already checked out of the station", p.ID)
		}
		p.StationOutTime = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.audit.record(actor, pass.StudentID, "PASS_STATION_OUT", fmt.Sprintf("Pass %d out of station", id))
	return pass, nil
}

// Complete checks the student back in and fixes the pass durations.
func (s *PassStore) Complete(actor string, id uint) (*models.Pass, error) {
	pass, err := s.transition(id, models.EventComplete, func(p *models.Pass, now time.Time) error {
		completed := now
		p.RoomInTime = &completed
		p.CompletedTime = &completed
		d := passDurations(p, now)
		p.TotalSeconds = d.total
		p.StationSeconds = d.station
		p.HallwaySeconds = d.hallway
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.audit.record(actor, pass.StudentID, "PASS_CHECKIN", fmt.Sprintf("Checked in pass %d after %ds", id, pass.TotalSeconds))
	return pass, nil
}

// AttachNote sets the note on the student's most recent pass.
func (s *PassStore) AttachNote(actor, studentID, note string) (*models.Pass, error) {
	s.mu.Lock()
	var latest *models.Pass
	for _, p := range s.passes {
		if p.StudentID == studentID && (latest == nil || p.ID > latest.ID) {
			latest = p
		}
	}
	if latest == nil {
		s.mu.Unlock()
		return nil, notFoundError("no pass found for %s", studentID)
	}
	updated := *latest
	updated.Note = note
	if err := s.persist.SavePass(&updated); err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("failed to save note on pass %d: %w", updated.ID, err)
	}
	s.passes[updated.ID] = &updated
	s.mu.Unlock()

	s.audit.record(actor, studentID, "PASS_NOTE", fmt.Sprintf("Note on pass %d", updated.ID))
	out := updated
	return &out, nil
}

// transition applies one state machine event under the write lock. The
// stored record is replaced only after the persister accepts the update.
func (s *PassStore) transition(id uint, event models.PassEvent, apply func(p *models.Pass, now time.Time) error) (*models.Pass, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.passes[id]
	if !ok {
		return nil, notFoundError("pass %d not found", id)
	}
	next, ok := current.Status.Next(event)
	if !ok {
		return nil, newError(ErrInvalidTransition, "cannot %s pass %d: it is %s", event, id, current.Status)
	}

	updated := *current
	updated.Status = next
	if apply != nil {
		if err := apply(&updated, s.now(current)); err != nil {
			return nil, err
		}
	}
	if err := s.persist.SavePass(&updated); err != nil {
		return nil, fmt.Errorf("failed to save pass %d: %w", id, err)
	}
	s.passes[id] = &updated

	out := updated
	return &out, nil
}

// Get returns a copy of one pass.
func (s *PassStore) Get(id uint) (*models.Pass, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.passes[id]
	if !ok {
		return nil, notFoundError("pass %d not found", id)
	}
	out := *p
	return &out, nil
}

// OpenPass returns the student's open pass, or nil.
func (s *PassStore) OpenPass(studentID string) *models.Pass {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p := s.openPassLocked(studentID)
	if p == nil {
		return nil
	}
	out := *p
	return &out
}

func (s *PassStore) openPassLocked(studentID string) *models.Pass {
	for _, p := range s.passes {
		if p.StudentID == studentID && p.Status.IsOpen() {
			return p
		}
	}
	return nil
}

// Snapshot copies every pass in id order.
func (s *PassStore) Snapshot() []models.Pass {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *PassStore) snapshotLocked() []models.Pass {
	out := make([]models.Pass, 0, len(s.passes))
	for _, p := range s.passes {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}

// Evict drops terminal passes created before cutoff from memory. They stay
// in durable storage.
func (s *PassStore) Evict(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for id, p := range s.passes {
		if p.Status.IsTerminal() && p.CreatedAt.Before(cutoff) {
			delete(s.passes, id)
			evicted++
		}
	}
	return evicted
}

func (s *PassStore) occupancyLocked(roomID uint) (taken, pending int) {
	for _, p := range s.passes {
		if p.RoomID != roomID {
			continue
		}
		switch p.Status {
		case models.StatusActive, models.StatusPendingReturn:
			taken++
		case models.StatusPendingStart:
			pending++
		}
	}
	return taken, pending
}

func (s *PassStore) openPassCount(roomID uint) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	taken, pending := s.occupancyLocked(roomID)
	return taken + pending
}

func (s *PassStore) activity(roomID uint, since time.Time) (active, today int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.passes {
		if p.RoomID != roomID {
			continue
		}
		if p.Status == models.StatusActive || p.Status == models.StatusPendingReturn {
			active++
		}
		if !p.Archived && !p.CreatedAt.Before(since) {
			today++
		}
	}
	return active, today
}

func (s *PassStore) archiveTerminal(roomID uint, since time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var batch []models.Pass
	for _, p := range s.passes {
		if p.RoomID == roomID && p.Status.IsTerminal() && !p.Archived && !p.CreatedAt.Before(since) {
			updated := *p
			updated.Archived = true
			batch = append(batch, updated)
		}
	}
	if len(batch) == 0 {
		return 0, nil
	}
	if err := s.persist.SavePasses(batch); err != nil {
		return 0, fmt.Errorf("failed to archive passes: %w", err)
	}
	for i := range batch {
		s.passes[batch[i].ID] = &batch[i]
	}
	return len(batch), nil
}

type durations struct {
	total   int
	station int
	hallway int
}

// passDurations measures a pass up to end. Station time runs from station
// check-in to check-out, or to end while the student is still at the station.
func passDurations(p *models.Pass, end time.Time) durations {
	if p.CheckoutTime == nil {
		return durations{}
	}
	d := durations{total: seconds(end.Sub(*p.CheckoutTime))}
	if p.StationInTime != nil {
		stationEnd := end
		if p.StationOutTime != nil {
			stationEnd = *p.StationOutTime
		}
		d.station = seconds(stationEnd.Sub(*p.StationInTime))
	}
	if d.station > d.total {
		d.station = d.total
	}
	d.hallway = d.total - d.station
	return d
}

func seconds(d time.Duration) int {
	if d < 0 {
		return 0
	}
	return int(d / time.Second)
}
