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

const maxRoomNameLength = 100

// roomUsage is the view of pass state the registry needs to guard deletes
// and resets. PassStore binds itself here when constructed.
type roomUsage interface {
	openPassCount(roomID uint) int
	archiveTerminal(roomID uint, since time.Time) (int, error)
	activity(roomID uint, since time.Time) (active, today int)
}

// RoomRegistry owns the set of rooms and stations.
//
// Lock order is registry then store: anything that needs both takes the
// registry lock first.
type RoomRegistry struct {
	mu     sync.RWMutex
	rooms  map[uint]*models.Room
	byName map[string]uint
	nextID uint

	persist      RoomPersister
	usage        roomUsage
	audit        auditor
	logger       *zap.Logger
	clock        Clock
	location     *time.Location
	stationSlots int
	roomSlots    int
}

// RegistryOptions configures slot defaults and collaborators.
type RegistryOptions struct {
	Persister    RoomPersister
	Audit        AuditWriter
	Logger       *zap.Logger
	Clock        Clock
	Location     *time.Location
	StationSlots int
	RoomSlots    int
}

func NewRoomRegistry(opts RegistryOptions) *RoomRegistry {
	if opts.Persister == nil {
		opts.Persister = NopPersister{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &RoomRegistry{
		rooms:        make(map[uint]*models.Room),
		byName:       make(map[string]uint),
		nextID:       1,
		persist:      opts.Persister,
		audit:        auditor{writer: opts.Audit, logger: opts.Logger},
		logger:       opts.Logger,
		clock:        opts.Clock,
		location:     opts.Location,
		stationSlots: opts.StationSlots,
		roomSlots:    opts.RoomSlots,
	}
}

// Load seeds the registry from storage. Must be called before serving.
// maxID is the highest room id still referenced anywhere, so a deleted
// room's id is never handed to a new room.
func (r *RoomRegistry) Load(rooms []models.Room, maxID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if maxID >= r.nextID {
		r.nextID = maxID + 1
	}
	for i := range rooms {
		room := rooms[i]
		if _, dup := r.byName[room.Name]; dup {
			return fmt.Errorf("duplicate room name %q in storage", room.Name)
		}
		r.rooms[room.ID] = &room
		r.byName[room.Name] = room.ID
		if room.ID >= r.nextID {
			r.nextID = room.ID + 1
		}
	}
	return nil
}

// List returns all rooms ordered by name.
func (r *RoomRegistry) List() []models.Room {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.listLocked()
}

func (r *RoomRegistry) listLocked() []models.Room {
	rooms := make([]models.Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		rooms = append(rooms, *room)
	}
	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].Name < rooms[j].Name
	})
	return rooms
}

// Get returns the room with the given name.
func (r *RoomRegistry) Get(name string) (*models.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, err := r.byNameLocked(name)
	if err != nil {
		return nil, err
	}
	out := *room
	return &out, nil
}

func (r *RoomRegistry) byNameLocked(name string) (*models.Room, error) {
	id, ok := r.byName[name]
	if !ok {
		return nil, notFoundError("room %s not found", name)
	}
	return r.rooms[id], nil
}

// NameOf returns the current display name of a room id, or "" when the
// room no longer exists.
func (r *RoomRegistry) NameOf(id uint) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.nameLocked(id)
}

func (r *RoomRegistry) nameLocked(id uint) string {
	if room, ok := r.rooms[id]; ok {
		return room.Name
	}
	return ""
}

// view runs fn while holding the registry read lock.
func (r *RoomRegistry) view(fn func() error) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return fn()
}

// Capacity returns the slot budget of a room, falling back to the
// per-type default when none is configured.
func (r *RoomRegistry) Capacity(room *models.Room) int {
	if room.Capacity > 0 {
		return room.Capacity
	}
	if room.Type == models.RoomTypeStation {
		return r.stationSlots
	}
	return r.roomSlots
}

// Create adds a new active room.
func (r *RoomRegistry) Create(actor, name string, roomType models.RoomType, capacity int) (*models.Room, error) {
	name, err := normalizeRoomName(name)
	if err != nil {
		return nil, err
	}
	if roomType == "" {
		roomType = models.RoomTypeRoom
	}
	if !roomType.Valid() {
		return nil, validationError("room type must be room or station")
	}
	if capacity < 0 {
		return nil, validationError("capacity cannot be negative")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[name]; exists {
		return nil, conflictError("room %s already exists", name)
	}
	now := r.clock()
	room := models.Room{
		ID:        r.nextID,
		Name:      name,
		Type:      roomType,
		IsActive:  true,
		Capacity:  capacity,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.persist.CreateRoom(&room); err != nil {
		return nil, fmt.Errorf("failed to create room %s: %w", name, err)
	}
	r.nextID++
	r.rooms[room.ID] = &room
	r.byName[room.Name] = room.ID

	r.audit.record(actor, "", "ROOM_CREATE", fmt.Sprintf("Created %s %s", room.Type, room.Name))
	out := room
	return &out, nil
}

// Rename changes the display name. Passes reference the room by id and
// keep pointing at it.
func (r *RoomRegistry) Rename(actor, oldName, newName string) (*models.Room, error) {
	newName, err := normalizeRoomName(newName)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, err := r.byNameLocked(oldName)
	if err != nil {
		return nil, err
	}
	if newName == oldName {
		out := *current
		return &out, nil
	}
	if _, exists := r.byName[newName]; exists {
		return nil, conflictError("room %s already exists", newName)
	}

	updated := *current
	updated.Name = newName
	updated.UpdatedAt = r.clock()
	if err := r.persist.SaveRoom(&updated); err != nil {
		return nil, fmt.Errorf("failed to rename room %s: %w", oldName, err)
	}
	r.rooms[updated.ID] = &updated
	delete(r.byName, oldName)
	r.byName[newName] = updated.ID

	r.audit.record(actor, "", "ROOM_RENAME", fmt.Sprintf("Renamed %s to %s", oldName, newName))
	out := updated
	return &out, nil
}

// SetActive toggles whether new passes may target the room.
// Open passes are not affected.
func (r *RoomRegistry) SetActive(actor, name string, active bool) (*models.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, err := r.byNameLocked(name)
	if err != nil {
		return nil, err
	}
	updated := *current
	updated.IsActive = active
	updated.UpdatedAt = r.clock()
	if err := r.persist.SaveRoom(&updated); err != nil {
		return nil, fmt.Errorf("failed to update room %s: %w", name, err)
	}
	r.rooms[updated.ID] = &updated

	r.audit.record(actor, "", "ROOM_TOGGLE", fmt.Sprintf("Set %s active=%t", name, active))
	out := updated
	return &out, nil
}

// Delete removes a room. Rooms with open passes cannot be deleted.
func (r *RoomRegistry) Delete(actor, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, err := r.byNameLocked(name)
	if err != nil {
		return err
	}
	if r.usage != nil {
		if open := r.usage.openPassCount(room.ID); open > 0 {
			return newError(ErrInUse, "room %s has %d open pass(es)", name, open)
		}
	}
	if err := r.persist.DeleteRoom(room.ID); err != nil {
		return fmt.Errorf("failed to delete room %s: %w", name, err)
	}
	delete(r.rooms, room.ID)
	delete(r.byName, name)

	r.audit.record(actor, "", "ROOM_DELETE", fmt.Sprintf("Deleted %s", name))
	return nil
}

// ResetToday archives today's completed and rejected passes for the room.
// Open passes are left alone.
func (r *RoomRegistry) ResetToday(actor, name string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, err := r.byNameLocked(name)
	if err != nil {
		return 0, err
	}
	if r.usage == nil {
		return 0, nil
	}
	cleared, err := r.usage.archiveTerminal(room.ID, startOfDay(r.clock(), r.location))
	if err != nil {
		return 0, err
	}

	r.audit.record(actor, "", "ROOM_RESET", fmt.Sprintf("Cleared %d pass(es) for %s", cleared, name))
	return cleared, nil
}

// Stats returns the open pass count and today's total for one room.
func (r *RoomRegistry) Stats(name string) (*models.RoomStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, err := r.byNameLocked(name)
	if err != nil {
		return nil, err
	}
	stats := &models.RoomStats{Room: room.Name}
	if r.usage != nil {
		stats.Active, stats.CountToday = r.usage.activity(room.ID, startOfDay(r.clock(), r.location))
	}
	return stats, nil
}

func normalizeRoomName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", validationError("room name is required")
	}
	if len(name) > maxRoomNameLength {
		return "", validationError("room name is longer than %d characters", maxRoomNameLength)
	}
	return name, nil
}
