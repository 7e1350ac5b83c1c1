package service

import (
	"testing"
	"time"

	"hallpass-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomRegistry_CreateValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.rooms.Create("admin", "   ", models.RoomTypeRoom, 0)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.rooms.Create("admin", "Library", models.RoomType("closet"), 0)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.rooms.Create("admin", "101", models.RoomTypeRoom, 0)
	assert.ErrorIs(t, err, ErrConflict)

	room, err := f.rooms.Create("admin", " Library ", "", 5)
	require.NoError(t, err)
	assert.Equal(t, "Library", room.Name)
	assert.Equal(t, models.RoomTypeRoom, room.Type)
	assert.True(t, room.IsActive)
	assert.Equal(t, 5, f.rooms.Capacity(room))
}

func TestRoomRegistry_DefaultCapacityByType(t *testing.T) {
	f := newFixture(t)

	room, _ := f.rooms.Get("101")
	station, _ := f.rooms.Get("Bathroom")

	assert.Equal(t, 2, f.rooms.Capacity(room))
	assert.Equal(t, 3, f.rooms.Capacity(station))
}

func TestRoomRegistry_RenameKeepsPasses(t *testing.T) {
	f := newFixture(t)
	pass := f.request(t, "s2", "101")
	_, err := f.store.Approve("admin", pass.ID)
	require.NoError(t, err)

	_, err = f.rooms.Rename("admin", "101", "Room 101")
	require.NoError(t, err)

	occ := f.occupancyOf(t, "Room 101")
	assert.Equal(t, 1, occ.Taken)
	assert.Equal(t, 1, occ.Free)

	views := f.projector.AdminPasses()
	require.Len(t, views, 1)
	assert.Equal(t, "Room 101", views[0].Room)

	_, err = f.rooms.Get("101")
	assert.ErrorIs(t, err, ErrNotFound)

	done, err := f.store.Complete("admin", pass.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, done.Status)
	assert.Equal(t, 0, f.occupancyOf(t, "Room 101").Taken)
}

func TestRoomRegistry_RenameConflicts(t *testing.T) {
	f := newFixture(t)

	_, err := f.rooms.Rename("admin", "101", "102")
	assert.ErrorIs(t, err, ErrConflict)

	_, err = f.rooms.Rename("admin", "404", "405")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.rooms.Rename("admin", "101", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRoomRegistry_DeleteBlockedByOpenPass(t *testing.T) {
	f := newFixture(t)
	pass := f.request(t, "s2", "102")

	err := f.rooms.Delete("admin", "102")
	require.ErrorIs(t, err, ErrInUse)

	_, err = f.store.Reject("admin", pass.ID)
	require.NoError(t, err)
	require.NoError(t, f.rooms.Delete("admin", "102"))

	_, err = f.store.Create(NewPass{StudentID: "s3", Room: "102"})
	assert.ErrorIs(t, err, ErrValidation)

	views := f.projector.AdminPasses()
	require.Len(t, views, 1)
	assert.Equal(t, "102", views[0].Room)
}

func TestRoomRegistry_DeactivatedRoomKeepsOpenPasses(t *testing.T) {
	f := newFixture(t)
	pass := f.request(t, "s2", "102")
	_, err := f.store.Approve("admin", pass.ID)
	require.NoError(t, err)

	_, err = f.rooms.SetActive("admin", "102", false)
	require.NoError(t, err)

	occ := f.occupancyOf(t, "102")
	assert.False(t, occ.Active)
	assert.Equal(t, 1, occ.Taken)

	_, err = f.store.Complete("admin", pass.ID)
	assert.NoError(t, err)
}

func TestRoomRegistry_ResetTodayArchivesTerminalOnly(t *testing.T) {
	f := newFixture(t)
	done := f.request(t, "s2", "101")
	_, err := f.store.Reject("admin", done.ID)
	require.NoError(t, err)
	open := f.request(t, "s3", "101")

	cleared, err := f.rooms.ResetToday("admin", "101")
	require.NoError(t, err)
	assert.Equal(t, 1, cleared)

	archived, _ := f.store.Get(done.ID)
	assert.True(t, archived.Archived)
	stillOpen, _ := f.store.Get(open.ID)
	assert.False(t, stillOpen.Archived)

	views := f.projector.AdminPasses()
	require.Len(t, views, 1)
	assert.Equal(t, open.ID, views[0].ID)

	cleared, err = f.rooms.ResetToday("admin", "101")
	require.NoError(t, err)
	assert.Equal(t, 0, cleared)
}

func TestRoomRegistry_Stats(t *testing.T) {
	f := newFixture(t)
	first := f.request(t, "s2", "101")
	_, err := f.store.Approve("admin", first.ID)
	require.NoError(t, err)
	second := f.request(t, "s3", "101")
	_, err = f.store.Reject("admin", second.ID)
	require.NoError(t, err)

	stats, err := f.rooms.Stats("101")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Active)
	assert.Equal(t, 2, stats.CountToday)

	f.clock.Advance(24 * time.Hour)
	stats, err = f.rooms.Stats("101")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Active)
	assert.Equal(t, 0, stats.CountToday)
}

func TestRoomRegistry_LoadRejectsDuplicateNames(t *testing.T) {
	r := NewRoomRegistry(RegistryOptions{})

	err := r.Load([]models.Room{{ID: 1, Name: "A"}, {ID: 2, Name: "A"}}, 0)

	assert.Error(t, err)
}

func TestRoomRegistry_LoadContinuesIDs(t *testing.T) {
	r := NewRoomRegistry(RegistryOptions{RoomSlots: 2})
	require.NoError(t, r.Load([]models.Room{{ID: 4, Name: "A", Type: models.RoomTypeRoom, IsActive: true}}, 0))

	room, err := r.Create("admin", "B", models.RoomTypeRoom, 0)

	require.NoError(t, err)
	assert.Equal(t, uint(5), room.ID)
	assert.Len(t, r.List(), 2)
}

func TestRoomRegistry_RenameKeepsSchedule(t *testing.T) {
	f := newFixture(t)
	_, err := f.rooms.Rename("admin", "101", "101A")
	require.NoError(t, err)

	rows, err := f.projector.Occupancy("s1")
	require.NoError(t, err)
	for _, row := range rows {
		assert.Equal(t, row.Room == "101A", row.IsCurrent, "room %s", row.Room)
	}

	status, err := f.projector.StudentStatus("s1")
	require.NoError(t, err)
	require.NotNil(t, status.Period)
	assert.Equal(t, "101A", status.Period.Room)

	_, err = f.store.Create(NewPass{StudentID: "s1", Room: "102", Actor: "s1"})
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "scheduled in 101A")

	pass, err := f.store.Create(NewPass{StudentID: "s1", Actor: "s1"})
	require.NoError(t, err)
	assert.Equal(t, "101A", pass.RoomName)
	_, err = f.store.Reject("admin", pass.ID)
	require.NoError(t, err)

	pass, err = f.store.Create(NewPass{StudentID: "s1", Room: "101A", Actor: "s1"})
	require.NoError(t, err)
	assert.Equal(t, uint(1), pass.RoomID)
}

func TestRoomRegistry_DeletedScheduledRoom(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.rooms.Delete("admin", "101"))

	_, err := f.store.Create(NewPass{StudentID: "s1", Actor: "s1"})
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "no longer exists")

	pass, err := f.store.Create(NewPass{StudentID: "s1", Room: "102", Actor: "s1"})
	require.NoError(t, err)
	assert.Equal(t, "102", pass.RoomName)
}

func TestRoomRegistry_LoadNeverReusesReferencedIDs(t *testing.T) {
	f := newFixture(t)
	pass := f.request(t, "s2", "Bathroom")
	_, err := f.store.Reject("admin", pass.ID)
	require.NoError(t, err)
	require.NoError(t, f.rooms.Delete("admin", "Bathroom"))

	// Restart: only 101 and 102 remain, but pass 1 still points at id 3.
	restarted := NewRoomRegistry(RegistryOptions{Clock: f.clock.Now, Location: time.UTC, RoomSlots: 2})
	require.NoError(t, restarted.Load(f.rooms.List(), pass.RoomID))
	store := NewPassStore(StoreOptions{Rooms: restarted, Clock: f.clock.Now})
	require.NoError(t, store.Load(f.store.Snapshot(), 0))

	gym, err := restarted.Create("admin", "Gym", models.RoomTypeRoom, 0)
	require.NoError(t, err)
	assert.Equal(t, uint(4), gym.ID)

	stats, err := restarted.Stats("Gym")
	require.NoError(t, err)
	assert.Equal(t, 0, stats.CountToday)

	views := NewProjector(store, restarted, nil, f.clock.Now, time.UTC).AdminPasses()
	require.Len(t, views, 1)
	assert.Equal(t, "Bathroom", views[0].Room)
}
