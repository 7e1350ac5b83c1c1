package service

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"hallpass-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatSeconds(t *testing.T) {
	assert.Equal(t, "0m 0s", FormatSeconds(0))
	assert.Equal(t, "1m 5s", FormatSeconds(65))
	assert.Equal(t, "61m 1s", FormatSeconds(3661))
	assert.Equal(t, "0m 0s", FormatSeconds(-3))
}

func TestProjector_ElapsedFollowsStatus(t *testing.T) {
	f := newFixture(t)
	pending := f.request(t, "s2", "101")
	active := f.request(t, "s3", "102")
	f.clock.Advance(20 * time.Second)
	_, err := f.store.Approve("admin", active.ID)
	require.NoError(t, err)
	f.clock.Advance(70 * time.Second)

	views := f.projector.AdminPasses()
	require.Len(t, views, 2)

	byID := map[uint]PassView{}
	for _, v := range views {
		byID[v.ID] = v
	}
	assert.Equal(t, 90, byID[pending.ID].ElapsedSeconds)
	assert.Equal(t, "1m 30s", byID[pending.ID].Elapsed)
	assert.Equal(t, 70, byID[active.ID].ElapsedSeconds)
	assert.Equal(t, 70, byID[active.ID].HallwaySeconds)

	_, err = f.store.Complete("admin", active.ID)
	require.NoError(t, err)
	f.clock.Advance(10 * time.Minute)

	for _, v := range f.projector.AdminPasses() {
		if v.ID == active.ID {
			assert.Equal(t, "completed", v.Status)
			assert.Equal(t, 70, v.ElapsedSeconds)
		}
	}
}

func TestProjector_AdminPassesShowsOldOpenPasses(t *testing.T) {
	f := newFixture(t)
	open := f.request(t, "s2", "101")
	closed := f.request(t, "s3", "102")
	_, err := f.store.Reject("admin", closed.ID)
	require.NoError(t, err)

	f.clock.Advance(24 * time.Hour)
	views := f.projector.AdminPasses()

	require.Len(t, views, 1)
	assert.Equal(t, open.ID, views[0].ID)
}

func TestProjector_PendingViews(t *testing.T) {
	f := newFixture(t)
	f.request(t, "s2", "101")
	returning := f.request(t, "s3", "102")
	_, err := f.store.Approve("admin", returning.ID)
	require.NoError(t, err)
	_, err = f.store.RequestReturn("s3", returning.ID)
	require.NoError(t, err)
	active := f.request(t, "s4", "Bathroom")
	_, err = f.store.Approve("admin", active.ID)
	require.NoError(t, err)

	assert.Len(t, f.projector.PendingPasses(), 2)
	count := f.projector.PendingCount()
	assert.Equal(t, PendingCount{PendingStart: 1, PendingReturn: 1, Total: 2}, count)
}

func TestProjector_OccupancyMarksCurrentRoom(t *testing.T) {
	f := newFixture(t)
	_, err := f.rooms.SetActive("admin", "102", false)
	require.NoError(t, err)

	rows, err := f.projector.Occupancy("s1")
	require.NoError(t, err)

	names := map[string]models.RoomOccupancy{}
	for _, r := range rows {
		names[r.Room] = r
	}
	assert.NotContains(t, names, "102")
	assert.True(t, names["101"].IsCurrent)
	assert.False(t, names["Bathroom"].IsCurrent)
	assert.Equal(t, 3, names["Bathroom"].Free)

	rows, err = f.projector.Occupancy("")
	require.NoError(t, err)
	for _, r := range rows {
		assert.False(t, r.IsCurrent)
	}
	assert.Len(t, f.projector.AdminRooms(), 3)
}

func TestProjector_StudentStatus(t *testing.T) {
	f := newFixture(t)

	status, err := f.projector.StudentStatus("s1")
	require.NoError(t, err)
	require.NotNil(t, status.Period)
	assert.Equal(t, "101", status.Period.Room)
	assert.Nil(t, status.Pass)

	pass := f.request(t, "s1", "101")
	status, err = f.projector.StudentStatus("s1")
	require.NoError(t, err)
	require.NotNil(t, status.Pass)
	assert.Equal(t, pass.ID, status.Pass.ID)
	assert.Equal(t, "pending_start", status.Pass.Status)
}

// Random operations must keep the occupancy counters equal to the number
// of open passes per room.
func TestProjector_OccupancyReconciles(t *testing.T) {
	f := newFixture(t)
	rng := rand.New(rand.NewSource(7))
	rooms := []string{"101", "102", "Bathroom"}

	for step := 0; step < 400; step++ {
		f.clock.Advance(time.Duration(rng.Intn(30)) * time.Second)
		student := fmt.Sprintf("x%d", rng.Intn(12))
		switch rng.Intn(5) {
		case 0, 1:
			_, _ = f.store.Create(NewPass{StudentID: student, Room: rooms[rng.Intn(len(rooms))], Override: rng.Intn(4) == 0})
		case 2:
			if p := f.store.OpenPass(student); p != nil {
				_, _ = f.store.Approve("admin", p.ID)
			}
		case 3:
			if p := f.store.OpenPass(student); p != nil {
				_, _ = f.store.Complete("admin", p.ID)
			}
		case 4:
			if p := f.store.OpenPass(student); p != nil {
				_, _ = f.store.Reject("admin", p.ID)
			}
		}

		open := map[uint][2]int{}
		perStudent := map[string]int{}
		for _, p := range f.store.Snapshot() {
			c := open[p.RoomID]
			switch p.Status {
			case models.StatusActive, models.StatusPendingReturn:
				c[0]++
			case models.StatusPendingStart:
				c[1]++
			}
			open[p.RoomID] = c
			if p.Status.IsOpen() {
				perStudent[p.StudentID]++
			}
		}
		for student, n := range perStudent {
			require.LessOrEqual(t, n, 1, "student %s has %d open passes", student, n)
		}
		for _, row := range f.projector.AdminRooms() {
			require.GreaterOrEqual(t, row.Free, 0)
			require.Equal(t, open[row.RoomID][0], row.Taken, "room %s taken", row.Room)
			require.Equal(t, open[row.RoomID][1], row.Pending, "room %s pending", row.Room)
		}
	}
}

func TestScenario_RequestApproveCheckin(t *testing.T) {
	f := newFixture(t)

	pass := f.request(t, "s1", "101")
	assert.Equal(t, 1, f.occupancyOf(t, "101").Pending)

	f.clock.Advance(15 * time.Second)
	approved, err := f.store.Approve("admin", pass.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, approved.Status)
	require.NotNil(t, approved.CheckoutTime)
	assert.Equal(t, 1, f.occupancyOf(t, "101").Taken)

	f.clock.Advance(4*time.Minute + 5*time.Second)
	done, err := f.store.Complete("admin", pass.ID)
	require.NoError(t, err)

	assert.Equal(t, models.StatusCompleted, done.Status)
	assert.Equal(t, 245, done.TotalSeconds)
	assert.Equal(t, 245, done.HallwaySeconds)
	assert.Equal(t, 0, f.occupancyOf(t, "101").Taken)
	assert.Equal(t, 2, f.occupancyOf(t, "101").Free)
}
