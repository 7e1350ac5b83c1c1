package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	"hallpass-service/internal/models"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{now: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// recordingPersister keeps what was written and can be told to fail.
type recordingPersister struct {
	mu      sync.Mutex
	passes  map[uint]models.Pass
	audits  []models.AuditLog
	failing bool
}

func newRecordingPersister() *recordingPersister {
	return &recordingPersister{passes: make(map[uint]models.Pass)}
}

var errStorageDown = errors.New("storage unavailable")

func (p *recordingPersister) CreatePass(pass *models.Pass) error { return p.SavePass(pass) }

func (p *recordingPersister) SavePass(pass *models.Pass) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failing {
		return errStorageDown
	}
	p.passes[pass.ID] = *pass
	return nil
}

func (p *recordingPersister) SavePasses(passes []models.Pass) error {
	for i := range passes {
		if err := p.SavePass(&passes[i]); err != nil {
			return err
		}
	}
	return nil
}

func (p *recordingPersister) CreateAuditLog(entry *models.AuditLog) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failing {
		return errStorageDown
	}
	p.audits = append(p.audits, *entry)
	return nil
}

type mapRoster map[string]string

func (r mapRoster) GetStudent(id string) (*models.Student, error) {
	name, ok := r[id]
	if !ok {
		return nil, nil
	}
	return &models.Student{ID: id, Name: name}, nil
}

type fixture struct {
	clock     *fakeClock
	rooms     *RoomRegistry
	store     *PassStore
	schedule  *ScheduleMatcher
	projector *Projector
	persist   *recordingPersister
}

// 08:10 UTC on a Monday, inside period 1.
var fixtureStart = time.Date(2024, 3, 4, 8, 10, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := newFakeClock(fixtureStart)
	persist := newRecordingPersister()

	source := &StaticSchedule{
		Windows: []models.PeriodWindow{
			{Label: "1", Sequence: 1, Start: "08:00", End: "08:50"},
			{Label: "2", Sequence: 2, Start: "08:55", End: "09:45"},
		},
		Assignments: map[string][]models.StudentPeriod{
			"s1": {
				{StudentID: "s1", Period: "1", RoomID: 1},
				{StudentID: "s1", Period: "2", RoomID: 2},
			},
		},
	}
	schedule := NewScheduleMatcher(source, time.UTC)
	require.NoError(t, schedule.Reload())

	rooms := NewRoomRegistry(RegistryOptions{
		Audit:        persist,
		Logger:       zap.NewNop(),
		Clock:        clock.Now,
		Location:     time.UTC,
		StationSlots: 3,
		RoomSlots:    2,
	})
	store := NewPassStore(StoreOptions{
		Rooms:     rooms,
		Schedule:  schedule,
		Persister: persist,
		Audit:     persist,
		Logger:    zap.NewNop(),
		Clock:     clock.Now,
	})

	// Created in order so 101, 102 and Bathroom get ids 1, 2 and 3.
	for _, r := range []struct {
		name string
		kind models.RoomType
	}{
		{"101", models.RoomTypeRoom},
		{"102", models.RoomTypeRoom},
		{"Bathroom", models.RoomTypeStation},
	} {
		_, err := rooms.Create("admin", r.name, r.kind, 0)
		require.NoError(t, err)
	}

	return &fixture{
		clock:     clock,
		rooms:     rooms,
		store:     store,
		schedule:  schedule,
		projector: NewProjector(store, rooms, schedule, clock.Now, time.UTC),
		persist:   persist,
	}
}

func (f *fixture) request(t *testing.T, studentID, room string) *models.Pass {
	t.Helper()
	pass, err := f.store.Create(NewPass{StudentID: studentID, Room: room, Actor: studentID})
	require.NoError(t, err)
	return pass
}

func (f *fixture) occupancyOf(t *testing.T, room string) models.RoomOccupancy {
	t.Helper()
	for _, row := range f.projector.AdminRooms() {
		if row.Room == room {
			return row
		}
	}
	t.Fatalf("room %s missing from occupancy", room)
	return models.RoomOccupancy{}
}
