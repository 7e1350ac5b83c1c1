package service

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"hallpass-service/internal/models"
)

// ScheduleSource loads the bell schedule and per-student assignments.
type ScheduleSource interface {
	ListPeriodWindows() ([]models.PeriodWindow, error)
	ListStudentPeriods(studentID string) ([]models.StudentPeriod, error)
}

// ScheduleMatcher resolves the period a student is currently in.
type ScheduleMatcher struct {
	mu       sync.RWMutex
	windows  []periodWindow
	source   ScheduleSource
	location *time.Location
}

type periodWindow struct {
	label    string
	sequence int
	start    int // minutes since midnight
	end      int
	raw      models.PeriodWindow
}

// CurrentPeriod is the schedule entry matched for a student. Room is the
// display name, filled in from the registry by the caller.
type CurrentPeriod struct {
	Period string `json:"period"`
	RoomID uint   `json:"room_id"`
	Room   string `json:"room"`
	Start  string `json:"start"`
	End    string `json:"end"`
}

func NewScheduleMatcher(source ScheduleSource, location *time.Location) *ScheduleMatcher {
	if location == nil {
		location = time.Local
	}
	return &ScheduleMatcher{source: source, location: location}
}

// Load replaces the bell schedule. Windows are ordered by declared sequence;
// ties keep the order they were given in.
func (m *ScheduleMatcher) Load(windows []models.PeriodWindow) error {
	parsed := make([]periodWindow, 0, len(windows))
	for i, w := range windows {
		start, err := parseClock(w.Start)
		if err != nil {
			return validationError("period %s: %v", w.Label, err)
		}
		end, err := parseClock(w.End)
		if err != nil {
			return validationError("period %s: %v", w.Label, err)
		}
		if end < start {
			return validationError("period %s ends before it starts", w.Label)
		}
		seq := w.Sequence
		if seq == 0 {
			seq = i + 1
		}
		parsed = append(parsed, periodWindow{label: w.Label, sequence: seq, start: start, end: end, raw: w})
	}
	sort.SliceStable(parsed, func(i, j int) bool {
		return parsed[i].sequence < parsed[j].sequence
	})

	m.mu.Lock()
	m.windows = parsed
	m.mu.Unlock()
	return nil
}

// Reload pulls the windows from the schedule source.
func (m *ScheduleMatcher) Reload() error {
	windows, err := m.source.ListPeriodWindows()
	if err != nil {
		return fmt.Errorf("failed to load period windows: %w", err)
	}
	return m.Load(windows)
}

// CurrentPeriod returns the first window, in sequence order, that contains
// now and that the student has a room assignment for.
func (m *ScheduleMatcher) CurrentPeriod(studentID string, now time.Time) (*CurrentPeriod, error) {
	if studentID == "" {
		return nil, nil
	}
	assignments, err := m.source.ListStudentPeriods(studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load schedule for %s: %w", studentID, err)
	}
	if len(assignments) == 0 {
		return nil, nil
	}
	rooms := make(map[string]uint, len(assignments))
	for _, a := range assignments {
		rooms[a.Period] = a.RoomID
	}

	minute := m.minuteOfDay(now)
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, w := range m.windows {
		if minute < w.start || minute > w.end {
			continue
		}
		if room, ok := rooms[w.label]; ok {
			return &CurrentPeriod{Period: w.label, RoomID: room, Start: w.raw.Start, End: w.raw.End}, nil
		}
	}
	return nil, nil
}

// RoomForPeriod returns the id of the student's assigned room for an
// explicit period, or 0 when there is none.
func (m *ScheduleMatcher) RoomForPeriod(studentID, period string) (uint, error) {
	assignments, err := m.source.ListStudentPeriods(studentID)
	if err != nil {
		return 0, fmt.Errorf("failed to load schedule for %s: %w", studentID, err)
	}
	for _, a := range assignments {
		if a.Period == period {
			return a.RoomID, nil
		}
	}
	return 0, nil
}

// Matches lists every window with its match flag for the debug view.
func (m *ScheduleMatcher) Matches(now time.Time) []models.PeriodMatch {
	minute := m.minuteOfDay(now)
	clock := now.In(m.location).Format("15:04:05")

	m.mu.RLock()
	defer m.mu.RUnlock()
	matches := make([]models.PeriodMatch, 0, len(m.windows))
	for _, w := range m.windows {
		matches = append(matches, models.PeriodMatch{
			Period: w.label,
			Start:  w.raw.Start,
			End:    w.raw.End,
			Now:    clock,
			Match:  minute >= w.start && minute <= w.end,
		})
	}
	return matches
}

func (m *ScheduleMatcher) minuteOfDay(now time.Time) int {
	local := now.In(m.location)
	return local.Hour()*60 + local.Minute()
}

func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("bad time %q, expected HH:MM", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// ParsePeriodSchedule reads the PERIOD_SCHEDULE format
// "1=08:00-08:50,2=08:55-09:45". Sequence follows declaration order.
func ParsePeriodSchedule(spec string) ([]models.PeriodWindow, error) {
	var windows []models.PeriodWindow
	for i, entry := range strings.Split(spec, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		label, span, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("period entry %q: missing '='", entry)
		}
		start, end, ok := strings.Cut(span, "-")
		if !ok {
			return nil, fmt.Errorf("period entry %q: missing '-'", entry)
		}
		windows = append(windows, models.PeriodWindow{
			Label:    strings.TrimSpace(label),
			Sequence: i + 1,
			Start:    strings.TrimSpace(start),
			End:      strings.TrimSpace(end),
		})
	}
	return windows, nil
}
