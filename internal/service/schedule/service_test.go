package schedule

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"habitloop/internal/apperr"
	"habitloop/internal/model"
	"habitloop/internal/recur"
)

type memScheduleStore struct {
	nextID    int
	schedules map[int]*model.Schedule
}

func newMemScheduleStore() *memScheduleStore {
	return &memScheduleStore{nextID: 1, schedules: make(map[int]*model.Schedule)}
}

func (m *memScheduleStore) InsertBatch(ctx context.Context, schedules []*model.Schedule) error {
	for _, s := range schedules {
		s.ID = m.nextID
		m.nextID++
		cp := *s
		m.schedules[s.ID] = &cp
	}
	return nil
}

func (m *memScheduleStore) GetByID(ctx context.Context, id int) (*model.Schedule, error) {
	s, ok := m.schedules[id]
	if !ok {
		return nil, apperr.NotFound("schedule not found")
	}
	cp := *s
	return &cp, nil
}

func (m *memScheduleStore) ListByUserBetween(ctx context.Context, userID int, from, to time.Time) ([]model.Schedule, error) {
	var out []model.Schedule
	for _, s := range m.schedules {
		if s.UserID == userID && !s.Date.Before(from) && !s.Date.After(to) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *memScheduleStore) Update(ctx context.Context, s *model.Schedule) error {
	if _, ok := m.schedules[s.ID]; !ok {
		return apperr.NotFound("schedule not found")
	}
	cp := *s
	m.schedules[s.ID] = &cp
	return nil
}

func (m *memScheduleStore) Delete(ctx context.Context, id int) error {
	if _, ok := m.schedules[id]; !ok {
		return apperr.NotFound("schedule not found")
	}
	delete(m.schedules, id)
	return nil
}

type memProgressStore struct {
	bySchedule map[int][]model.Progress
	deleted    []int
}

func newMemProgressStore() *memProgressStore {
	return &memProgressStore{bySchedule: make(map[int][]model.Progress)}
}

func (m *memProgressStore) ListBySchedule(ctx context.Context, scheduleID int) ([]model.Progress, error) {
	return m.bySchedule[scheduleID], nil
}

func (m *memProgressStore) DeleteBySchedule(ctx context.Context, scheduleID int) error {
	m.deleted = append(m.deleted, scheduleID)
	delete(m.bySchedule, scheduleID)
	return nil
}

type fakeHabits struct {
	habits map[int]*model.Habit
}

func (f *fakeHabits) GetByID(ctx context.Context, id int) (*model.Habit, error) {
	h, ok := f.habits[id]
	if !ok {
		return nil, apperr.NotFound("habit not found")
	}
	return h, nil
}

type recordingReminders struct {
	scheduled []int
	forgotten []int
}

func (r *recordingReminders) ScheduleReminder(ctx context.Context, s *model.Schedule) {
	r.scheduled = append(r.scheduled, s.ID)
}

func (r *recordingReminders) Forget(ctx context.Context, scheduleID int) {
	r.forgotten = append(r.forgotten, scheduleID)
}

const ownerID = 42

func newTestService() (*Service, *memScheduleStore, *memProgressStore, *recordingReminders) {
	schedules := newMemScheduleStore()
	progress := newMemProgressStore()
	habits := &fakeHabits{habits: map[int]*model.Habit{
		5: {ID: 5, UserID: ownerID, Name: "Reading"},
	}}
	reminders := &recordingReminders{}
	svc := NewService(schedules, progress, habits, reminders, zap.NewNop())
	return svc, schedules, progress, reminders
}

var start = time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC) // a Monday

func intp(v int) *int { return &v }

func statusp(s model.ScheduleStatus) *model.ScheduleStatus { return &s }

func TestCreateExpandsAndEnqueuesPerSchedule(t *testing.T) {
	svc, _, _, reminders := newTestService()

	created, err := svc.Create(context.Background(), ownerID, CreateInput{
		HabitID:   5,
		StartTime: start,
		Repeat:    recur.Spec{Pattern: recur.PatternDaily, RepeatDays: 3},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(created) != 3 {
		t.Fatalf("want 3 schedules, got %d", len(created))
	}
	if len(reminders.scheduled) != 3 {
		t.Fatalf("want 3 reminders enqueued, got %d", len(reminders.scheduled))
	}
	for _, s := range created {
		if s.Status != model.StatusPlanned {
			t.Errorf("schedule %d created with status %s", s.ID, s.Status)
		}
		if s.IsCustom {
			t.Errorf("repeat expansion produced a custom schedule")
		}
	}
}

func TestCreateCustomSingleOccurrence(t *testing.T) {
	svc, _, _, _ := newTestService()

	created, err := svc.Create(context.Background(), ownerID, CreateInput{
		HabitID:   5,
		StartTime: start,
		Repeat:    recur.Spec{Pattern: recur.PatternNone},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(created) != 1 || !created[0].IsCustom {
		t.Fatalf("want one custom schedule, got %+v", created)
	}
}

func TestCreateForbiddenForForeignHabit(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.Create(context.Background(), 99, CreateInput{
		HabitID:   5,
		StartTime: start,
		Repeat:    recur.Spec{Pattern: recur.PatternNone},
	})
	if !apperr.IsForbidden(err) {
		t.Fatalf("want Forbidden, got %v", err)
	}
}

func TestCreatePropagatesInvalidRepeatSpec(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.Create(context.Background(), ownerID, CreateInput{
		HabitID:   5,
		StartTime: start,
		Repeat:    recur.Spec{Pattern: recur.PatternWeekly},
	})
	if apperr.KindOf(err) != apperr.KindInvalidRepeatSpec {
		t.Fatalf("want InvalidRepeatSpec, got %v", err)
	}
}

func TestGetAuthorization(t *testing.T) {
	svc, store, _, _ := newTestService()
	store.InsertBatch(context.Background(), []*model.Schedule{{
		UserID:         ownerID,
		HabitID:        5,
		StartTime:      start,
		Status:         model.StatusPlanned,
		ParticipantIDs: []int{7},
	}})

	if _, err := svc.Get(context.Background(), 1, ownerID); err != nil {
		t.Errorf("owner read failed: %v", err)
	}
	if _, err := svc.Get(context.Background(), 1, 7); err != nil {
		t.Errorf("participant read failed: %v", err)
	}
	if _, err := svc.Get(context.Background(), 1, 8); !apperr.IsForbidden(err) {
		t.Errorf("stranger read: want Forbidden, got %v", err)
	}
	if _, err := svc.Get(context.Background(), 404, ownerID); !apperr.IsNotFound(err) {
		t.Errorf("missing schedule: want NotFound, got %v", err)
	}
}

func TestUpdateRefusesRevertWhenNaturallyComplete(t *testing.T) {
	svc, store, progress, _ := newTestService()
	store.InsertBatch(context.Background(), []*model.Schedule{{
		UserID:          ownerID,
		HabitID:         5,
		StartTime:       start,
		DurationMinutes: intp(30),
		Status:          model.StatusPlanned,
	}})
	progress.bySchedule[1] = []model.Progress{{ScheduleID: 1, LoggedTime: intp(30)}}

	_, err := svc.Update(context.Background(), 1, ownerID, UpdateInput{
		Status: statusp(model.StatusPlanned),
	})
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("want Validation for locked completion, got %v", err)
	}
}

func TestUpdateAllowsRevertingManualCompletion(t *testing.T) {
	svc, store, progress, _ := newTestService()
	store.InsertBatch(context.Background(), []*model.Schedule{{
		UserID:          ownerID,
		HabitID:         5,
		StartTime:       start,
		DurationMinutes: intp(60),
		Status:          model.StatusCompleted,
	}})
	progress.bySchedule[1] = []model.Progress{{ScheduleID: 1, LoggedTime: intp(20), IsCompleted: true}}

	view, err := svc.Update(context.Background(), 1, ownerID, UpdateInput{
		Status: statusp(model.StatusPlanned),
	})
	if err != nil {
		t.Fatalf("reverting a manual completion must succeed: %v", err)
	}
	if view.Status != model.StatusPlanned {
		t.Errorf("status = %s, want planned", view.Status)
	}
	if view.Completion.Checked {
		t.Errorf("reverted schedule still reports checked")
	}
}

func TestUpdateOwnerOnly(t *testing.T) {
	svc, store, _, _ := newTestService()
	store.InsertBatch(context.Background(), []*model.Schedule{{
		UserID:         ownerID,
		HabitID:        5,
		StartTime:      start,
		Status:         model.StatusPlanned,
		ParticipantIDs: []int{7},
	}})

	// Participants may read but not edit.
	if _, err := svc.Update(context.Background(), 1, 7, UpdateInput{Notes: strp("x")}); !apperr.IsForbidden(err) {
		t.Fatalf("want Forbidden for participant edit, got %v", err)
	}
}

func TestDeleteCascadesProgressAndForgetsReminder(t *testing.T) {
	svc, store, progress, reminders := newTestService()
	store.InsertBatch(context.Background(), []*model.Schedule{{
		UserID:    ownerID,
		HabitID:   5,
		StartTime: start,
		Status:    model.StatusPlanned,
	}})
	progress.bySchedule[1] = []model.Progress{{ScheduleID: 1, LoggedTime: intp(10)}}

	if err := svc.Delete(context.Background(), 1, ownerID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(progress.deleted) != 1 || progress.deleted[0] != 1 {
		t.Errorf("progress cascade missing: %v", progress.deleted)
	}
	if len(reminders.forgotten) != 1 || reminders.forgotten[0] != 1 {
		t.Errorf("reminder forget missing: %v", reminders.forgotten)
	}
	if _, err := store.GetByID(context.Background(), 1); !apperr.IsNotFound(err) {
		t.Errorf("schedule still present after delete")
	}
}

func TestUpdateDateMovesTimeOfDayAlong(t *testing.T) {
	svc, store, _, _ := newTestService()
	end := start.Add(time.Hour)
	store.InsertBatch(context.Background(), []*model.Schedule{{
		UserID:    ownerID,
		HabitID:   5,
		Date:      time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		StartTime: start,
		EndTime:   &end,
		Status:    model.StatusPlanned,
	}})

	newDate := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	view, err := svc.Update(context.Background(), 1, ownerID, UpdateInput{Date: &newDate})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if view.StartTime.Day() != 10 || view.StartTime.Hour() != 18 {
		t.Errorf("start = %v, want 18:00 on the 10th", view.StartTime)
	}
	if view.EndTime == nil || view.EndTime.Day() != 10 || view.EndTime.Hour() != 19 {
		t.Errorf("end = %v, want 19:00 on the 10th", view.EndTime)
	}
}

func strp(s string) *string { return &s }
