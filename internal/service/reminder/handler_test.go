package reminder

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"habitloop/internal/apperr"
	"habitloop/internal/model"
)

type fakeScheduleStore struct {
	schedules map[int]*model.Schedule
}

func (f *fakeScheduleStore) GetByID(ctx context.Context, id int) (*model.Schedule, error) {
	s, ok := f.schedules[id]
	if !ok {
		return nil, apperr.NotFound("schedule not found")
	}
	return s, nil
}

type fakeHabitDir struct {
	habits map[int]*model.Habit
}

func (f *fakeHabitDir) GetByID(ctx context.Context, id int) (*model.Habit, error) {
	h, ok := f.habits[id]
	if !ok {
		return nil, apperr.NotFound("habit not found")
	}
	return h, nil
}

type fakeTokenDir struct {
	tokens map[int]string
}

func (f *fakeTokenDir) ResolvePushToken(ctx context.Context, userID int) (string, error) {
	return f.tokens[userID], nil
}

type recordingSender struct {
	sent []string // "token|title|body"
	err  error
}

func (r *recordingSender) Send(ctx context.Context, token, title, body string) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, token+"|"+title+"|"+body)
	return nil
}

func duePayload(t *testing.T, id int) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(DuePayload{ScheduleID: id})
	if err != nil {
		t.Fatal(err)
	}
	return raw
}

func newTestHandler(schedules *fakeScheduleStore, habits *fakeHabitDir, tokens *fakeTokenDir, sender *recordingSender) *DueHandler {
	return NewDueHandler(schedules, habits, tokens, sender, nil, zap.NewNop())
}

func plannedSchedule(id, userID, habitID int) *model.Schedule {
	return &model.Schedule{
		ID:        id,
		UserID:    userID,
		HabitID:   habitID,
		StartTime: time.Now().Add(10 * time.Minute),
		Status:    model.StatusPlanned,
	}
}

func TestHandleDispatchesReminder(t *testing.T) {
	sender := &recordingSender{}
	h := newTestHandler(
		&fakeScheduleStore{schedules: map[int]*model.Schedule{7: plannedSchedule(7, 42, 3)}},
		&fakeHabitDir{habits: map[int]*model.Habit{3: {ID: 3, Name: "Morning run"}}},
		&fakeTokenDir{tokens: map[int]string{42: "device-abc"}},
		sender,
	)

	if err := h.Handle(context.Background(), duePayload(t, 7)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("want 1 push, got %d", len(sender.sent))
	}
	want := "device-abc|Morning run|Reminder: Morning run starts soon."
	if sender.sent[0] != want {
		t.Errorf("push = %q, want %q", sender.sent[0], want)
	}
}

func TestHandleSkipsDeletedSchedule(t *testing.T) {
	sender := &recordingSender{}
	h := newTestHandler(
		&fakeScheduleStore{schedules: map[int]*model.Schedule{}},
		&fakeHabitDir{habits: map[int]*model.Habit{}},
		&fakeTokenDir{tokens: map[int]string{}},
		sender,
	)

	// The job outlived its schedule; that is the cancellation mechanism,
	// not an error.
	if err := h.Handle(context.Background(), duePayload(t, 99)); err != nil {
		t.Fatalf("handle returned error for deleted schedule: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatal("push sent for deleted schedule")
	}
}

func TestHandleSkipsNonPlannedSchedule(t *testing.T) {
	sched := plannedSchedule(8, 42, 3)
	sched.Status = model.StatusCompleted
	sender := &recordingSender{}
	h := newTestHandler(
		&fakeScheduleStore{schedules: map[int]*model.Schedule{8: sched}},
		&fakeHabitDir{habits: map[int]*model.Habit{3: {ID: 3, Name: "Morning run"}}},
		&fakeTokenDir{tokens: map[int]string{42: "device-abc"}},
		sender,
	)

	if err := h.Handle(context.Background(), duePayload(t, 8)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatal("push sent for completed schedule")
	}
}

func TestHandleSkipsWhenNoToken(t *testing.T) {
	sender := &recordingSender{}
	h := newTestHandler(
		&fakeScheduleStore{schedules: map[int]*model.Schedule{7: plannedSchedule(7, 42, 3)}},
		&fakeHabitDir{habits: map[int]*model.Habit{3: {ID: 3, Name: "Morning run"}}},
		&fakeTokenDir{tokens: map[int]string{}},
		sender,
	)

	if err := h.Handle(context.Background(), duePayload(t, 7)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatal("push sent without a destination")
	}
}

func TestHandleSwallowsDispatchFailure(t *testing.T) {
	sender := &recordingSender{err: errors.New("fcm unavailable")}
	h := newTestHandler(
		&fakeScheduleStore{schedules: map[int]*model.Schedule{7: plannedSchedule(7, 42, 3)}},
		&fakeHabitDir{habits: map[int]*model.Habit{3: {ID: 3, Name: "Morning run"}}},
		&fakeTokenDir{tokens: map[int]string{42: "device-abc"}},
		sender,
	)

	// No retry: a failed reminder is reported in logs, never requeued.
	if err := h.Handle(context.Background(), duePayload(t, 7)); err != nil {
		t.Fatalf("dispatch failure must not fail the job, got %v", err)
	}
}

func TestHandleIgnoresMalformedPayload(t *testing.T) {
	sender := &recordingSender{}
	h := newTestHandler(
		&fakeScheduleStore{schedules: map[int]*model.Schedule{}},
		&fakeHabitDir{habits: map[int]*model.Habit{}},
		&fakeTokenDir{tokens: map[int]string{}},
		sender,
	)
	if err := h.Handle(context.Background(), json.RawMessage(`{"schedule_id":`)); err != nil {
		t.Fatalf("malformed payload must not requeue, got %v", err)
	}
}
