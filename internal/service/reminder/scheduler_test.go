package reminder

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"habitloop/internal/model"
)

type fakePublisher struct {
	published []time.Duration
	err       error
}

func (f *fakePublisher) PublishDelayed(routingKey string, payload any, delay time.Duration) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, delay)
	return nil
}

func TestScheduleReminderDelay(t *testing.T) {
	pub := &fakePublisher{}
	s := NewScheduler(pub, nil, 10, zap.NewNop())
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	sched := &model.Schedule{ID: 1, StartTime: now.Add(2 * time.Hour)}
	s.ScheduleReminder(context.Background(), sched)

	if len(pub.published) != 1 {
		t.Fatalf("want 1 enqueue, got %d", len(pub.published))
	}
	if want := 110 * time.Minute; pub.published[0] != want {
		t.Errorf("delay = %v, want %v", pub.published[0], want)
	}
}

func TestScheduleReminderSkipsPastDue(t *testing.T) {
	pub := &fakePublisher{}
	s := NewScheduler(pub, nil, 10, zap.NewNop())
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	// Starts in 5 minutes with a 10 minute lead: computed delay is
	// negative, so no job at all.
	sched := &model.Schedule{ID: 2, StartTime: now.Add(5 * time.Minute)}
	s.ScheduleReminder(context.Background(), sched)

	if len(pub.published) != 0 {
		t.Fatalf("past-due reminder was enqueued")
	}
}

func TestScheduleReminderSwallowsPublishErrors(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	s := NewScheduler(pub, nil, 10, zap.NewNop())
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	// Must not panic or propagate; reminders are best-effort.
	s.ScheduleReminder(context.Background(), &model.Schedule{ID: 3, StartTime: now.Add(time.Hour)})
}

func TestNewSchedulerDefaultsLead(t *testing.T) {
	pub := &fakePublisher{}
	s := NewScheduler(pub, nil, 0, zap.NewNop())
	if s.lead != DefaultLeadMinutes*time.Minute {
		t.Errorf("lead = %v, want %v", s.lead, DefaultLeadMinutes*time.Minute)
	}
}
