package sweeper

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

// fakeStore mimics the repository's planned-only update: rows flip once,
// re-running matches nothing.
type fakeStore struct {
	plannedDates []time.Time
	calls        []time.Time
}

func (f *fakeStore) MarkMissedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	f.calls = append(f.calls, cutoff)
	var remaining []time.Time
	var swept int64
	for _, d := range f.plannedDates {
		if d.Before(cutoff) {
			swept++
			continue
		}
		remaining = append(remaining, d)
	}
	f.plannedDates = remaining
	return swept, nil
}

type fakeLock struct {
	granted bool
	asked   []string
}

func (f *fakeLock) TryAcquire(ctx context.Context, day string) bool {
	f.asked = append(f.asked, day)
	return f.granted
}

var today = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func newTestSweeper(store *fakeStore, lock Locker) *Sweeper {
	s := New(store, lock, zap.NewNop())
	s.now = func() time.Time { return today.Add(10 * time.Minute) }
	return s
}

func TestSweepFlipsOnlyPastSchedules(t *testing.T) {
	store := &fakeStore{plannedDates: []time.Time{
		today.AddDate(0, 0, -1), // yesterday: swept
		today,                   // today: untouched
		today.AddDate(0, 0, 1),  // tomorrow: untouched
	}}
	s := newTestSweeper(store, nil)

	count, err := s.Sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if count != 1 {
		t.Fatalf("swept %d, want 1", count)
	}
	if len(store.plannedDates) != 2 {
		t.Errorf("remaining planned = %d, want 2", len(store.plannedDates))
	}
}

func TestSweepIdempotent(t *testing.T) {
	store := &fakeStore{plannedDates: []time.Time{
		today.AddDate(0, 0, -3),
		today.AddDate(0, 0, -1),
	}}
	s := newTestSweeper(store, nil)

	first, err := s.Sweep(context.Background())
	if err != nil {
		t.Fatalf("first sweep: %v", err)
	}
	if first != 2 {
		t.Fatalf("first sweep = %d, want 2", first)
	}

	second, err := s.Sweep(context.Background())
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if second != 0 {
		t.Errorf("second sweep changed %d rows, want 0", second)
	}
}

func TestSweepSkipsWhenLockDenied(t *testing.T) {
	store := &fakeStore{plannedDates: []time.Time{today.AddDate(0, 0, -1)}}
	lock := &fakeLock{granted: false}
	s := newTestSweeper(store, lock)

	count, err := s.Sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if count != 0 || len(store.calls) != 0 {
		t.Errorf("locked-out sweep still ran: count=%d calls=%d", count, len(store.calls))
	}
	if len(lock.asked) != 1 || lock.asked[0] != "2026-03-02" {
		t.Errorf("lock asked with %v, want day key 2026-03-02", lock.asked)
	}
}
