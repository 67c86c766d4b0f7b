package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ewilliams-labs/reveille/internal/core/domain"
	"github.com/ewilliams-labs/reveille/internal/core/ports"
)

// --- Mocks ---

// memStore is an in-memory alarm store capturing every saved snapshot.
type memStore struct {
	mu      sync.Mutex
	alarms  []domain.Alarm
	saves   int
	saveErr error
	loadErr error
}

func (m *memStore) Load(ctx context.Context) ([]domain.Alarm, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	out := make([]domain.Alarm, len(m.alarms))
	copy(out, m.alarms)
	return out, nil
}

func (m *memStore) Save(ctx context.Context, alarms []domain.Alarm) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.alarms = make([]domain.Alarm, len(alarms))
	copy(m.alarms, alarms)
	return nil
}

func (m *memStore) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func (m *memStore) stored(id string) (domain.Alarm, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, alarm := range m.alarms {
		if alarm.ID == id {
			return alarm, true
		}
	}
	return domain.Alarm{}, false
}

// recorderPlayer reports every playback on a channel.
type recorderPlayer struct {
	played chan domain.Alarm
	err    error
}

func newRecorderPlayer() *recorderPlayer {
	return &recorderPlayer{played: make(chan domain.Alarm, 16)}
}

func (p *recorderPlayer) Play(ctx context.Context, alarm domain.Alarm) error {
	p.played <- alarm
	return p.err
}

func newTestScheduler(store *memStore) (*Scheduler, *recorderPlayer) {
	player := newRecorderPlayer()
	registry := NewRegistry()
	registry.Register("tone", player)
	return NewScheduler(store, registry), player
}

// alarmDueIn builds an enabled UTC alarm whose time-of-day is d from now.
func alarmDueIn(t *testing.T, id string, d time.Duration, repeatDays []int) domain.Alarm {
	t.Helper()
	at := time.Now().UTC().Add(d)
	alarm, err := domain.NewAlarm(domain.Alarm{
		ID:         id,
		Hour:       at.Hour(),
		Minute:     at.Minute(),
		Second:     at.Second(),
		Timezone:   "UTC",
		RepeatDays: repeatDays,
		Enabled:    true,
	})
	if err != nil {
		t.Fatalf("NewAlarm: %v", err)
	}
	return alarm
}

func waitDisabled(t *testing.T, s *Scheduler, id string, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if alarm, ok := s.Snapshot()[id]; ok && !alarm.Enabled {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("alarm %q not disabled within %s", id, timeout)
}

// --- Tests ---

func TestSchedulerFiresOneShotAndDisables(t *testing.T) {
	store := &memStore{}
	sched, player := newTestScheduler(store)

	if err := sched.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer sched.Stop()

	if err := sched.Add(context.Background(), alarmDueIn(t, "wake", 2*time.Second, nil)); err != nil {
		t.Fatalf("add: %v", err)
	}

	select {
	case fired := <-player.played:
		if fired.ID != "wake" {
			t.Fatalf("expected alarm wake, got %q", fired.ID)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("alarm did not fire within 5s")
	}

	waitDisabled(t, sched, "wake", 2*time.Second)
	if stored, ok := store.stored("wake"); !ok || stored.Enabled {
		t.Fatalf("expected persisted alarm to be disabled, got %+v ok=%v", stored, ok)
	}

	select {
	case <-player.played:
		t.Fatal("one-shot alarm fired twice")
	case <-time.After(1500 * time.Millisecond):
	}
}

func TestSchedulerAddDuplicate(t *testing.T) {
	store := &memStore{}
	sched, _ := newTestScheduler(store)

	alarm := alarmDueIn(t, "wake", time.Hour, nil)
	if err := sched.Add(context.Background(), alarm); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := sched.Add(context.Background(), alarm); !errors.Is(err, domain.ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	if got := store.saveCount(); got != 1 {
		t.Fatalf("duplicate add must leave the store unchanged, got %d saves", got)
	}
}

func TestSchedulerDisableCancelsPendingFire(t *testing.T) {
	store := &memStore{}
	sched, player := newTestScheduler(store)

	if err := sched.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer sched.Stop()

	if err := sched.Add(context.Background(), alarmDueIn(t, "wake", 1500*time.Millisecond, nil)); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := sched.Disable(context.Background(), "wake"); err != nil {
		t.Fatalf("disable: %v", err)
	}

	select {
	case <-player.played:
		t.Fatal("disabled alarm fired")
	case <-time.After(2500 * time.Millisecond):
	}

	if alarm := sched.Snapshot()["wake"]; alarm.Enabled {
		t.Fatal("alarm still enabled after disable")
	}
}

func TestSchedulerUpdateReschedules(t *testing.T) {
	store := &memStore{}
	sched, player := newTestScheduler(store)

	if err := sched.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer sched.Stop()

	if err := sched.Add(context.Background(), alarmDueIn(t, "wake", 1500*time.Millisecond, nil)); err != nil {
		t.Fatalf("add: %v", err)
	}

	// Move the alarm onto a weekday three days out; the original one-off
	// slot must no longer fire.
	future := time.Now().UTC().Add(72 * time.Hour)
	weekday := (int(future.Weekday()) + 6) % 7
	if err := sched.Update(context.Background(), alarmDueIn(t, "wake", 1500*time.Millisecond, []int{weekday})); err != nil {
		t.Fatalf("update: %v", err)
	}

	select {
	case <-player.played:
		t.Fatal("alarm fired on the superseded one-off slot")
	case <-time.After(2500 * time.Millisecond):
	}
}

func TestSchedulerTriggerNow(t *testing.T) {
	store := &memStore{}
	sched, player := newTestScheduler(store)

	if err := sched.Add(context.Background(), alarmDueIn(t, "wake", time.Hour, nil)); err != nil {
		t.Fatalf("add: %v", err)
	}
	saves := store.saveCount()

	if err := sched.TriggerNow(context.Background(), "wake"); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	select {
	case <-player.played:
	case <-time.After(time.Second):
		t.Fatal("trigger did not dispatch playback")
	}

	if alarm := sched.Snapshot()["wake"]; !alarm.Enabled {
		t.Fatal("trigger must not touch enabled state")
	}
	if got := store.saveCount(); got != saves {
		t.Fatalf("trigger must not persist, saves went %d -> %d", saves, got)
	}
}

func TestSchedulerSaveFailureLeavesLiveStateUntouched(t *testing.T) {
	store := &memStore{saveErr: ports.StorageError{Op: "save", Err: errors.New("disk full")}}
	sched, _ := newTestScheduler(store)

	err := sched.Add(context.Background(), alarmDueIn(t, "wake", time.Hour, nil))
	if !errors.Is(err, ports.ErrStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if _, ok := sched.Snapshot()["wake"]; ok {
		t.Fatal("failed add must not commit to the live mapping")
	}
}

func TestSchedulerStartSpawnsOnlyEnabled(t *testing.T) {
	enabled := alarmDueIn(t, "on", 1500*time.Millisecond, nil)
	disabled := alarmDueIn(t, "off", 1500*time.Millisecond, nil)
	disabled.Enabled = false
	store := &memStore{alarms: []domain.Alarm{enabled, disabled}}
	sched, player := newTestScheduler(store)

	if err := sched.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer sched.Stop()

	select {
	case fired := <-player.played:
		if fired.ID != "on" {
			t.Fatalf("expected alarm on, got %q", fired.ID)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("enabled alarm did not fire")
	}

	select {
	case fired := <-player.played:
		t.Fatalf("unexpected fire from %q", fired.ID)
	case <-time.After(time.Second):
	}
}

func TestSchedulerNotFound(t *testing.T) {
	sched, _ := newTestScheduler(&memStore{})
	ctx := context.Background()

	if err := sched.Update(ctx, alarmDueIn(t, "ghost", time.Hour, nil)); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("update: expected ErrNotFound, got %v", err)
	}
	if err := sched.Remove(ctx, "ghost"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("remove: expected ErrNotFound, got %v", err)
	}
	if err := sched.Enable(ctx, "ghost"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("enable: expected ErrNotFound, got %v", err)
	}
	if err := sched.Disable(ctx, "ghost"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("disable: expected ErrNotFound, got %v", err)
	}
	if err := sched.TriggerNow(ctx, "ghost"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("trigger: expected ErrNotFound, got %v", err)
	}
}

func TestSchedulerStopIsIdempotentAndRestartable(t *testing.T) {
	store := &memStore{}
	sched, _ := newTestScheduler(store)

	if err := sched.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	sched.Stop()
	sched.Stop()
	if err := sched.Start(context.Background()); err != nil {
		t.Fatalf("restart: %v", err)
	}
	sched.Stop()
}
