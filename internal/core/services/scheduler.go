// Package services contains the core orchestration logic: the player
// registry and the alarm scheduler.
package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ewilliams-labs/reveille/internal/core/domain"
	"github.com/ewilliams-labs/reveille/internal/core/ports"
)

// Scheduler owns the live alarm collection and runs one timer goroutine per
// enabled alarm. Every mutation holds one lock across the in-memory change
// and the persistence call, so the durable snapshot and the live mapping
// never observably diverge. Saves happen before the live mapping commits: a
// failed save surfaces the error and leaves live state untouched.
type Scheduler struct {
	store   ports.AlarmStore
	players *Registry

	mu      sync.Mutex
	alarms  map[string]domain.Alarm
	tasks   map[string]*timerTask
	started bool
}

// timerTask tracks one per-alarm goroutine. done closes when the goroutine
// has fully unwound, letting cancelling operations wait for its exit.
type timerTask struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler constructs a stopped Scheduler over the given store and
// player registry.
func NewScheduler(store ports.AlarmStore, players *Registry) *Scheduler {
	return &Scheduler{
		store:   store,
		players: players,
		alarms:  make(map[string]domain.Alarm),
		tasks:   make(map[string]*timerTask),
	}
}

// Start loads the persisted alarm set into the live mapping and spawns a
// timer goroutine for every enabled alarm. Starting an already started
// scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}
	alarms, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("scheduler: start: %w", err)
	}
	s.alarms = make(map[string]domain.Alarm, len(alarms))
	for _, alarm := range alarms {
		s.alarms[alarm.ID] = alarm
	}
	s.started = true
	for _, alarm := range alarms {
		if alarm.Enabled {
			s.spawnLocked(alarm.ID)
		}
	}
	return nil
}

// Stop cancels every timer goroutine and waits for each to unwind. The
// scheduler can be started again afterwards.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	tasks := make([]*timerTask, 0, len(s.tasks))
	for _, task := range s.tasks {
		task.cancel()
		tasks = append(tasks, task)
	}
	s.tasks = make(map[string]*timerTask)
	s.started = false
	s.mu.Unlock()
	for _, task := range tasks {
		<-task.done
	}
}

// Add inserts a new alarm, persists the full set, and spawns its timer when
// the scheduler is started and the alarm is enabled.
func (s *Scheduler) Add(ctx context.Context, alarm domain.Alarm) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.alarms[alarm.ID]; exists {
		return fmt.Errorf("scheduler: add %q: %w", alarm.ID, domain.ErrDuplicateID)
	}
	if err := s.store.Save(ctx, s.collectLocked(&alarm, "")); err != nil {
		return fmt.Errorf("scheduler: add %q: %w", alarm.ID, err)
	}
	s.alarms[alarm.ID] = alarm
	if s.started && alarm.Enabled {
		s.spawnLocked(alarm.ID)
	}
	return nil
}

// Update replaces an existing alarm and fully restarts its timer. This is
// the only path that lets time and repeat fields change safely.
func (s *Scheduler) Update(ctx context.Context, alarm domain.Alarm) error {
	s.mu.Lock()
	if _, exists := s.alarms[alarm.ID]; !exists {
		s.mu.Unlock()
		return fmt.Errorf("scheduler: update %q: %w", alarm.ID, domain.ErrNotFound)
	}
	if err := s.store.Save(ctx, s.collectLocked(&alarm, "")); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("scheduler: update %q: %w", alarm.ID, err)
	}
	s.alarms[alarm.ID] = alarm
	task := s.detachLocked(alarm.ID)
	if s.started && alarm.Enabled {
		s.spawnLocked(alarm.ID)
	}
	s.mu.Unlock()
	awaitExit(task)
	return nil
}

// Remove deletes an alarm, persists the reduced set, and cancels its timer.
func (s *Scheduler) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	if _, exists := s.alarms[id]; !exists {
		s.mu.Unlock()
		return fmt.Errorf("scheduler: remove %q: %w", id, domain.ErrNotFound)
	}
	if err := s.store.Save(ctx, s.collectLocked(nil, id)); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("scheduler: remove %q: %w", id, err)
	}
	delete(s.alarms, id)
	task := s.detachLocked(id)
	s.mu.Unlock()
	awaitExit(task)
	return nil
}

// Enable flips an alarm to enabled and spawns its timer. Enabling an already
// enabled alarm is a no-op.
func (s *Scheduler) Enable(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	alarm, exists := s.alarms[id]
	if !exists {
		return fmt.Errorf("scheduler: enable %q: %w", id, domain.ErrNotFound)
	}
	if alarm.Enabled {
		return nil
	}
	alarm.Enabled = true
	if err := s.store.Save(ctx, s.collectLocked(&alarm, "")); err != nil {
		return fmt.Errorf("scheduler: enable %q: %w", id, err)
	}
	s.alarms[id] = alarm
	if s.started {
		s.spawnLocked(id)
	}
	return nil
}

// Disable flips an alarm to disabled and cancels its timer, waiting for the
// timer goroutine to exit so a cancelled task can no longer fire.
func (s *Scheduler) Disable(ctx context.Context, id string) error {
	s.mu.Lock()
	alarm, exists := s.alarms[id]
	if !exists {
		s.mu.Unlock()
		return fmt.Errorf("scheduler: disable %q: %w", id, domain.ErrNotFound)
	}
	if !alarm.Enabled {
		s.mu.Unlock()
		return nil
	}
	alarm.Enabled = false
	if err := s.store.Save(ctx, s.collectLocked(&alarm, "")); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("scheduler: disable %q: %w", id, err)
	}
	s.alarms[id] = alarm
	task := s.detachLocked(id)
	s.mu.Unlock()
	awaitExit(task)
	return nil
}

// TriggerNow dispatches playback for an alarm immediately, bypassing timing.
// It touches neither Enabled nor persisted state.
func (s *Scheduler) TriggerNow(ctx context.Context, id string) error {
	s.mu.Lock()
	alarm, exists := s.alarms[id]
	s.mu.Unlock()
	if !exists {
		return fmt.Errorf("scheduler: trigger %q: %w", id, domain.ErrNotFound)
	}
	return s.players.Play(ctx, alarm)
}

// Snapshot returns a copy of the live alarm mapping. The copy does not stay
// current.
func (s *Scheduler) Snapshot() map[string]domain.Alarm {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]domain.Alarm, len(s.alarms))
	for id, alarm := range s.alarms {
		out[id] = alarm
	}
	return out
}

// collectLocked assembles the alarm slice to persist: the live set with an
// optional replacement applied and an optional id removed.
func (s *Scheduler) collectLocked(replace *domain.Alarm, removeID string) []domain.Alarm {
	out := make([]domain.Alarm, 0, len(s.alarms)+1)
	for id, alarm := range s.alarms {
		if id == removeID {
			continue
		}
		if replace != nil && id == replace.ID {
			continue
		}
		out = append(out, alarm)
	}
	if replace != nil {
		out = append(out, *replace)
	}
	return out
}

// spawnLocked launches the timer goroutine for an alarm id. Callers hold
// s.mu; the goroutine's lifetime is bounded by its own cancel, not by the
// caller's context.
func (s *Scheduler) spawnLocked(id string) {
	ctx, cancel := context.WithCancel(context.Background())
	task := &timerTask{cancel: cancel, done: make(chan struct{})}
	s.tasks[id] = task
	go s.runAlarm(ctx, id, task)
}

// detachLocked cancels the timer for an alarm id and removes it from the
// task mapping. The returned task, if any, must be awaited after s.mu is
// released: the goroutine re-reads live state under the same lock on its way
// out, so waiting while holding it would deadlock.
func (s *Scheduler) detachLocked(id string) *timerTask {
	task, ok := s.tasks[id]
	if !ok {
		return nil
	}
	delete(s.tasks, id)
	task.cancel()
	return task
}

func awaitExit(task *timerTask) {
	if task != nil {
		<-task.done
	}
}

// runAlarm is the per-alarm timer loop: re-read the live alarm, compute the
// next occurrence, sleep until it, play, and either loop (repeating alarms)
// or retire (one-shots). Cancellation exits silently at any suspension
// point and is re-checked before playback so a cancelled task never fires.
func (s *Scheduler) runAlarm(ctx context.Context, id string, task *timerTask) {
	defer close(task.done)
	defer s.forget(id, task)
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ERROR scheduler: alarm %q: timer task panic: %v", id, r)
		}
	}()
	for {
		alarm, ok := s.lookup(id)
		if !ok || !alarm.Enabled {
			return
		}
		now := time.Now().UTC()
		next, ok := alarm.NextOccurrence(now)
		if !ok {
			s.retire(ctx, id)
			return
		}
		if err := sleepUntil(ctx, next.Sub(now)); err != nil {
			return
		}
		if ctx.Err() != nil {
			return
		}
		if err := s.players.Play(ctx, alarm); err != nil {
			if ctx.Err() != nil {
				return
			}
			// A failed attempt still counts as fired; other alarms are
			// unaffected.
			log.Printf("WARN scheduler: alarm %q: %v", id, err)
		}
		if !alarm.Repeats() {
			s.retire(ctx, id)
			return
		}
	}
}

// lookup returns the current live alarm by id, tolerating concurrent
// removal.
func (s *Scheduler) lookup(id string) (domain.Alarm, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	alarm, ok := s.alarms[id]
	return alarm, ok
}

// retire marks an alarm disabled after its final firing and persists the
// change. The timer goroutine is already on its way out, so a failed save
// here only logs; live state keeps the disable so the one-shot cannot fire
// again this process.
func (s *Scheduler) retire(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	alarm, ok := s.alarms[id]
	if !ok || !alarm.Enabled {
		return
	}
	alarm.Enabled = false
	s.alarms[id] = alarm
	if err := s.store.Save(ctx, s.collectLocked(nil, "")); err != nil {
		log.Printf("WARN scheduler: alarm %q: persisting disable: %v", id, err)
	}
}

// forget drops the task mapping entry on goroutine exit, unless the entry
// was already replaced by a newer task for the same id.
func (s *Scheduler) forget(id string, task *timerTask) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tasks[id] == task {
		delete(s.tasks, id)
	}
}

// sleepUntil blocks for d or until ctx is cancelled. Non-positive durations
// return immediately.
func sleepUntil(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
