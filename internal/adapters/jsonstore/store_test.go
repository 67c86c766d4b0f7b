package jsonstore

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/ewilliams-labs/reveille/internal/core/domain"
)

func testAlarm(t *testing.T) domain.Alarm {
	t.Helper()
	music, err := domain.Custom("radio", "fm://104.5", 20, map[string]string{"station": "morning", "fade": "5"})
	if err != nil {
		t.Fatalf("music: %v", err)
	}
	alarm, err := domain.NewAlarm(domain.Alarm{
		ID:         "wake",
		Label:      "Weekday wake-up",
		Hour:       6,
		Minute:     45,
		Second:     30,
		Timezone:   "Europe/Madrid",
		RepeatDays: []int{0, 1, 2, 3, 4},
		StartDate:  domain.Date{Year: 2026, Month: time.September, Day: 1},
		Music:      music,
		Enabled:    false,
		Volume:     0.6,
	})
	if err != nil {
		t.Fatalf("NewAlarm: %v", err)
	}
	return alarm
}

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alarms.json")
	store := New(path)

	want := testAlarm(t)
	if err := store.Save(context.Background(), []domain.Alarm{want}); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 alarm, got %d", len(got))
	}
	if !reflect.DeepEqual(got[0], want) {
		t.Fatalf("round trip mismatch:\nwant %+v\ngot  %+v", want, got[0])
	}
}

func TestStoreLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alarms.json")
	raw := `[{"id": "min", "hour": 6, "minute": 30}]`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	got, err := New(path).Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 alarm, got %d", len(got))
	}
	alarm := got[0]
	if alarm.Second != 0 || alarm.Timezone != "UTC" || len(alarm.RepeatDays) != 0 {
		t.Fatalf("unexpected time defaults: %+v", alarm)
	}
	if !alarm.Enabled || alarm.Volume != 1.0 || alarm.Label != "min" {
		t.Fatalf("unexpected field defaults: %+v", alarm)
	}
	if alarm.Music.Source != "tone" || alarm.Music.ToneFrequencyHz != 440 || alarm.Music.ToneDurationSeconds != 30 {
		t.Fatalf("unexpected music defaults: %+v", alarm.Music)
	}
}

func TestStoreLoadMissingFile(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "nope", "alarms.json"))
	got, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty set, got %d alarms", len(got))
	}
}

func TestStoreSaveCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "alarms.json")
	store := New(path)
	if err := store.Save(context.Background(), nil); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file at %s: %v", path, err)
	}
}

func TestStoreSaveReplacesFullSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alarms.json")
	store := New(path)
	ctx := context.Background()

	first := testAlarm(t)
	if err := store.Save(ctx, []domain.Alarm{first}); err != nil {
		t.Fatalf("save: %v", err)
	}
	second := first
	second.ID = "other"
	if err := store.Save(ctx, []domain.Alarm{second}); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 1 || got[0].ID != "other" {
		t.Fatalf("save must replace the full set, got %+v", got)
	}
}
