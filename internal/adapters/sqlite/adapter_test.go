package sqlite

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/ewilliams-labs/reveille/internal/core/domain"
)

func newTestAdapter(t *testing.T) *Adapter {
	t.Helper()
	a, err := NewAdapter(":memory:")
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestAdapterRoundTrip(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()

	music, err := domain.Spotify("playlist:37i9dQZF1DXc5e2bJhV6pu", 60)
	if err != nil {
		t.Fatalf("music: %v", err)
	}
	music.Extra = map[string]string{"shuffle": "true"}
	want, err := domain.NewAlarm(domain.Alarm{
		ID:         "workdays",
		Label:      "Workday alarm",
		Hour:       7,
		Minute:     15,
		Second:     30,
		Timezone:   "America/New_York",
		RepeatDays: []int{0, 1, 2, 3, 4},
		StartDate:  domain.Date{Year: 2026, Month: time.September, Day: 7},
		Music:      music,
		Enabled:    true,
		Volume:     0.8,
	})
	if err != nil {
		t.Fatalf("NewAlarm: %v", err)
	}

	if err := a.Save(ctx, []domain.Alarm{want}); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := a.Load(ctx)
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

func TestAdapterLoadEmpty(t *testing.T) {
	a := newTestAdapter(t)
	got, err := a.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty set, got %d alarms", len(got))
	}
}

func TestAdapterSaveReplacesFullSet(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()

	first, err := domain.NewAlarm(domain.Alarm{ID: "one", Hour: 6, Enabled: true})
	if err != nil {
		t.Fatalf("NewAlarm: %v", err)
	}
	second, err := domain.NewAlarm(domain.Alarm{ID: "two", Hour: 8, Enabled: true})
	if err != nil {
		t.Fatalf("NewAlarm: %v", err)
	}

	if err := a.Save(ctx, []domain.Alarm{first}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := a.Save(ctx, []domain.Alarm{second}); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := a.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 1 || got[0].ID != "two" {
		t.Fatalf("save must replace the full set, got %+v", got)
	}
}
