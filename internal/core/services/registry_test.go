package services

import (
	"context"
	"errors"
	"testing"

	"github.com/ewilliams-labs/reveille/internal/core/domain"
	"github.com/ewilliams-labs/reveille/internal/core/ports"
)

func TestRegistryDispatch(t *testing.T) {
	registry := NewRegistry()
	player := newRecorderPlayer()
	registry.Register("tone", player)

	alarm, err := domain.NewAlarm(domain.Alarm{ID: "wake", Hour: 7, Enabled: true})
	if err != nil {
		t.Fatalf("NewAlarm: %v", err)
	}

	if err := registry.Play(context.Background(), alarm); err != nil {
		t.Fatalf("play: %v", err)
	}
	select {
	case fired := <-player.played:
		if fired.ID != "wake" {
			t.Fatalf("expected wake, got %q", fired.ID)
		}
	default:
		t.Fatal("registered player was not invoked")
	}
}

func TestRegistryUnknownSource(t *testing.T) {
	registry := NewRegistry()

	alarm, err := domain.NewAlarm(domain.Alarm{ID: "wake", Hour: 7, Enabled: true})
	if err != nil {
		t.Fatalf("NewAlarm: %v", err)
	}

	err = registry.Play(context.Background(), alarm)
	if !errors.Is(err, ports.ErrPlaybackFailed) {
		t.Fatalf("expected ErrPlaybackFailed, got %v", err)
	}
}
