package mp3file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ewilliams-labs/reveille/internal/core/domain"
	"github.com/ewilliams-labs/reveille/internal/core/ports"
)

func fileAlarm(t *testing.T, path string) domain.Alarm {
	t.Helper()
	music, err := domain.Custom("file", path, 30, nil)
	if err != nil {
		t.Fatalf("music: %v", err)
	}
	alarm, err := domain.NewAlarm(domain.Alarm{ID: "wake", Hour: 7, Music: music, Enabled: true})
	if err != nil {
		t.Fatalf("NewAlarm: %v", err)
	}
	return alarm
}

func TestPlayMissingPath(t *testing.T) {
	player := NewPlayer(nil)
	alarm, err := domain.NewAlarm(domain.Alarm{
		ID:      "wake",
		Hour:    7,
		Music:   domain.MusicSettings{Source: "file"},
		Enabled: true,
	})
	if err != nil {
		t.Fatalf("NewAlarm: %v", err)
	}

	if err := player.Play(context.Background(), alarm); !errors.Is(err, ports.ErrPlaybackFailed) {
		t.Fatalf("expected ErrPlaybackFailed, got %v", err)
	}
}

func TestPlayNonexistentFile(t *testing.T) {
	player := NewPlayer(nil)
	alarm := fileAlarm(t, filepath.Join(t.TempDir(), "ghost.mp3"))

	if err := player.Play(context.Background(), alarm); !errors.Is(err, ports.ErrPlaybackFailed) {
		t.Fatalf("expected ErrPlaybackFailed, got %v", err)
	}
}

func TestPlayRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "noise.mp3")
	if err := os.WriteFile(path, []byte("not an mp3 stream"), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	player := NewPlayer(nil)
	if err := player.Play(context.Background(), fileAlarm(t, path)); !errors.Is(err, ports.ErrPlaybackFailed) {
		t.Fatalf("expected ErrPlaybackFailed, got %v", err)
	}
}
