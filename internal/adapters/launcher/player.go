// Package launcher opens an alarm's resource (an application, file, or URI)
// through the operating system handler or a configured command.
package launcher

import (
	"context"
	"os/exec"
	"runtime"

	"github.com/ewilliams-labs/reveille/internal/core/domain"
	"github.com/ewilliams-labs/reveille/internal/core/ports"
)

// Player launches the alarm resource as a subprocess. The subprocess is
// bound to the playback context, so cancelling the alarm kills it.
type Player struct {
	command string
}

var _ ports.Player = (*Player)(nil)

// NewPlayer constructs a launcher. An empty command means the platform
// opener (open on macOS, xdg-open elsewhere).
func NewPlayer(command string) *Player {
	return &Player{command: command}
}

func (p *Player) Play(ctx context.Context, alarm domain.Alarm) error {
	resource := alarm.Music.Resource
	if resource == "" {
		return ports.PlaybackError{Source: alarm.Music.Source, Reason: "application resource is required"}
	}

	command := p.command
	if command == "" {
		command = platformOpener()
	}
	if _, err := exec.LookPath(command); err != nil {
		return ports.PlaybackError{Source: alarm.Music.Source, Reason: "no mechanism to open application resources: " + err.Error()}
	}

	cmd := exec.CommandContext(ctx, command, resource)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ports.PlaybackError{Source: alarm.Music.Source, Reason: err.Error()}
	}
	return nil
}

func platformOpener() string {
	if runtime.GOOS == "darwin" {
		return "open"
	}
	return "xdg-open"
}
