package ports

import (
	"context"
	"errors"
	"fmt"

	"github.com/ewilliams-labs/reveille/internal/core/domain"
)

// ErrPlaybackFailed indicates an alarm could not start playback.
var ErrPlaybackFailed = errors.New("playback failed")

// PlaybackError provides context for a failed playback attempt.
type PlaybackError struct {
	Source string
	Reason string
}

func (e PlaybackError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("playback failed: %s", e.Reason)
	}
	return fmt.Sprintf("playback failed for source %q: %s", e.Source, e.Reason)
}

func (e PlaybackError) Is(target error) bool {
	return target == ErrPlaybackFailed
}

// Player starts playback for a fired alarm. Implementations must observe ctx
// cancellation promptly, including while blocked in I/O or a subprocess.
type Player interface {
	Play(ctx context.Context, alarm domain.Alarm) error
}
