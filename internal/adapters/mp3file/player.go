// Package mp3file plays a local MP3 file by decoding it to PCM and
// streaming the samples to a caller-supplied sink.
package mp3file

import (
	"context"
	"io"
	"os"

	mp3 "github.com/hajimehoshi/go-mp3"

	"github.com/ewilliams-labs/reveille/internal/core/domain"
	"github.com/ewilliams-labs/reveille/internal/core/ports"
)

// Player decodes MP3 alarms. The alarm's music resource is the file path.
type Player struct {
	sink io.Writer
}

var _ ports.Player = (*Player)(nil)

// NewPlayer constructs an MP3 player writing decoded PCM to sink. A nil
// sink discards the audio.
func NewPlayer(sink io.Writer) *Player {
	if sink == nil {
		sink = io.Discard
	}
	return &Player{sink: sink}
}

// Play decodes the file and streams it chunk by chunk, observing ctx
// cancellation between reads.
func (p *Player) Play(ctx context.Context, alarm domain.Alarm) error {
	path := alarm.Music.Resource
	if path == "" {
		return ports.PlaybackError{Source: alarm.Music.Source, Reason: "mp3 file path missing"}
	}

	f, err := os.Open(path)
	if err != nil {
		return ports.PlaybackError{Source: alarm.Music.Source, Reason: err.Error()}
	}
	defer f.Close()

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		return ports.PlaybackError{Source: alarm.Music.Source, Reason: err.Error()}
	}

	buf := make([]byte, 4096)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := decoder.Read(buf)
		if n > 0 {
			if _, werr := p.sink.Write(buf[:n]); werr != nil {
				return ports.PlaybackError{Source: alarm.Music.Source, Reason: werr.Error()}
			}
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return ports.PlaybackError{Source: alarm.Music.Source, Reason: err.Error()}
		}
	}
}
