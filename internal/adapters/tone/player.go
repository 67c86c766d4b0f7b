// Package tone synthesizes a sine-wave alarm tone as 16-bit LE mono PCM and
// streams it to a caller-supplied sink (an audio device, a pipe into a
// player process, or a buffer in tests).
package tone

import (
	"context"
	"encoding/binary"
	"io"
	"math"

	"github.com/ewilliams-labs/reveille/internal/core/domain"
	"github.com/ewilliams-labs/reveille/internal/core/ports"
)

const (
	defaultSampleRate = 44100
	minFrequencyHz    = 100
	maxAmplitude      = 32000
	// chunkSamples bounds how long a write can run before cancellation is
	// observed again.
	chunkSamples = 4096
)

// Player generates the built-in alarm tone.
type Player struct {
	sink       io.Writer
	sampleRate int
}

var _ ports.Player = (*Player)(nil)

// NewPlayer constructs a tone player writing PCM to sink. A nil sink
// discards the audio; a zero sample rate takes 44100.
func NewPlayer(sink io.Writer, sampleRate int) *Player {
	if sink == nil {
		sink = io.Discard
	}
	if sampleRate <= 0 {
		sampleRate = defaultSampleRate
	}
	return &Player{sink: sink, sampleRate: sampleRate}
}

// Play streams the configured tone for its configured duration, scaling the
// amplitude by the alarm volume. Cancellation is observed between chunks.
func (p *Player) Play(ctx context.Context, alarm domain.Alarm) error {
	frequency := alarm.Music.ToneFrequencyHz
	if frequency < minFrequencyHz {
		frequency = minFrequencyHz
	}
	duration := alarm.Music.ToneDurationSeconds
	if duration < 1 {
		duration = 1
	}
	volume := alarm.Volume
	if volume > 1 {
		volume = 1
	}
	amplitude := maxAmplitude * volume

	total := p.sampleRate * duration
	buf := make([]byte, 0, chunkSamples*2)
	for start := 0; start < total; start += chunkSamples {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := start + chunkSamples
		if end > total {
			end = total
		}
		buf = buf[:0]
		for i := start; i < end; i++ {
			sample := amplitude * math.Sin(2*math.Pi*float64(frequency)*float64(i)/float64(p.sampleRate))
			buf = binary.LittleEndian.AppendUint16(buf, uint16(int16(sample)))
		}
		if _, err := p.sink.Write(buf); err != nil {
			return ports.PlaybackError{Source: alarm.Music.Source, Reason: err.Error()}
		}
	}
	return nil
}
