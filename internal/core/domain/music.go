package domain

import "fmt"

const (
	defaultToneFrequencyHz     = 440
	defaultToneDurationSeconds = 30
)

// MusicSettings describes how an alarm starts playback when it fires.
type MusicSettings struct {
	Source              string
	Resource            string
	ToneFrequencyHz     int
	ToneDurationSeconds int
	Extra               map[string]string
}

// Tone returns settings for the built-in sine tone source. Zero values take
// the 440 Hz / 30 s defaults.
func Tone(frequencyHz, durationSeconds int) MusicSettings {
	if frequencyHz == 0 {
		frequencyHz = defaultToneFrequencyHz
	}
	if durationSeconds == 0 {
		durationSeconds = defaultToneDurationSeconds
	}
	return MusicSettings{
		Source:              "tone",
		ToneFrequencyHz:     frequencyHz,
		ToneDurationSeconds: durationSeconds,
	}
}

// Spotify returns settings that launch playback of a Spotify URI.
func Spotify(uri string, durationSeconds int) (MusicSettings, error) {
	if uri == "" {
		return MusicSettings{}, fmt.Errorf("%w: spotify uri is required", ErrInvalidAlarm)
	}
	s := Tone(0, durationSeconds)
	s.Source = "spotify"
	s.Resource = uri
	return s, nil
}

// App returns settings that open an application or file when the alarm fires.
func App(command string, durationSeconds int, extra map[string]string) (MusicSettings, error) {
	if command == "" {
		return MusicSettings{}, fmt.Errorf("%w: application command is required", ErrInvalidAlarm)
	}
	s := Tone(0, durationSeconds)
	s.Source = "app"
	s.Resource = command
	s.Extra = extra
	return s, nil
}

// Custom returns settings for a caller-registered source.
func Custom(source, resource string, durationSeconds int, extra map[string]string) (MusicSettings, error) {
	if source == "" {
		return MusicSettings{}, fmt.Errorf("%w: custom source identifier is required", ErrInvalidAlarm)
	}
	s := Tone(0, durationSeconds)
	s.Source = source
	s.Resource = resource
	s.Extra = extra
	return s, nil
}

func (m MusicSettings) normalize() (MusicSettings, error) {
	if m.Source == "" {
		return MusicSettings{}, fmt.Errorf("%w: music source must not be empty", ErrInvalidAlarm)
	}
	if m.ToneFrequencyHz == 0 {
		m.ToneFrequencyHz = defaultToneFrequencyHz
	}
	if m.ToneDurationSeconds == 0 {
		m.ToneDurationSeconds = defaultToneDurationSeconds
	}
	if m.ToneFrequencyHz < 0 {
		return MusicSettings{}, fmt.Errorf("%w: tone frequency must be positive", ErrInvalidAlarm)
	}
	if m.ToneDurationSeconds < 0 {
		return MusicSettings{}, fmt.Errorf("%w: tone duration must be positive", ErrInvalidAlarm)
	}
	return m, nil
}
