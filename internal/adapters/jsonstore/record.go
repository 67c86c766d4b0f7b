package jsonstore

import (
	"github.com/ewilliams-labs/reveille/internal/core/domain"
)

// musicRecord is the wire form of domain.MusicSettings. Pointer fields keep
// "absent" distinguishable from zero so decode defaults apply.
type musicRecord struct {
	Source              string            `json:"source"`
	Resource            string            `json:"resource,omitempty"`
	ToneFrequencyHz     *int              `json:"tone_frequency_hz,omitempty"`
	ToneDurationSeconds *int              `json:"tone_duration_seconds,omitempty"`
	Extra               map[string]string `json:"extra,omitempty"`
}

// alarmRecord is the wire form of domain.Alarm.
type alarmRecord struct {
	ID         string       `json:"id"`
	Label      string       `json:"label,omitempty"`
	Hour       int          `json:"hour"`
	Minute     int          `json:"minute"`
	Second     int          `json:"second"`
	Timezone   string       `json:"timezone,omitempty"`
	RepeatDays []int        `json:"repeat_days"`
	StartDate  string       `json:"start_date,omitempty"`
	Music      *musicRecord `json:"music,omitempty"`
	Enabled    *bool        `json:"enabled,omitempty"`
	Volume     *float64     `json:"volume,omitempty"`
}

func encodeAlarm(a domain.Alarm) alarmRecord {
	rec := alarmRecord{
		ID:         a.ID,
		Label:      a.Label,
		Hour:       a.Hour,
		Minute:     a.Minute,
		Second:     a.Second,
		Timezone:   a.Timezone,
		RepeatDays: a.RepeatDays,
		Music: &musicRecord{
			Source:              a.Music.Source,
			Resource:            a.Music.Resource,
			ToneFrequencyHz:     &a.Music.ToneFrequencyHz,
			ToneDurationSeconds: &a.Music.ToneDurationSeconds,
			Extra:               a.Music.Extra,
		},
		Enabled: &a.Enabled,
		Volume:  &a.Volume,
	}
	if !a.StartDate.IsZero() {
		rec.StartDate = a.StartDate.String()
	}
	return rec
}

// decodeAlarm applies the documented defaults for absent fields (timezone
// UTC, enabled true, volume 1.0, tone 440 Hz / 30 s) and routes the result
// through domain.NewAlarm so the construction invariants hold for persisted
// data too.
func decodeAlarm(rec alarmRecord) (domain.Alarm, error) {
	alarm := domain.Alarm{
		ID:         rec.ID,
		Label:      rec.Label,
		Hour:       rec.Hour,
		Minute:     rec.Minute,
		Second:     rec.Second,
		Timezone:   rec.Timezone,
		RepeatDays: rec.RepeatDays,
		Enabled:    true,
		Volume:     1.0,
	}
	if rec.Enabled != nil {
		alarm.Enabled = *rec.Enabled
	}
	if rec.Volume != nil {
		alarm.Volume = *rec.Volume
	}
	if rec.StartDate != "" {
		date, err := domain.ParseDate(rec.StartDate)
		if err != nil {
			return domain.Alarm{}, err
		}
		alarm.StartDate = date
	}
	if rec.Music != nil {
		alarm.Music = domain.MusicSettings{
			Source:   rec.Music.Source,
			Resource: rec.Music.Resource,
			Extra:    rec.Music.Extra,
		}
		if rec.Music.ToneFrequencyHz != nil {
			alarm.Music.ToneFrequencyHz = *rec.Music.ToneFrequencyHz
		}
		if rec.Music.ToneDurationSeconds != nil {
			alarm.Music.ToneDurationSeconds = *rec.Music.ToneDurationSeconds
		}
	}
	return domain.NewAlarm(alarm)
}
