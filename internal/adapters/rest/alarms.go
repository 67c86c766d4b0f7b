package rest

import (
	"encoding/json"
	"net/http"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/ewilliams-labs/reveille/internal/core/domain"
)

type musicPayload struct {
	Source              string            `json:"source"`
	Resource            string            `json:"resource,omitempty"`
	ToneFrequencyHz     int               `json:"tone_frequency_hz,omitempty"`
	ToneDurationSeconds int               `json:"tone_duration_seconds,omitempty"`
	Extra               map[string]string `json:"extra,omitempty"`
}

type alarmRequest struct {
	ID         string        `json:"id"`
	Label      string        `json:"label"`
	Hour       int           `json:"hour"`
	Minute     int           `json:"minute"`
	Second     int           `json:"second"`
	Timezone   string        `json:"timezone"`
	RepeatDays []int         `json:"repeat_days"`
	StartDate  string        `json:"start_date"`
	Music      *musicPayload `json:"music"`
	Enabled    *bool         `json:"enabled"`
	Volume     float64       `json:"volume"`
}

type alarmResponse struct {
	ID         string       `json:"id"`
	Label      string       `json:"label"`
	Hour       int          `json:"hour"`
	Minute     int          `json:"minute"`
	Second     int          `json:"second"`
	Timezone   string       `json:"timezone"`
	RepeatDays []int        `json:"repeat_days"`
	StartDate  string       `json:"start_date,omitempty"`
	Music      musicPayload `json:"music"`
	Enabled    bool         `json:"enabled"`
	Volume     float64      `json:"volume"`
}

func (req alarmRequest) toDomain() (domain.Alarm, error) {
	alarm := domain.Alarm{
		ID:         req.ID,
		Label:      req.Label,
		Hour:       req.Hour,
		Minute:     req.Minute,
		Second:     req.Second,
		Timezone:   req.Timezone,
		RepeatDays: req.RepeatDays,
		Enabled:    true,
		Volume:     req.Volume,
	}
	if req.Enabled != nil {
		alarm.Enabled = *req.Enabled
	}
	if req.StartDate != "" {
		date, err := domain.ParseDate(req.StartDate)
		if err != nil {
			return domain.Alarm{}, err
		}
		alarm.StartDate = date
	}
	if req.Music != nil {
		alarm.Music = domain.MusicSettings{
			Source:              req.Music.Source,
			Resource:            req.Music.Resource,
			ToneFrequencyHz:     req.Music.ToneFrequencyHz,
			ToneDurationSeconds: req.Music.ToneDurationSeconds,
			Extra:               req.Music.Extra,
		}
	}
	return domain.NewAlarm(alarm)
}

func toResponse(alarm domain.Alarm) alarmResponse {
	resp := alarmResponse{
		ID:         alarm.ID,
		Label:      alarm.Label,
		Hour:       alarm.Hour,
		Minute:     alarm.Minute,
		Second:     alarm.Second,
		Timezone:   alarm.Timezone,
		RepeatDays: alarm.RepeatDays,
		Music: musicPayload{
			Source:              alarm.Music.Source,
			Resource:            alarm.Music.Resource,
			ToneFrequencyHz:     alarm.Music.ToneFrequencyHz,
			ToneDurationSeconds: alarm.Music.ToneDurationSeconds,
			Extra:               alarm.Music.Extra,
		},
		Enabled: alarm.Enabled,
		Volume:  alarm.Volume,
	}
	if !alarm.StartDate.IsZero() {
		resp.StartDate = alarm.StartDate.String()
	}
	return resp
}

// ListAlarms handles GET /alarms.
func (h *Handler) ListAlarms(w http.ResponseWriter, r *http.Request) {
	snapshot := h.sched.Snapshot()
	out := make([]alarmResponse, 0, len(snapshot))
	for _, alarm := range snapshot {
		out = append(out, toResponse(alarm))
	}
	slices.SortFunc(out, func(a, b alarmResponse) int {
		return strings.Compare(a.ID, b.ID)
	})
	writeJSON(w, http.StatusOK, out)
}

// CreateAlarm handles POST /alarms. An omitted id is filled with a UUID.
func (h *Handler) CreateAlarm(w http.ResponseWriter, r *http.Request) {
	var req alarmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	alarm, err := req.toDomain()
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.sched.Add(r.Context(), alarm); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toResponse(alarm))
}

// GetAlarm handles GET /alarms/{id}.
func (h *Handler) GetAlarm(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	alarm, ok := h.sched.Snapshot()[id]
	if !ok {
		http.Error(w, domain.ErrNotFound.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(alarm))
}

// UpdateAlarm handles PUT /alarms/{id}. The path id wins over the body id.
func (h *Handler) UpdateAlarm(w http.ResponseWriter, r *http.Request) {
	var req alarmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.ID = r.PathValue("id")

	alarm, err := req.toDomain()
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.sched.Update(r.Context(), alarm); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(alarm))
}

// DeleteAlarm handles DELETE /alarms/{id}.
func (h *Handler) DeleteAlarm(w http.ResponseWriter, r *http.Request) {
	if err := h.sched.Remove(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// EnableAlarm handles POST /alarms/{id}/enable.
func (h *Handler) EnableAlarm(w http.ResponseWriter, r *http.Request) {
	if err := h.sched.Enable(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DisableAlarm handles POST /alarms/{id}/disable.
func (h *Handler) DisableAlarm(w http.ResponseWriter, r *http.Request) {
	if err := h.sched.Disable(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TriggerAlarm handles POST /alarms/{id}/trigger: immediate playback,
// bypassing timing and persisted state.
func (h *Handler) TriggerAlarm(w http.ResponseWriter, r *http.Request) {
	if err := h.sched.TriggerNow(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
