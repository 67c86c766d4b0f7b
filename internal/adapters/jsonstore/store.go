// Package jsonstore persists the alarm set in a single JSON file.
package jsonstore

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/ewilliams-labs/reveille/internal/core/domain"
	"github.com/ewilliams-labs/reveille/internal/core/ports"
)

// Store implements ports.AlarmStore on top of one JSON file. A mutex keeps
// concurrent Load/Save calls from interleaving over a partially written
// file, and Save goes through a temp file + rename so readers never observe
// a half-written snapshot.
type Store struct {
	path string
	mu   sync.Mutex
}

var _ ports.AlarmStore = (*Store)(nil)

// New constructs a Store over the given file path. The file may not exist
// yet; Load treats that as an empty set.
func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Load(ctx context.Context) ([]domain.Alarm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, ports.StorageError{Op: "load", Err: err}
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, ports.StorageError{Op: "load", Err: err}
	}
	if len(data) == 0 {
		return nil, nil
	}
	var records []alarmRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, ports.StorageError{Op: "load", Err: err}
	}
	alarms := make([]domain.Alarm, 0, len(records))
	for _, rec := range records {
		alarm, err := decodeAlarm(rec)
		if err != nil {
			return nil, ports.StorageError{Op: "load", Err: err}
		}
		alarms = append(alarms, alarm)
	}
	return alarms, nil
}

func (s *Store) Save(ctx context.Context, alarms []domain.Alarm) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return ports.StorageError{Op: "save", Err: err}
	}
	records := make([]alarmRecord, 0, len(alarms))
	for _, alarm := range alarms {
		records = append(records, encodeAlarm(alarm))
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return ports.StorageError{Op: "save", Err: err}
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return ports.StorageError{Op: "save", Err: err}
	}
	tmp, err := os.CreateTemp(dir, ".alarms-*.tmp")
	if err != nil {
		return ports.StorageError{Op: "save", Err: err}
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return ports.StorageError{Op: "save", Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return ports.StorageError{Op: "save", Err: err}
	}
	if err := tmp.Close(); err != nil {
		return ports.StorageError{Op: "save", Err: err}
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return ports.StorageError{Op: "save", Err: err}
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return ports.StorageError{Op: "save", Err: err}
	}
	return nil
}
