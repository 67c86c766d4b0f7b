package ports

import (
	"context"
	"errors"
	"fmt"

	"github.com/ewilliams-labs/reveille/internal/core/domain"
)

// ErrStorage indicates the durable alarm snapshot could not be read or
// written.
var ErrStorage = errors.New("alarm storage failed")

// StorageError carries the failing operation alongside the underlying cause.
type StorageError struct {
	Op  string
	Err error
}

func (e StorageError) Error() string {
	return fmt.Sprintf("alarm store: %s: %v", e.Op, e.Err)
}

func (e StorageError) Unwrap() error {
	return e.Err
}

func (e StorageError) Is(target error) bool {
	return target == ErrStorage
}

// AlarmStore persists the full alarm set. Save replaces the whole snapshot
// atomically; implementations must serialize concurrent Load/Save calls on
// one store instance.
type AlarmStore interface {
	Load(ctx context.Context) ([]domain.Alarm, error)
	Save(ctx context.Context, alarms []domain.Alarm) error
}
