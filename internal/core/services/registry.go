package services

import (
	"context"
	"sync"

	"github.com/ewilliams-labs/reveille/internal/core/domain"
	"github.com/ewilliams-labs/reveille/internal/core/ports"
)

// Registry maps music source identifiers to players. The caller populates it
// before the scheduler starts; registering the same source twice replaces the
// earlier player.
type Registry struct {
	mu      sync.RWMutex
	players map[string]ports.Player
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{players: make(map[string]ports.Player)}
}

// Register binds a player to a source identifier.
func (r *Registry) Register(source string, player ports.Player) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.players[source] = player
}

// Play dispatches the alarm to the player registered for its music source.
func (r *Registry) Play(ctx context.Context, alarm domain.Alarm) error {
	r.mu.RLock()
	player, ok := r.players[alarm.Music.Source]
	r.mu.RUnlock()
	if !ok {
		return ports.PlaybackError{Source: alarm.Music.Source, Reason: "no player registered for source"}
	}
	return player.Play(ctx, alarm)
}
