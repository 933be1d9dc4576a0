package engine

import (
	"time"

	"github.com/muhammadchandra19/matcha/internal/app/actor"
)

// Options represents configuration options for the Engine.
type Options struct {
	// SnapshotInterval is how often a changed state is stored. Zero disables
	// periodic snapshots; one is still stored on Stop.
	SnapshotInterval time.Duration
	// MailboxSize bounds the queue of every component.
	MailboxSize int
}

// DefaultEngineOptions returns the default engine options.
func DefaultEngineOptions() *Options {
	return &Options{
		SnapshotInterval: 30 * time.Second,
		MailboxSize:      actor.DefaultMailboxSize,
	}
}
