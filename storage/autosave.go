package storage

import (
	"log"
	"sync"
	"time"

	"github.com/bep/debounce"
)

// AutoSaver saves snapshots to a file in the background. Bursts of Save calls,
// e.g. one per recorded note, are coalesced into a single write made once no
// new snapshot has arrived for the given delay.
type AutoSaver struct {
	path      string
	debounced func(f func())
	logger    *log.Logger

	mu      sync.Mutex
	pending Snapshot
	dirty   bool

	writeMu sync.Mutex
	saves   int
}

// NewAutoSaver returns a saver writing to path. Errors of background writes
// are reported to logger; if logger is nil, the standard logger is used.
func NewAutoSaver(path string, delay time.Duration, logger *log.Logger) *AutoSaver {
	if logger == nil {
		logger = log.Default()
	}
	return &AutoSaver{
		path:      path,
		debounced: debounce.New(delay),
		logger:    logger,
	}
}

// Save schedules s to be written. It never blocks on file I/O.
func (a *AutoSaver) Save(s Snapshot) {
	a.mu.Lock()
	a.pending = s.Copy()
	a.dirty = true
	a.mu.Unlock()
	a.debounced(func() {
		if err := a.Flush(); err != nil {
			a.logger.Printf("autosave: %v", err)
		}
	})
}

// Flush writes the pending snapshot right away, if there is one. Call it
// before exiting so that the last changes are not lost.
func (a *AutoSaver) Flush() error {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()
	a.mu.Lock()
	s, dirty := a.pending, a.dirty
	a.dirty = false
	a.mu.Unlock()
	if !dirty {
		return nil
	}
	if err := Save(a.path, s); err != nil {
		a.mu.Lock()
		if !a.dirty {
			a.pending, a.dirty = s, true
		}
		a.mu.Unlock()
		return err
	}
	a.saves++
	return nil
}

// Saves returns how many times the file has been written.
func (a *AutoSaver) Saves() int {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()
	return a.saves
}
