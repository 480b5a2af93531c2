package command

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/procdock/procdock/internal/common/logger"
	"github.com/procdock/procdock/internal/events/bus"
)

// defaultRecentLimit bounds ScopeRecent lookups when no limit is configured.
const defaultRecentLimit = 10

// Registry is the id-keyed book of commands. Registration order doubles as
// recency: the most recently registered entries form the "recent" scope.
// Terminal commands stay registered, with their buffered output and exit
// info, until they are explicitly removed.
//
// Thread-safe: all methods can be called concurrently.
type Registry struct {
	logger      *logger.Logger
	bus         bus.EventBus
	recentLimit int

	mu      sync.RWMutex
	entries map[string]*Handle
	order   []string // registration order, oldest first
}

// NewRegistry creates an empty registry. The event bus may be nil, in which
// case registry lifecycle events are not published.
func NewRegistry(eventBus bus.EventBus, recentLimit int, log *logger.Logger) *Registry {
	if recentLimit <= 0 {
		recentLimit = defaultRecentLimit
	}
	return &Registry{
		logger:      log.WithFields(zap.String("component", "command-registry")),
		bus:         eventBus,
		recentLimit: recentLimit,
		entries:     make(map[string]*Handle),
	}
}

// Register adds a handle to the registry. Registering an id that is bound to
// a running command fails with ErrDuplicateID; an id whose previous command
// already terminated is replaced and moves to the most recent position.
func (g *Registry) Register(h *Handle) error {
	id := h.ID()

	g.mu.Lock()
	if existing, ok := g.entries[id]; ok {
		if existing.Running() {
			g.mu.Unlock()
			return fmt.Errorf("%w: %s", ErrDuplicateID, id)
		}
		g.removeFromOrder(id)
	}
	g.entries[id] = h
	g.order = append(g.order, id)
	g.mu.Unlock()

	g.logger.Debug("command registered",
		zap.String("command_id", id),
		zap.String("category", h.info.Category),
		zap.String("working_dir", h.info.WorkingDir))
	publishRegisteredEvent(g.bus, g.logger, h.Snapshot(false))
	return nil
}

// Find returns a snapshot of the command with the given id, or ErrNotFound.
// With ScopeRecent, only the most recently registered entries are searched.
func (g *Registry) Find(id string, scope Scope, includeOutput bool) (Info, error) {
	g.mu.RLock()
	h, ok := g.entries[id]
	if ok && scope == ScopeRecent {
		ok = g.inRecentLocked(id)
	}
	g.mu.RUnlock()

	if !ok {
		return Info{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return h.Snapshot(includeOutput), nil
}

// List returns snapshots ordered most recent first. With ScopeRecent, only
// the newest entries up to the recent limit are returned.
func (g *Registry) List(scope Scope) []Info {
	g.mu.RLock()
	ids := make([]string, len(g.order))
	copy(ids, g.order)
	handles := make([]*Handle, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		handles = append(handles, g.entries[ids[i]])
	}
	g.mu.RUnlock()

	if scope == ScopeRecent && len(handles) > g.recentLimit {
		handles = handles[:g.recentLimit]
	}

	result := make([]Info, 0, len(handles))
	for _, h := range handles {
		result = append(result, h.Snapshot(false))
	}
	return result
}

// Stop requests termination of the given running commands and returns once
// every request has been issued; it does not wait for any process to exit.
// The status moves to stopped immediately for the first stop observer of each
// id. Stopping a command that already terminated is a no-op; unknown ids are
// collected into the returned error after every id has been processed, so one
// bad id never prevents the others from being signaled.
func (g *Registry) Stop(ids ...string) error {
	var errs []error
	for _, id := range ids {
		h, ok := g.handle(id)
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrNotFound, id))
			continue
		}
		if h.beginStop() {
			g.logger.Info("command stopped", zap.String("command_id", id))
			publishStatusEvent(g.bus, g.logger, h.Snapshot(false))
		}
	}
	return errors.Join(errs...)
}

// Remove stops the command if it is still running and deletes it from the
// registry. Removing an unknown id is a no-op; removal is idempotent.
func (g *Registry) Remove(id string) error {
	g.mu.Lock()
	h, ok := g.entries[id]
	if !ok {
		g.mu.Unlock()
		return nil
	}
	delete(g.entries, id)
	g.removeFromOrder(id)
	g.mu.Unlock()

	// The output pumps may still be draining; they publish against the
	// handle, not the registry, so removal never trips them.
	if h.beginStop() {
		publishStatusEvent(g.bus, g.logger, h.Snapshot(false))
	}
	g.logger.Info("command removed", zap.String("command_id", id))
	publishRemovedEvent(g.bus, g.logger, id)
	return nil
}

// RemoveAll stops every running command and clears the registry. Termination
// is requested for each live process before its entry disappears, so no
// process is left orphaned.
func (g *Registry) RemoveAll() {
	g.mu.Lock()
	removed := make([]*Handle, 0, len(g.entries))
	for _, h := range g.entries {
		removed = append(removed, h)
	}
	g.entries = make(map[string]*Handle)
	g.order = nil
	g.mu.Unlock()

	for _, h := range removed {
		if h.beginStop() {
			publishStatusEvent(g.bus, g.logger, h.Snapshot(false))
		}
		publishRemovedEvent(g.bus, g.logger, h.ID())
	}
	g.logger.Info("registry cleared", zap.Int("count", len(removed)))
}

// Len returns the number of registered commands.
func (g *Registry) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.entries)
}

// handle returns the live handle for an id, for in-package callers that need
// more than a snapshot.
func (g *Registry) handle(id string) (*Handle, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	h, ok := g.entries[id]
	return h, ok
}

// liveHandles returns the handles whose commands are still running.
func (g *Registry) liveHandles() []*Handle {
	g.mu.RLock()
	defer g.mu.RUnlock()
	live := make([]*Handle, 0, len(g.entries))
	for _, h := range g.entries {
		if h.Running() {
			live = append(live, h)
		}
	}
	return live
}

// inRecentLocked reports whether id is among the recentLimit newest entries.
// Caller must hold at least a read lock.
func (g *Registry) inRecentLocked(id string) bool {
	start := len(g.order) - g.recentLimit
	if start < 0 {
		start = 0
	}
	for i := len(g.order) - 1; i >= start; i-- {
		if g.order[i] == id {
			return true
		}
	}
	return false
}

// removeFromOrder drops id from the order slice. Caller must hold the write
// lock.
func (g *Registry) removeFromOrder(id string) {
	for i, entry := range g.order {
		if entry == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			return
		}
	}
}
