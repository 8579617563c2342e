package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/farmfresh/connect/internal/api/metrics"
	"github.com/farmfresh/connect/internal/core/domain"
	"github.com/farmfresh/connect/internal/core/ports"
)

type registryEntry struct {
	store      *SessionStore
	lastAccess time.Time
}

// SessionRegistry holds one SessionStore per browser session. A store is
// created and restored the first time its session id is seen.
type SessionRegistry struct {
	backend ports.AuthBackend
	slots   ports.SlotProvider
	opts    SessionStoreOptions
	now     func() time.Time
	log     zerolog.Logger

	mu      sync.Mutex
	entries map[string]*registryEntry
}

func NewSessionRegistry(backend ports.AuthBackend, slots ports.SlotProvider, opts SessionStoreOptions) *SessionRegistry {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &SessionRegistry{
		backend: backend,
		slots:   slots,
		opts:    opts,
		now:     now,
		log:     opts.Logger.With().Str("component", "session_registry").Logger(),
		entries: make(map[string]*registryEntry),
	}
}

// Get returns the store for sessionID, restoring it from its slot on first use.
func (r *SessionRegistry) Get(ctx context.Context, sessionID string) ports.SessionStore {
	r.mu.Lock()
	entry, ok := r.entries[sessionID]
	if !ok {
		entry = &registryEntry{store: NewSessionStore(r.backend, r.slots(sessionID), r.opts)}
		r.entries[sessionID] = entry
		metrics.ActiveSessionStores.Set(float64(len(r.entries)))
	}
	entry.lastAccess = r.now()
	r.mu.Unlock()

	// Restore runs once per store; concurrent first requests wait on it.
	entry.store.Restore(ctx)
	return entry.store
}

// Len reports how many stores are resident.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep drops anonymous stores idle for longer than idle and reports how many
// were removed. Stores holding a live session stay resident; a session past
// its expiry counts as anonymous.
func (r *SessionRegistry) Sweep(idle time.Duration) int {
	cutoff := r.now().Add(-idle)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, entry := range r.entries {
		if entry.lastAccess.After(cutoff) {
			continue
		}
		if entry.store.State() == domain.StateAuthenticated || entry.store.Loading() {
			continue
		}
		delete(r.entries, id)
		removed++
	}
	metrics.ActiveSessionStores.Set(float64(len(r.entries)))
	return removed
}

// Run sweeps on every interval until ctx is cancelled.
func (r *SessionRegistry) Run(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(idle); n > 0 {
				r.log.Debug().Int("removed", n).Msg("swept idle session stores")
			}
		}
	}
}
