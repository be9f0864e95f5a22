package engine

import (
	"sync"
	"time"
)

type memoryEntry struct {
	engine    string
	expiresAt time.Time
}

// DomainMemory remembers which engine last produced a usable document for a
// host, so the next load for that host can skip the race. Entries expire
// after ttl; a background loop prunes them every hour.
type DomainMemory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
	done    chan struct{}
	once    sync.Once
}

// NewDomainMemory creates a DomainMemory and starts its pruning loop.
func NewDomainMemory(ttl time.Duration) *DomainMemory {
	dm := &DomainMemory{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	go dm.pruneLoop()
	return dm
}

// Get returns the remembered engine for host, or "" if none or expired.
func (dm *DomainMemory) Get(host string) string {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	e, ok := dm.entries[host]
	if !ok {
		return ""
	}
	if dm.now().After(e.expiresAt) {
		delete(dm.entries, host)
		return ""
	}
	return e.engine
}

// Set records the engine that succeeded for host.
func (dm *DomainMemory) Set(host, engine string) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	dm.entries[host] = memoryEntry{engine: engine, expiresAt: dm.now().Add(dm.ttl)}
}

// Delete forgets host, e.g. after the remembered engine failed.
func (dm *DomainMemory) Delete(host string) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	delete(dm.entries, host)
}

// Len returns the number of tracked hosts, expired or not.
func (dm *DomainMemory) Len() int {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	return len(dm.entries)
}

// Stop terminates the pruning loop. It is safe to call more than once.
func (dm *DomainMemory) Stop() {
	dm.once.Do(func() { close(dm.done) })
}

func (dm *DomainMemory) pruneLoop() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-dm.done:
			return
		case <-ticker.C:
			dm.prune()
		}
	}
}

func (dm *DomainMemory) prune() {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	now := dm.now()
	for host, e := range dm.entries {
		if now.After(e.expiresAt) {
			delete(dm.entries, host)
		}
	}
}
