package routing

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// cacheTTL bounds how long a cached decision may be served. Validity is
// evaluated at read time; stale entries stay in place until overwritten.
const cacheTTL = 10 * time.Minute

// persistQueueSize bounds the persistence backlog. When the queue is full
// the save is skipped; a later Put will persist the newer state anyway.
const persistQueueSize = 16

type cacheEntry struct {
	Decision  RoutingDecision `json:"result"`
	Timestamp time.Time       `json:"timestamp"`
}

// DecisionCache memoizes recent routing decisions keyed by
// (role, complexity, strategies). Writes may be persisted to a flat JSON
// file by a single background worker; persistence is best-effort and never
// affects the decision already computed.
type DecisionCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry

	path    string // empty disables persistence
	persist chan struct{}
	done    chan struct{}
	once    sync.Once
	logger  *logrus.Logger
}

// NewDecisionCache creates a cache, loading any previously persisted
// entries from path. Load failures are non-fatal: the cache starts empty.
// An empty path disables persistence entirely.
func NewDecisionCache(path string, logger *logrus.Logger) *DecisionCache {
	c := &DecisionCache{
		entries: make(map[string]cacheEntry),
		path:    path,
		persist: make(chan struct{}, persistQueueSize),
		done:    make(chan struct{}),
		logger:  logger,
	}

	if path != "" {
		c.load()
		go c.persistWorker()
	}

	return c
}

// Get returns the cached decision for key if one exists and is younger than
// the TTL. Expired entries are reported as misses but left in place.
func (c *DecisionCache) Get(key string) (RoutingDecision, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[key]
	if !exists {
		return RoutingDecision{}, false
	}
	if time.Since(entry.Timestamp) >= cacheTTL {
		return RoutingDecision{}, false
	}
	return entry.Decision, true
}

// Put stores a decision under key, superseding any previous entry, and
// schedules a best-effort persist.
func (c *DecisionCache) Put(key string, decision RoutingDecision) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{Decision: decision, Timestamp: time.Now()}
	c.mu.Unlock()

	c.schedulePersist()
}

// Size returns the number of entries, fresh or stale.
func (c *DecisionCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear drops every entry and returns how many were removed.
func (c *DecisionCache) Clear() int {
	c.mu.Lock()
	cleared := len(c.entries)
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()

	c.schedulePersist()
	return cleared
}

// Close stops the persistence worker. Safe to call multiple times.
func (c *DecisionCache) Close() {
	c.once.Do(func() { close(c.done) })
}

func (c *DecisionCache) schedulePersist() {
	if c.path == "" {
		return
	}
	select {
	case c.persist <- struct{}{}:
	default:
		// Queue full; the pending save will capture this write too.
	}
}

func (c *DecisionCache) persistWorker() {
	for {
		select {
		case <-c.persist:
			if err := c.save(); err != nil {
				c.logger.WithError(err).WithField("path", c.path).Warn("Decision cache persist failed")
			}
		case <-c.done:
			return
		}
	}
}

// save writes the full entry map as flat JSON, atomically via rename.
func (c *DecisionCache) save() error {
	c.mu.RLock()
	snapshot := make(map[string]cacheEntry, len(c.entries))
	for key, entry := range c.entries {
		snapshot[key] = entry
	}
	c.mu.RUnlock()

	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	tmp := c.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, c.path)
}

func (c *DecisionCache) load() {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if !os.IsNotExist(err) {
			c.logger.WithError(err).WithField("path", c.path).Warn("Decision cache load failed, starting empty")
		}
		return
	}

	entries := make(map[string]cacheEntry)
	if err := json.Unmarshal(data, &entries); err != nil {
		c.logger.WithError(err).WithField("path", c.path).Warn("Decision cache file corrupt, starting empty")
		return
	}

	c.mu.Lock()
	c.entries = entries
	c.mu.Unlock()

	c.logger.WithField("entries", len(entries)).Debug("Decision cache loaded")
}
