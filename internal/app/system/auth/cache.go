package auth

import (
	"sync"
	"time"

	"github.com/crewdesk/crewdesk/internal/domain/models"
)

const cacheMaxEntries = 1000

// userCache holds recently loaded user records so the auth gate does not hit
// the database on every request. Entries expire after a fixed TTL and the
// cache is capped; when full, the expired sweep plus oldest-entry eviction
// keeps it bounded.
type userCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]userCacheEntry
	done    chan struct{}
}

type userCacheEntry struct {
	user    *models.User
	expires time.Time
}

func newUserCache(ttl time.Duration) *userCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	c := &userCache{
		ttl:     ttl,
		entries: make(map[string]userCacheEntry),
		done:    make(chan struct{}),
	}
	go c.cleanupLoop()
	return c
}

func (c *userCache) get(id string) (*models.User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[id]
	if !ok || time.Now().After(e.expires) {
		return nil, false
	}
	return e.user, true
}

func (c *userCache) set(id string, u *models.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) >= cacheMaxEntries {
		c.evictLocked()
	}
	c.entries[id] = userCacheEntry{user: u, expires: time.Now().Add(c.ttl)}
}

// invalidate drops a single user, called after any write that changes their
// profile, role, or memberships.
func (c *userCache) invalidate(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
}

// evictLocked removes expired entries, then the soonest-to-expire entry if
// the cache is still full. Caller holds the write lock.
func (c *userCache) evictLocked() {
	now := time.Now()
	for id, e := range c.entries {
		if now.After(e.expires) {
			delete(c.entries, id)
		}
	}
	if len(c.entries) < cacheMaxEntries {
		return
	}
	var oldestID string
	var oldest time.Time
	for id, e := range c.entries {
		if oldestID == "" || e.expires.Before(oldest) {
			oldestID = id
			oldest = e.expires
		}
	}
	if oldestID != "" {
		delete(c.entries, oldestID)
	}
}

func (c *userCache) cleanupLoop() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for id, e := range c.entries {
				if now.After(e.expires) {
					delete(c.entries, id)
				}
			}
			c.mu.Unlock()
		case <-c.done:
			return
		}
	}
}

func (c *userCache) close() {
	close(c.done)
}
