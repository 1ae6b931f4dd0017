package session

import (
	"sync"

	"gigmarket/internal/domain"
)

// ProfileCache memoizes profile lookups by user id for the lifetime of the process.
// Entries are never evicted or refreshed; the cache is emptied only by Clear on sign-out.
type ProfileCache struct {
	mu      sync.RWMutex
	entries map[string]domain.Profile
}

func NewProfileCache() *ProfileCache {
	return &ProfileCache{entries: make(map[string]domain.Profile)}
}

func (c *ProfileCache) Get(userID string) (*domain.Profile, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.entries[userID]
	if !ok {
		return nil, false
	}
	return &p, true
}

func (c *ProfileCache) Put(profile domain.Profile) {
	if profile.ID == "" {
		return
	}
	c.mu.Lock()
	c.entries[profile.ID] = profile
	c.mu.Unlock()
}

func (c *ProfileCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]domain.Profile)
	c.mu.Unlock()
}

func (c *ProfileCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
