package workspace

import (
	"sync"
	"time"
)

type cacheEntry struct {
	workspace    *Workspace
	lastAccessed time.Time
}

// Cache keeps at most maxSize workspaces, dropping the least recently used
// idle one when a new user arrives. Busy workspaces are never dropped, so
// the cache may briefly hold more than maxSize entries. Everything a
// workspace persists goes through its state store, so an evicted workspace
// is rebuilt with its history on the next request. In-memory recordings of
// an evicted user are lost.
type Cache struct {
	lock    sync.Mutex
	entries map[string]*cacheEntry
	maxSize int
	build   func(userId string) *Workspace
	now     func() time.Time
}

func NewCache(maxSize int, build func(userId string) *Workspace) *Cache {
	if maxSize < 1 {
		maxSize = 1
	}
	return &Cache{
		entries: make(map[string]*cacheEntry, maxSize),
		maxSize: maxSize,
		build:   build,
		now:     time.Now,
	}
}

func (c *Cache) Get(userId string) *Workspace {
	c.lock.Lock()
	defer c.lock.Unlock()

	if entry, ok := c.entries[userId]; ok {
		entry.lastAccessed = c.now()
		return entry.workspace
	}

	for len(c.entries) >= c.maxSize {
		oldestId := ""
		var oldestTime time.Time
		for id, entry := range c.entries {
			if entry.workspace.Busy() {
				continue
			}
			if oldestId == "" || entry.lastAccessed.Before(oldestTime) {
				oldestId = id
				oldestTime = entry.lastAccessed
			}
		}
		if oldestId == "" {
			break
		}
		delete(c.entries, oldestId)
	}

	ws := c.build(userId)
	c.entries[userId] = &cacheEntry{workspace: ws, lastAccessed: c.now()}
	return ws
}

// Evict drops the user's workspace, used when the user is deleted.
func (c *Cache) Evict(userId string) {
	c.lock.Lock()
	defer c.lock.Unlock()
	delete(c.entries, userId)
}

func (c *Cache) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return len(c.entries)
}
