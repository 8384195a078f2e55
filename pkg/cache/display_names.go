package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// DisplayNameCache keeps recently resolved member display names so that
// consecutive nudge runs do not re-read every users document.
type DisplayNameCache struct {
	store *gocache.Cache
}

func NewDisplayNameCache(ttl time.Duration) *DisplayNameCache {
	return &DisplayNameCache{store: newStore(ttl)}
}

// Lookup splits uids into names already cached and the ones still missing.
func (c *DisplayNameCache) Lookup(uids []string) (map[string]string, []string) {
	found := make(map[string]string, len(uids))
	missing := make([]string, 0)

	for _, uid := range uids {
		if name, ok := c.store.Get(uid); ok {
			found[uid] = name.(string)
			continue
		}
		missing = append(missing, uid)
	}

	return found, missing
}

func (c *DisplayNameCache) Add(uid, name string) {
	c.store.SetDefault(uid, name)
}

func (c *DisplayNameCache) Flush() {
	c.store.Flush()
}
