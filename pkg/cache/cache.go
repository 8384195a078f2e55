package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const cleanupFactor = 2

// newStore builds a go-cache store whose janitor runs at twice the TTL.
// A non-positive ttl keeps entries forever and disables the janitor.
func newStore(ttl time.Duration) *gocache.Cache {
	if ttl <= 0 {
		return gocache.New(gocache.NoExpiration, 0)
	}

	return gocache.New(ttl, cleanupFactor*ttl)
}
