// SPDX-License-Identifier: EPL-2.0

package detect

import (
	"errors"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/ik5/audpool/audio"
)

// Cache memoizes detection results by resource id. Clips without an onset are
// cached too, so a silent clip is decoded once.
type Cache struct {
	store *gocache.Cache
	opts  Options
}

type entry struct {
	start time.Duration
	found bool
}

// NewCache returns a cache whose entries expire after ttl. A zero ttl keeps
// entries until Forget or Flush; a zero cleanup disables the janitor goroutine.
func NewCache(opts Options, ttl, cleanup time.Duration) *Cache {
	if ttl == 0 {
		ttl = gocache.NoExpiration
	}
	return &Cache{
		store: gocache.New(ttl, cleanup),
		opts:  opts,
	}
}

// Lookup returns the memoized start time for id, calling load to obtain the
// samples on a miss. Load and format errors are not cached.
func (c *Cache) Lookup(id string, load func() (*audio.Buffer, error)) (time.Duration, error) {
	if v, ok := c.store.Get(id); ok {
		e := v.(entry)
		if !e.found {
			return 0, ErrNoOnset
		}
		return e.start, nil
	}

	buf, err := load()
	if err != nil {
		return 0, err
	}

	start, err := Detect(buf, c.opts)
	switch {
	case errors.Is(err, ErrNoOnset):
		c.store.SetDefault(id, entry{})
		return 0, err
	case err != nil:
		return 0, err
	}

	c.store.SetDefault(id, entry{start: start, found: true})
	return start, nil
}

// Forget drops the memoized result for id.
func (c *Cache) Forget(id string) {
	c.store.Delete(id)
}

// Flush drops every memoized result.
func (c *Cache) Flush() {
	c.store.Flush()
}

// Len returns the number of memoized results.
func (c *Cache) Len() int {
	return c.store.ItemCount()
}
