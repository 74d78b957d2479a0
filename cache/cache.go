// Package cache keeps loaded objects, such as parsed instances, so that
// repeated runs over the same input do not parse it again.
package cache

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/domino14/setcover/config"
)

type LoadFunc func(cfg *config.Config, key string) (any, error)

// Cache is safe for concurrent use. A key is loaded at most once; a failed
// load is not cached.
type Cache struct {
	sync.Mutex
	objects map[string]any
	hits    int
	misses  int
}

func New() *Cache {
	return &Cache{objects: make(map[string]any)}
}

// Load returns the object for key, calling loadFunc on a miss.
func (c *Cache) Load(cfg *config.Config, key string, loadFunc LoadFunc) (any, error) {
	c.Lock()
	defer c.Unlock()
	if obj, ok := c.objects[key]; ok {
		c.hits++
		log.Debug().Str("key", key).Msg("getting obj from cache")
		return obj, nil
	}
	c.misses++
	log.Debug().Str("key", key).Msg("loading into cache")
	obj, err := loadFunc(cfg, key)
	if err != nil {
		return nil, err
	}
	c.objects[key] = obj
	return obj, nil
}

// Stats returns the hit and miss counts so far.
func (c *Cache) Stats() (hits, misses int) {
	c.Lock()
	defer c.Unlock()
	return c.hits, c.misses
}
