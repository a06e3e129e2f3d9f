package cache

import (
	"sync"

	"storefront/pkg/logger"

	"go.uber.org/fx"
)

var (
	Module = fx.Provide(New)
)

type (
	Params struct {
		fx.In
		Logger logger.Logger
	}

	// ICache is a process local byte store. It backs the "memory" storage
	// driver, so values survive only as long as the process.
	ICache interface {
		Set(key string, value []byte)
		Get(key string) ([]byte, bool)
		Delete(key string)
		// Update runs fn under the write lock with the current value (nil when
		// absent). A nil result deletes the key.
		Update(key string, fn func(current []byte) ([]byte, error)) error
	}

	cache struct {
		logger   logger.Logger
		memCache map[string][]byte
		m        sync.RWMutex
	}
)

func New(p Params) ICache {
	return &cache{
		logger:   p.Logger,
		memCache: map[string][]byte{},
	}
}

func (c *cache) Set(key string, value []byte) {
	c.m.Lock()
	defer c.m.Unlock()

	c.memCache[key] = clone(value)
}

func (c *cache) Get(key string) ([]byte, bool) {
	c.m.RLock()
	defer c.m.RUnlock()

	v, ok := c.memCache[key]
	return clone(v), ok
}

func (c *cache) Delete(key string) {
	c.m.Lock()
	defer c.m.Unlock()

	delete(c.memCache, key)
}

func (c *cache) Update(key string, fn func(current []byte) ([]byte, error)) error {
	c.m.Lock()
	defer c.m.Unlock()

	next, err := fn(clone(c.memCache[key]))
	if err != nil {
		return err
	}
	if next == nil {
		delete(c.memCache, key)
		return nil
	}
	c.memCache[key] = clone(next)
	return nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
