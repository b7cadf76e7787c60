// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package texture

import (
	"context"
	"image"
	"net/http"
	"sync"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gviegas/xrcube/internal/log"
)

// Cache fetches textures at most once per location.
// Concurrent requests for the same location share a single
// fetch. Failed fetches are not cached.
type Cache struct {
	client *http.Client
	log    *zap.Logger

	mu sync.Mutex
	m  map[uint64]*entry
}

type entry struct {
	loc  string
	done chan struct{}
	img  *image.RGBA
	err  error
}

// NewCache creates a new Cache.
// client and l may be nil.
func NewCache(client *http.Client, l *zap.Logger) *Cache {
	return &Cache{
		client: client,
		log:    log.OrNop(l),
		m:      make(map[uint64]*entry),
	}
}

// Get returns the decoded image at loc, fetching it if it
// is not cached.
func (c *Cache) Get(ctx context.Context, loc string) (*image.RGBA, error) {
	key := xxhash.Sum64String(loc)
	c.mu.Lock()
	e, ok := c.m[key]
	if ok && e.loc != loc {
		// Hash collision; leave the cached entry alone.
		c.mu.Unlock()
		return Fetch(ctx, c.client, loc)
	}
	if !ok {
		e = &entry{loc: loc, done: make(chan struct{})}
		c.m[key] = e
		c.mu.Unlock()
		c.fill(ctx, key, e)
	} else {
		c.mu.Unlock()
	}
	select {
	case <-e.done:
		return e.img, e.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Cache) fill(ctx context.Context, key uint64, e *entry) {
	e.img, e.err = Fetch(ctx, c.client, e.loc)
	if e.err != nil {
		c.mu.Lock()
		delete(c.m, key)
		c.mu.Unlock()
		c.log.Warn("texture fetch failed", zap.String("url", e.loc), zap.Error(e.err))
	} else {
		b := e.img.Bounds()
		c.log.Debug("texture fetched",
			zap.String("url", e.loc),
			zap.Int("width", b.Dx()),
			zap.Int("height", b.Dy()))
	}
	close(e.done)
}

// Len returns the number of cached (or in-flight)
// textures.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.m)
}

// Preload fetches every location concurrently.
// It returns the first error encountered.
func (c *Cache) Preload(ctx context.Context, locs ...string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, loc := range locs {
		g.Go(func() error {
			_, err := c.Get(ctx, loc)
			return err
		})
	}
	return g.Wait()
}

// Load fetches loc in the background.
// The returned channel delivers the image once and is then
// closed. If the fetch fails, the failure is logged and the
// channel is closed without a value.
func (c *Cache) Load(ctx context.Context, loc string) <-chan *image.RGBA {
	ch := make(chan *image.RGBA, 1)
	go func() {
		defer close(ch)
		img, err := c.Get(ctx, loc)
		if err != nil {
			return
		}
		ch <- img
	}()
	return ch
}
