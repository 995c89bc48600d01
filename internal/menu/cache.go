package menu

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/postcardmijo/food/internal/models"
)

const maxCachedDays = 7

// Fetcher retrieves the menu for a date
type Fetcher interface {
	Fetch(ctx context.Context, date time.Time) (*models.Menu, error)
}

// Cache keeps one fetched menu per calendar day
type Cache struct {
	fetcher Fetcher

	mu    sync.Mutex
	menus map[string]*models.Menu
}

// NewCache wraps fetcher with a daily cache
func NewCache(fetcher Fetcher) *Cache {
	return &Cache{
		fetcher: fetcher,
		menus:   make(map[string]*models.Menu),
	}
}

// Get returns the cached menu for date, fetching it on a miss. Menus with no
// halls are not cached so a failed morning fetch is retried.
func (c *Cache) Get(ctx context.Context, date time.Time) (*models.Menu, error) {
	key := date.Format(models.DateLayout)

	c.mu.Lock()
	menu, ok := c.menus[key]
	c.mu.Unlock()
	if ok {
		return menu, nil
	}

	menu, err := c.fetcher.Fetch(ctx, date)
	if err != nil {
		return nil, err
	}
	if len(menu.Halls) == 0 {
		return menu, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.menus[key] = menu
	c.evictLocked()
	return menu, nil
}

func (c *Cache) evictLocked() {
	if len(c.menus) <= maxCachedDays {
		return
	}
	keys := make([]string, 0, len(c.menus))
	for k := range c.menus {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys[:len(keys)-maxCachedDays] {
		delete(c.menus, k)
	}
}
