package repositories

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"fieldservice-admin/internal/entities"
)

// OptionsLoader загружает варианты выбора {id, displayName} для сущности.
type OptionsLoader func(ctx context.Context, entity string) ([]entities.Option, error)

// OptionsCache держит списки вариантов в памяти процесса. Одновременные
// промахи по одной сущности сводятся в один запрос к бэкенду.
type OptionsCache struct {
	cache  *gocache.Cache
	group  singleflight.Group
	loader OptionsLoader
}

func NewOptionsCache(loader OptionsLoader, ttl time.Duration) *OptionsCache {
	return &OptionsCache{
		cache:  gocache.New(ttl, 2*ttl),
		loader: loader,
	}
}

func (c *OptionsCache) Get(ctx context.Context, entity string) ([]entities.Option, error) {
	if cached, ok := c.cache.Get(entity); ok {
		return copyOptions(cached.([]entities.Option)), nil
	}

	v, err, _ := c.group.Do(entity, func() (interface{}, error) {
		options, err := c.loader(ctx, entity)
		if err != nil {
			return nil, err
		}
		c.cache.SetDefault(entity, options)
		return options, nil
	})
	if err != nil {
		return nil, err
	}
	return copyOptions(v.([]entities.Option)), nil
}

// Invalidate — после создания или удаления записи сущности.
func (c *OptionsCache) Invalidate(entity string) {
	c.cache.Delete(entity)
}

func copyOptions(in []entities.Option) []entities.Option {
	return append([]entities.Option(nil), in...)
}
