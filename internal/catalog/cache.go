package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"ngo_connect_backend/internal/logger"
	"ngo_connect_backend/internal/models"
)

const allCategories = "_all"

// CachedProvider keeps rosters in Redis for ttl. Redis failures degrade to
// calling the wrapped provider directly.
type CachedProvider struct {
	next   Provider
	redis  *redis.Client
	prefix string
	ttl    time.Duration
}

func NewCachedProvider(next Provider, client *redis.Client, prefix string, ttl time.Duration) *CachedProvider {
	if prefix == "" {
		prefix = "ngo-connect"
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachedProvider{next: next, redis: client, prefix: prefix, ttl: ttl}
}

func (p *CachedProvider) key(category string) string {
	if category == "" {
		category = allCategories
	}
	return p.prefix + ":catalog:" + category
}

func (p *CachedProvider) LoadActive(ctx context.Context, category string) ([]models.NGO, error) {
	key := p.key(category)

	raw, err := p.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var ngos []models.NGO
		if err := json.Unmarshal(raw, &ngos); err == nil {
			return ngos, nil
		}
		logger.CtxWarn(ctx, "discarding undecodable catalog cache entry", "key", key)
	case !errors.Is(err, redis.Nil):
		logger.CtxWarn(ctx, "catalog cache read failed", "key", key, "error", err)
	}

	ngos, err := p.next.LoadActive(ctx, category)
	if err != nil {
		return nil, err
	}
	p.store(ctx, key, ngos)
	return ngos, nil
}

func (p *CachedProvider) store(ctx context.Context, key string, ngos []models.NGO) {
	data, err := json.Marshal(ngos)
	if err != nil {
		return
	}
	if err := p.redis.Set(ctx, key, data, p.ttl).Err(); err != nil {
		logger.CtxWarn(ctx, "catalog cache write failed", "key", key, "error", err)
	}
}

// Refresh reloads the full roster and every category roster currently cached
// straight from the wrapped provider, overwriting the cached entries. It
// returns the number of rosters written.
func (p *CachedProvider) Refresh(ctx context.Context) (int, error) {
	keys, err := p.cachedKeys(ctx)
	if err != nil {
		return 0, err
	}

	categories := map[string]bool{"": true}
	keyPrefix := p.prefix + ":catalog:"
	for _, key := range keys {
		category := strings.TrimPrefix(key, keyPrefix)
		if category == allCategories {
			category = ""
		}
		categories[category] = true
	}

	refreshed := 0
	for category := range categories {
		ngos, err := p.next.LoadActive(ctx, category)
		if err != nil {
			return refreshed, err
		}
		p.store(ctx, p.key(category), ngos)
		refreshed++
	}
	return refreshed, nil
}

func (p *CachedProvider) cachedKeys(ctx context.Context) ([]string, error) {
	iter := p.redis.Scan(ctx, 0, p.prefix+":catalog:*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	return keys, iter.Err()
}

// Invalidate drops every cached roster under the prefix.
func (p *CachedProvider) Invalidate(ctx context.Context) error {
	keys, err := p.cachedKeys(ctx)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return p.redis.Del(ctx, keys...).Err()
}
