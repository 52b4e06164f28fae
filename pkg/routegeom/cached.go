package routegeom

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	redisstore "github.com/eko/gocache/store/redis/v4"
	"github.com/ghostwatch/ghostwatch/pkg/model"
	"github.com/ghostwatch/ghostwatch/pkg/redis_client"
	"github.com/rs/zerolog/log"
)

const notAvailable = "N/A"

// Cached wraps a Provider with a redis-backed cache so route lookups stay
// off the ingestion hot path. Routes with no reference are negatively cached
// to stop us from constantly rechecking them
type Cached struct {
	inner      Provider
	routeCache *cache.Cache[string]
}

func NewCached(inner Provider, expiration time.Duration) *Cached {
	redisStore := redisstore.NewRedis(redis_client.Client, store.WithExpiration(expiration))

	return &Cached{
		inner:      inner,
		routeCache: cache.New[string](redisStore),
	}
}

func (c *Cached) Lookup(ctx context.Context, routeID string) (*model.RouteReference, error) {
	cacheKey := fmt.Sprintf("routeref/%s", routeID)

	cached, _ := c.routeCache.Get(ctx, cacheKey)
	if cached == notAvailable {
		return nil, nil
	}

	if cached != "" {
		var routeReference model.RouteReference
		if err := json.Unmarshal([]byte(cached), &routeReference); err == nil {
			return &routeReference, nil
		}
	}

	routeReference, err := c.inner.Lookup(ctx, routeID)
	if err != nil {
		// Treat a failing provider the same as a missing one, without
		// poisoning the cache
		return nil, err
	}

	if routeReference == nil {
		c.routeCache.Set(ctx, cacheKey, notAvailable)
		return nil, nil
	}

	referenceJson, err := json.Marshal(routeReference)
	if err != nil {
		log.Error().Err(err).Str("route", routeID).Msg("Failed to marshal route reference")
		return routeReference, nil
	}

	c.routeCache.Set(ctx, cacheKey, string(referenceJson))

	return routeReference, nil
}
