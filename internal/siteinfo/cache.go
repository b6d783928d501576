// Package siteinfo caches per-domain site metadata.
package siteinfo

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/wikifeeds-api/internal/metrics"
	"github.com/wikifeeds-api/internal/models"
)

// Loader fetches site metadata for a domain
type Loader interface {
	FetchSiteInfo(ctx context.Context, domain string) (*models.SiteInfo, error)
}

// defaultLoadTimeout bounds a shared load when no timeout is configured
const defaultLoadTimeout = 10 * time.Second

// Cache is a size- and age-bounded site metadata cache. Concurrent misses
// for the same domain share one upstream load. The shared load is detached
// from the cancellation of the request that started it and bounded by the
// cache's own load timeout.
type Cache struct {
	loader      Loader
	lru         *expirable.LRU[string, *models.SiteInfo]
	group       singleflight.Group
	loadTimeout time.Duration
	log         zerolog.Logger
}

// NewCache creates a Cache holding at most size domains for ttl each.
// Each upstream load may take at most loadTimeout.
func NewCache(loader Loader, size int, ttl, loadTimeout time.Duration, log zerolog.Logger) *Cache {
	if size <= 0 {
		size = 1
	}
	if loadTimeout <= 0 {
		loadTimeout = defaultLoadTimeout
	}
	return &Cache{
		loader:      loader,
		lru:         expirable.NewLRU[string, *models.SiteInfo](size, nil, ttl),
		loadTimeout: loadTimeout,
		log:         log.With().Str("component", "siteinfo_cache").Logger(),
	}
}

// Get returns the metadata of domain, loading it on a miss.
// Failed loads are not cached.
func (c *Cache) Get(ctx context.Context, domain string) (*models.SiteInfo, error) {
	if si, ok := c.lru.Get(domain); ok {
		metrics.SiteInfoCache.WithLabelValues("hit").Inc()
		return si, nil
	}
	metrics.SiteInfoCache.WithLabelValues("miss").Inc()

	ch := c.group.DoChan(domain, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.loadTimeout)
		defer cancel()

		si, err := c.loader.FetchSiteInfo(loadCtx, domain)
		if err != nil {
			return nil, err
		}
		c.lru.Add(domain, si)
		return si, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("failed to load site info for %s: %w", domain, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			c.log.Warn().Err(res.Err).Str("domain", domain).Msg("Failed to load site info")
			return nil, fmt.Errorf("failed to load site info for %s: %w", domain, res.Err)
		}
		if res.Shared {
			c.log.Debug().Str("domain", domain).Msg("Site info load shared with concurrent request")
		}
		return res.Val.(*models.SiteInfo), nil
	}
}

// Purge drops every cached entry
func (c *Cache) Purge() {
	c.lru.Purge()
}

// Len returns the number of cached domains
func (c *Cache) Len() int {
	return c.lru.Len()
}
