// Package metadata caches org describe results so repeated validation runs
// do not re-describe the same objects against the Salesforce API.
package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/pkg/metrics"
	"github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/pkg/redis"
	"github.com/jessewindebank1809/2cloudnine-migration-tool-sub000/pkg/salesforce"
)

// DefaultTTL bounds how long a cached describe is trusted. Schema changes in
// an org surface after at most this window.
const DefaultTTL = 15 * time.Minute

// CachingClient decorates a Salesforce client with a Redis-backed describe
// cache. Query traffic passes through untouched; only object metadata is
// cached.
type CachingClient struct {
	salesforce.Client

	orgID  string
	cache  *redis.Client
	ttl    time.Duration
	logger ectologger.Logger
}

// WrapClient returns a client whose describe calls are served from the cache
// when possible. A nil cache returns the inner client unchanged.
func WrapClient(inner salesforce.Client, cache *redis.Client, orgID string, ttl time.Duration, logger ectologger.Logger) salesforce.Client {
	if cache == nil {
		return inner
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CachingClient{
		Client: inner,
		orgID:  orgID,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

// GetObjectMetadata serves a describe from the cache, falling back to the
// inner client on a miss or any cache error. Cache failures never fail the
// describe.
func (c *CachingClient) GetObjectMetadata(ctx context.Context, objectName string) (*salesforce.ObjectMetadata, error) {
	key := c.describeKey(objectName)

	raw, err := c.cache.Get(ctx, key)
	if err == nil {
		var meta salesforce.ObjectMetadata
		if err := json.Unmarshal([]byte(raw), &meta); err == nil {
			metrics.DescribeCacheHits.WithLabelValues("hit").Inc()
			return &meta, nil
		}
		// corrupt entry, drop it and re-describe
		_ = c.cache.Del(ctx, key)
	} else if !redis.IsNil(err) {
		c.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"org_id": c.orgID,
			"object": objectName,
		}).Warn("Describe cache read failed, describing directly")
	}

	metrics.DescribeCacheHits.WithLabelValues("miss").Inc()
	meta, err := c.Client.GetObjectMetadata(ctx, objectName)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(meta); err == nil {
		if err := c.cache.Set(ctx, key, payload, c.ttl); err != nil {
			c.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"org_id": c.orgID,
				"object": objectName,
			}).Warn("Describe cache write failed")
		}
	}
	return meta, nil
}

// Invalidate drops the cached describe for one object.
func (c *CachingClient) Invalidate(ctx context.Context, objectName string) error {
	return c.cache.Del(ctx, c.describeKey(objectName))
}

func (c *CachingClient) describeKey(objectName string) string {
	return fmt.Sprintf("describe:%s:%s", c.orgID, objectName)
}
