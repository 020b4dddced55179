// Package cache provides a generic, thread-safe LRU cache with optional
// per-entry expiry.
//
// A cache is an explicit object: the caller constructs it, chooses its
// capacity and TTL, and owns its lifetime. There is no package-level cache
// and no "last fetched at" bookkeeping outside the cache itself.
//
// # Usage
//
//	c := cache.NewLRUCache[uuid.UUID, *entitlement.UserSubscription](10_000,
//		cache.WithTTL(30*time.Second),
//	)
//
//	c.Put(userID, sub)
//	if sub, ok := c.Get(userID); ok {
//		// fresh entry
//	}
//	c.Remove(userID) // invalidate
//
// # Expiry
//
// With WithTTL, an entry expires d after its last Put. Expired entries are
// dropped lazily on Get or Put, so Len may include entries that have expired
// but were not touched since.
//
// # Invalidation hooks
//
// SetEvictCallback registers a function called whenever an entry leaves the
// cache: capacity eviction, expiry, Remove, or Clear.
//
//	c.SetEvictCallback(func(id uuid.UUID, _ *entitlement.UserSubscription) {
//		metrics.Invalidations.Inc()
//	})
//
// All operations are O(1) and safe for concurrent use.
package cache
