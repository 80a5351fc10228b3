// Package cache provides a Redis-backed cache for BigQuery result pages.
//
// A finished query job's result pages never change, so a page fetched once
// for (project, job, startIndex, maxResults) can be served again without a
// round trip. PageCache wraps any query.API and caches GetQueryResults
// responses; RunQuery always goes to the API.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	manager := cache.NewManager(redisClient)
//	api := cache.NewPageCache(restClient, manager, cache.PageCacheConfig{
//		ProjectID: "my-project",
//		TTL:       time.Hour,
//	})
//	rows := query.NewClient(api)
//
// Cache errors are logged and counted, never returned: a broken cache only
// costs extra API calls.
//
// # Cache Key Format
//
//	bq:page:<project>:<job>:start=<startIndex>:max=<maxResults>
//
// # Metrics
//
//   - bq_cache_hits_total{layer="redis"}
//   - bq_cache_misses_total
//   - bq_cache_size_bytes{layer="redis"}
//   - bq_cache_errors_total{operation}
package cache
