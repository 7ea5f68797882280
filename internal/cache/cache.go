package cache

import "time"

// Repository is the cache contract used for memoizing signal bundles.
type Repository interface {
	Get(key string) (string, bool)
	Set(key string, value string, ttl time.Duration) error
}
