package redis

import "time"

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Namespace prefixes every key written by this store
	Namespace string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// EntryTTL bounds how long stale entries survive in Redis. Zero keeps
	// entries until deleted. Token expiry is enforced by the auth service
	// regardless of this value.
	EntryTTL time.Duration
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:          "redis://localhost:6379",
		Namespace:    "quiz",
		PoolSize:     4,
		MinIdleConns: 1,
		EntryTTL:     7 * 24 * time.Hour,
	}
}
