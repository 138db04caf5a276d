// Package metacache stores compiled model metadata so it is not recompiled
// on every request. Backends hold opaque bytes; CachedCompiler encodes
// metadata records with msgpack and reads through to the compiler on a miss.
package metacache

import (
	"context"
	"errors"
	"time"
)

// Cache is a byte store with per-key expiration
type Cache interface {
	// Get returns ErrCacheMiss when the key is absent or expired
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value; a zero ttl uses the backend default
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	Delete(ctx context.Context, key string) error

	// Clear removes every key under the backend prefix
	Clear(ctx context.Context) error

	Exists(ctx context.Context, key string) (bool, error)

	Close() error
}

// Config holds the settings shared by every backend
type Config struct {
	// DefaultTTL applies when Set is called with a zero ttl. A negative value
	// means entries never expire.
	DefaultTTL time.Duration
	// Prefix namespaces the keys of this cache
	Prefix string
}

// DefaultConfig returns the default cache settings
func DefaultConfig() Config {
	return Config{
		DefaultTTL: 10 * time.Minute,
		Prefix:     "modelmeta:",
	}
}

func (c Config) ttl(ttl time.Duration) time.Duration {
	if ttl == 0 {
		return c.DefaultTTL
	}
	return ttl
}

// ErrCacheMiss is returned when a key is not in the cache
type ErrCacheMiss struct {
	Key string
}

func (e ErrCacheMiss) Error() string {
	return "cache miss: " + e.Key
}

// IsCacheMiss reports whether err is, or wraps, a cache miss
func IsCacheMiss(err error) bool {
	var miss ErrCacheMiss
	return errors.As(err, &miss)
}
