package metacache

import (
	"context"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/conduit-lang/modelmeta/internal/orm/metadata"
)

// Compiler produces metadata records; *metadata.Compiler implements it
type Compiler interface {
	Compile(model string) (*metadata.ModelMetadata, error)
}

// CachedCompiler reads metadata through a cache. Concurrent misses for the
// same model may compile it more than once; compilation has no side effects
// so the duplicates are harmless.
type CachedCompiler struct {
	compiler Compiler
	cache    Cache
	ttl      time.Duration
	logger   *zap.Logger
}

// CachedOption configures a CachedCompiler
type CachedOption func(*CachedCompiler)

// WithTTL sets the expiration of cached records
func WithTTL(ttl time.Duration) CachedOption {
	return func(c *CachedCompiler) {
		c.ttl = ttl
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) CachedOption {
	return func(c *CachedCompiler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCachedCompiler wraps compiler with cache
func NewCachedCompiler(compiler Compiler, cache Cache, opts ...CachedOption) *CachedCompiler {
	c := &CachedCompiler{
		compiler: compiler,
		cache:    cache,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key returns the cache key of a model's metadata
func Key(model string) string {
	return "meta:" + model
}

// Metadata returns the metadata of a model from the cache, compiling and
// storing it on a miss. Cache failures are logged and never fail the call.
func (c *CachedCompiler) Metadata(ctx context.Context, model string) (*metadata.ModelMetadata, error) {
	key := Key(model)

	data, err := c.cache.Get(ctx, key)
	switch {
	case err == nil:
		var meta metadata.ModelMetadata
		decodeErr := msgpack.Unmarshal(data, &meta)
		if decodeErr == nil {
			c.logger.Debug("metadata cache hit", zap.String("model", model))
			return &meta, nil
		}
		c.logger.Warn("discarding undecodable metadata cache entry",
			zap.String("model", model), zap.Error(decodeErr))
	case IsCacheMiss(err):
		c.logger.Debug("metadata cache miss", zap.String("model", model))
	case ctx.Err() != nil:
		return nil, ctx.Err()
	default:
		c.logger.Warn("metadata cache unavailable", zap.String("model", model), zap.Error(err))
	}

	meta, err := c.compiler.Compile(model)
	if err != nil {
		return nil, err
	}

	if err := c.store(ctx, key, meta); err != nil {
		c.logger.Warn("failed to cache metadata", zap.String("model", model), zap.Error(err))
	}
	return meta, nil
}

func (c *CachedCompiler) store(ctx context.Context, key string, meta *metadata.ModelMetadata) error {
	data, err := msgpack.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	return c.cache.Set(ctx, key, data, c.ttl)
}

// Invalidate drops the cached metadata of a model
func (c *CachedCompiler) Invalidate(ctx context.Context, model string) error {
	return c.cache.Delete(ctx, Key(model))
}

// Warm compiles and caches every given model, stopping at the first
// compilation error
func (c *CachedCompiler) Warm(ctx context.Context, models []string) error {
	for _, model := range models {
		if err := ctx.Err(); err != nil {
			return err
		}
		meta, err := c.compiler.Compile(model)
		if err != nil {
			return fmt.Errorf("failed to warm %s: %w", model, err)
		}
		if err := c.store(ctx, Key(model), meta); err != nil {
			return fmt.Errorf("failed to warm %s: %w", model, err)
		}
	}
	return nil
}
