package metacache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/conduit-lang/modelmeta/internal/annotations"
	"github.com/conduit-lang/modelmeta/internal/orm/metadata"
)

type mysqlOnly struct{}

func (mysqlOnly) Dialect(string) (string, error) { return metadata.DialectMySQL, nil }

// countingCompiler counts compilations
type countingCompiler struct {
	inner Compiler
	calls int
}

func (c *countingCompiler) Compile(model string) (*metadata.ModelMetadata, error) {
	c.calls++
	return c.inner.Compile(model)
}

func newCountingCompiler(t *testing.T) *countingCompiler {
	t.Helper()
	reader := annotations.NewStaticReader(
		annotations.NewModel("Robots").
			Class(
				annotations.New(metadata.AnnotationSource, annotations.Positional("db", "robots")),
				annotations.New(metadata.AnnotationIndex, annotations.Named("columns", []any{"name"}, "type", "unique")),
			).
			Property("id",
				annotations.New(metadata.AnnotationPrimary, annotations.Arguments{}),
				annotations.New(metadata.AnnotationIdentity, annotations.Arguments{}),
				annotations.New(metadata.AnnotationColumn, annotations.Named("type", "integer")),
			).
			Property("name", annotations.New(metadata.AnnotationColumn, annotations.Named("type", "string", "size", 70))).
			Build(),
		annotations.NewModel("Broken").Build(),
	)
	inner, err := metadata.NewCompiler(reader, mysqlOnly{})
	require.NoError(t, err)
	return &countingCompiler{inner: inner}
}

func TestCachedCompiler_ReadThrough(t *testing.T) {
	compiler := newCountingCompiler(t)
	cache := NewMemoryCache(DefaultConfig())
	defer cache.Close()

	cc := NewCachedCompiler(compiler, cache, WithTTL(time.Hour))
	ctx := context.Background()

	first, err := cc.Metadata(ctx, "Robots")
	require.NoError(t, err)
	second, err := cc.Metadata(ctx, "Robots")
	require.NoError(t, err)

	assert.Equal(t, 1, compiler.calls)
	assert.Equal(t, first.Attributes, second.Attributes)
	assert.Equal(t, first.Sizes, second.Sizes)
	assert.Equal(t, first.Indexes, second.Indexes)
	assert.Equal(t, first.DataTypes, second.DataTypes)
	assert.Equal(t, metadata.IdentityOf("id"), second.IdentityColumn)

	require.NoError(t, cc.Invalidate(ctx, "Robots"))
	_, err = cc.Metadata(ctx, "Robots")
	require.NoError(t, err)
	assert.Equal(t, 2, compiler.calls)
}

func TestCachedCompiler_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := NewRedisCacheWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), DefaultConfig())
	defer cache.Close()

	compiler := newCountingCompiler(t)
	cc := NewCachedCompiler(compiler, cache, WithTTL(time.Minute))
	ctx := context.Background()

	require.NoError(t, cc.Warm(ctx, []string{"Robots"}))
	assert.True(t, mr.Exists("modelmeta:meta:Robots"))

	meta, err := cc.Metadata(ctx, "Robots")
	require.NoError(t, err)
	assert.Equal(t, 1, compiler.calls)
	assert.Equal(t, []string{"id", "name"}, meta.Attributes)
	assert.Equal(t, 70, meta.Sizes["name"])
}

func TestCachedCompiler_CompileErrorsAreNotCached(t *testing.T) {
	compiler := newCountingCompiler(t)
	cache := NewMemoryCache(DefaultConfig())
	defer cache.Close()
	cc := NewCachedCompiler(compiler, cache)

	_, err := cc.Metadata(context.Background(), "Broken")
	assert.True(t, metadata.IsConfigurationError(err))
	assert.Equal(t, 0, cache.Len())

	err = cc.Warm(context.Background(), []string{"Robots", "Broken"})
	assert.ErrorContains(t, err, "Broken")
}

// brokenCache fails every operation
type brokenCache struct{}

var errUnavailable = errors.New("unavailable")

func (brokenCache) Get(context.Context, string) ([]byte, error)              { return nil, errUnavailable }
func (brokenCache) Set(context.Context, string, []byte, time.Duration) error { return errUnavailable }
func (brokenCache) Delete(context.Context, string) error                     { return errUnavailable }
func (brokenCache) Clear(context.Context) error                              { return errUnavailable }
func (brokenCache) Exists(context.Context, string) (bool, error)             { return false, errUnavailable }
func (brokenCache) Close() error                                             { return nil }

func TestCachedCompiler_CacheFailuresFallBack(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	compiler := newCountingCompiler(t)
	cc := NewCachedCompiler(compiler, brokenCache{}, WithLogger(zap.New(core)))

	meta, err := cc.Metadata(context.Background(), "Robots")
	require.NoError(t, err)
	assert.Equal(t, "Robots", meta.Model)
	assert.Equal(t, 2, logs.Len())
}

func TestCachedCompiler_CorruptEntry(t *testing.T) {
	compiler := newCountingCompiler(t)
	cache := NewMemoryCache(DefaultConfig())
	defer cache.Close()

	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, Key("Robots"), []byte{0xc1}, 0))

	meta, err := NewCachedCompiler(compiler, cache).Metadata(ctx, "Robots")
	require.NoError(t, err)
	assert.Equal(t, "Robots", meta.Model)
	assert.Equal(t, 1, compiler.calls)
}
