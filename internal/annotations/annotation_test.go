package annotations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArguments(t *testing.T) {
	t.Run("positional and named coexist", func(t *testing.T) {
		args := Positional("db", "robots")
		args.Set("schema", "public")

		assert.Equal(t, "db", args.At(0))
		assert.Equal(t, "robots", args.At(1))
		assert.Nil(t, args.At(2))
		assert.Nil(t, args.At(-1))
		assert.True(t, args.HasAt(1))
		assert.False(t, args.HasAt(2))
		assert.Equal(t, "public", args.Get("schema"))
		assert.Equal(t, 3, args.Len())
	})

	t.Run("null named values are unset", func(t *testing.T) {
		args := Named("size", nil, "type", "string")

		_, ok := args.Lookup("size")
		assert.False(t, ok)
		assert.Equal(t, []string{"size", "type"}, args.Keys())
	})

	t.Run("set keeps key order", func(t *testing.T) {
		args := Named("a", 1, "b", 2)
		args.Set("a", 3)
		assert.Equal(t, []string{"a", "b"}, args.Keys())
		assert.Equal(t, 3, args.Get("a"))
	})

	t.Run("typed accessors", func(t *testing.T) {
		args := Named("size", 70.0, "name", "x", "count", "12", "ratio", 1.5)

		size, ok := args.Int("size")
		require.True(t, ok)
		assert.Equal(t, 70, size)

		count, ok := args.Int("count")
		require.True(t, ok)
		assert.Equal(t, 12, count)

		_, ok = args.Int("ratio")
		assert.False(t, ok)

		_, ok = args.Str("size")
		assert.False(t, ok)

		name, ok := args.Str("name")
		require.True(t, ok)
		assert.Equal(t, "x", name)
	})

	t.Run("Named panics on bad pairs", func(t *testing.T) {
		assert.Panics(t, func() { Named("odd") })
		assert.Panics(t, func() { Named(1, "x") })
	})

	t.Run("positionals are copied", func(t *testing.T) {
		args := Positional("a")
		p := args.Positionals()
		p[0] = "b"
		assert.Equal(t, "a", args.At(0))
	})
}

func TestAnnotation_String(t *testing.T) {
	assert.Equal(t, "@Primary", New("Primary", Arguments{}).String())

	args := Positional("db")
	args.Set("columns", []any{"a", "b"})
	args.Set("nullable", false)
	args.Set("default", nil)
	assert.Equal(t, `@Source("db", columns={"a", "b"}, nullable=false, default=null)`, New("Source", args).String())
}

func TestValues(t *testing.T) {
	t.Run("ToStrings", func(t *testing.T) {
		out, ok := ToStrings([]any{"a", "b"})
		require.True(t, ok)
		assert.Equal(t, []string{"a", "b"}, out)

		out, ok = ToStrings("a")
		require.True(t, ok)
		assert.Equal(t, []string{"a"}, out)

		_, ok = ToStrings([]any{"a", 1})
		assert.False(t, ok)

		_, ok = ToStrings(42)
		assert.False(t, ok)
	})

	t.Run("IsSequence", func(t *testing.T) {
		assert.True(t, IsSequence([]any{}))
		assert.True(t, IsSequence([]string{"a"}))
		assert.False(t, IsSequence("a"))
		assert.False(t, IsSequence(map[string]any{}))
	})

	t.Run("Truthy", func(t *testing.T) {
		for _, v := range []any{nil, false, 0, 0.0, "", "0", []any{}, map[string]any{}} {
			assert.False(t, Truthy(v), "%#v", v)
		}
		for _, v := range []any{true, 1, -1, 0.5, "no", []any{0}} {
			assert.True(t, Truthy(v), "%#v", v)
		}
	})
}

func TestCollection(t *testing.T) {
	c := NewCollection(
		New("Source", Positional("db")),
		New("Index", Named("columns", []any{"a"})),
		New("Index", Named("columns", []any{"b"})),
	)

	assert.True(t, c.Has("Index"))
	assert.False(t, c.Has("HasMany"))
	assert.Equal(t, 3, c.Len())

	first, ok := c.Get("Index")
	require.True(t, ok)
	assert.Equal(t, []any{"a"}, first.Args.Get("columns"))

	all := c.GetAll("Index")
	require.Len(t, all, 2)
	assert.Equal(t, []any{"b"}, all[1].Args.Get("columns"))

	assert.Empty(t, Collection{}.GetAll("Index"))
}

func TestPropertyAnnotations(t *testing.T) {
	p := NewPropertyAnnotations()
	p.Add("id", NewCollection(New("Primary", Arguments{})))
	p.Add("name", NewCollection())
	p.Add("id", NewCollection(New("Identity", Arguments{})))

	assert.Equal(t, []string{"id", "name"}, p.Names())
	assert.Equal(t, 2, p.Len())

	id, ok := p.Get("id")
	require.True(t, ok)
	assert.True(t, id.Has("Identity"))
	assert.False(t, id.Has("Primary"))

	var visited []string
	p.Each(func(name string, _ Collection) { visited = append(visited, name) })
	assert.Equal(t, []string{"id", "name"}, visited)

	var nilProps *PropertyAnnotations
	assert.Equal(t, 0, nilProps.Len())
	assert.Nil(t, nilProps.Names())
}

func TestStaticReader(t *testing.T) {
	r := NewStaticReader(
		NewModel("Robots").Class(New("Source", Positional("db", "robots"))).Property("id").Build(),
		NewModel("Parts").Build(),
	)

	assert.Equal(t, []string{"Parts", "Robots"}, r.Models())

	class, err := r.ClassAnnotations("Robots")
	require.NoError(t, err)
	assert.True(t, class.Has("Source"))

	props, err := r.PropertiesAnnotations("Robots")
	require.NoError(t, err)
	assert.Equal(t, []string{"id"}, props.Names())

	_, err = r.ClassAnnotations("Ghost")
	assert.ErrorIs(t, err, ErrModelNotFound)
	_, err = r.PropertiesAnnotations("Ghost")
	assert.ErrorIs(t, err, ErrModelNotFound)
}
