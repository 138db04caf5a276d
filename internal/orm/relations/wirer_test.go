package relations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/conduit-lang/modelmeta/internal/annotations"
	"github.com/conduit-lang/modelmeta/internal/orm/metadata"
)

// call is one recorded registry invocation
type call struct {
	method string
	args   []any
}

// recorder is a Registry that records every call
type recorder struct {
	calls       []call
	initialized map[string]bool
}

func newRecorder() *recorder {
	return &recorder{initialized: make(map[string]bool)}
}

func (r *recorder) record(method string, args ...any) {
	r.calls = append(r.calls, call{method: method, args: args})
}

func (r *recorder) SetConnectionService(model, service string) {
	r.record("SetConnectionService", model, service)
}

func (r *recorder) SetModelSource(model, source string) {
	r.record("SetModelSource", model, source)
}

func (r *recorder) AddHasMany(model string, fields []string, referencedModel string, referencedFields []string, options Options) {
	r.record("AddHasMany", model, fields, referencedModel, referencedFields, options)
}

func (r *recorder) AddHasManyToMany(model string, fields []string, intermediateModel string, intermediateFields, intermediateReferencedFields []string, referencedModel string, referencedFields []string, options Options) {
	r.record("AddHasManyToMany", model, fields, intermediateModel, intermediateFields, intermediateReferencedFields, referencedModel, referencedFields, options)
}

func (r *recorder) AddHasOne(model string, fields []string, referencedModel string, referencedFields []string, options Options) {
	r.record("AddHasOne", model, fields, referencedModel, referencedFields, options)
}

func (r *recorder) AddBelongsTo(model string, fields []string, referencedModel string, referencedFields []string, options Options) {
	r.record("AddBelongsTo", model, fields, referencedModel, referencedFields, options)
}

func (r *recorder) MarkInitialized(model string) bool {
	if r.initialized[model] {
		return false
	}
	r.initialized[model] = true
	return true
}

func ann(name string, args ...any) *annotations.Annotation {
	return annotations.New(name, annotations.Positional(args...))
}

func TestWirer_HasManyWithoutOptions(t *testing.T) {
	reg := newRecorder()
	w := NewWirer(annotations.NewStaticReader(), reg, nil)

	err := w.Wire("Users", annotations.NewCollection(ann("HasMany", "localId", "Orders", "userId")))
	require.NoError(t, err)

	require.Len(t, reg.calls, 1)
	assert.Equal(t, "AddHasMany", reg.calls[0].method)
	assert.Equal(t, []any{"Users", []string{"localId"}, "Orders", []string{"userId"}, Options(nil)}, reg.calls[0].args)
}

func TestWirer_DeclarationOrder(t *testing.T) {
	reg := newRecorder()
	w := NewWirer(annotations.NewStaticReader(), reg, nil)

	class := annotations.NewCollection(
		ann("Source", "db", "robots"),
		ann("BelongsTo", "brandId", "Brands", "id", map[string]any{"alias": "brand"}),
		annotations.New("Index", annotations.Named("columns", []any{"name"})),
		ann("HasManyToMany", "id", "RobotsParts", "robotsId", "partsId", "Parts", "id"),
		ann("HasOne", []any{"id", "type"}, "Specs", []any{"robotId", "type"}, []any{}),
		ann("HasMany", "id", "Logs", "robotId"),
	)
	require.NoError(t, w.Wire("Robots", class))

	methods := make([]string, len(reg.calls))
	for i, c := range reg.calls {
		methods[i] = c.method
	}
	assert.Equal(t, []string{
		"SetConnectionService", "SetModelSource", "AddBelongsTo", "AddHasManyToMany", "AddHasOne", "AddHasMany",
	}, methods)

	assert.Equal(t, []any{"Robots", "db"}, reg.calls[0].args)
	assert.Equal(t, []any{"Robots", "robots"}, reg.calls[1].args)
	assert.Equal(t, Options{"alias": "brand"}, reg.calls[2].args[4])
	assert.Equal(t, []any{
		"Robots", []string{"id"}, "RobotsParts", []string{"robotsId"}, []string{"partsId"}, "Parts", []string{"id"}, Options(nil),
	}, reg.calls[3].args)
	assert.Equal(t, []string{"id", "type"}, reg.calls[4].args[1])
	assert.Equal(t, Options(nil), reg.calls[4].args[4])
}

func TestWirer_NoAnnotations(t *testing.T) {
	reg := newRecorder()
	w := NewWirer(annotations.NewStaticReader(), reg, nil)

	require.NoError(t, w.Wire("Plain", annotations.Collection{}))
	assert.Empty(t, reg.calls)
}

func TestWirer_SourceWithoutTable(t *testing.T) {
	reg := newRecorder()
	w := NewWirer(annotations.NewStaticReader(), reg, nil)

	require.NoError(t, w.Wire("Robots", annotations.NewCollection(ann("Source", "db"))))
	require.Len(t, reg.calls, 1)
	assert.Equal(t, "SetConnectionService", reg.calls[0].method)
}

func TestWirer_ArgumentErrors(t *testing.T) {
	tests := []struct {
		name  string
		a     *annotations.Annotation
		index int
	}{
		{"too few", ann("HasMany", "id", "Orders"), 2},
		{"too few many-to-many", ann("HasManyToMany", "id", "RobotsParts", "robotsId", "partsId", "Parts"), 5},
		{"empty source", ann("Source"), 0},
		{"non string model", ann("HasOne", "id", 42, "robotId"), 1},
		{"empty fields", ann("BelongsTo", []any{}, "Brands", "id"), 0},
		{"scalar options", ann("HasMany", "id", "Orders", "userId", "alias"), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := newRecorder()
			w := NewWirer(annotations.NewStaticReader(), reg, nil)

			err := w.Wire("Users", annotations.NewCollection(tt.a))
			var target *RelationArgumentError
			require.ErrorAs(t, err, &target)
			assert.Equal(t, tt.index, target.Index)
			assert.Equal(t, "Users", target.Model)
			assert.ErrorIs(t, err, metadata.ErrConfiguration)
			assert.Empty(t, reg.calls)
		})
	}
}

func TestWirer_OptionsAreCopied(t *testing.T) {
	reg := NewModelRegistry()
	w := NewWirer(annotations.NewStaticReader(), reg, nil)

	opts := map[string]any{"alias": "orders"}
	require.NoError(t, w.Wire("Users", annotations.NewCollection(ann("HasMany", "id", "Orders", "userId", opts))))

	opts["alias"] = "changed"
	rel, ok := reg.Relation("Users", "orders")
	require.True(t, ok)
	assert.Equal(t, "orders", rel.Alias())
}

func TestWirer_Initialize(t *testing.T) {
	reader := annotations.NewStaticReader(
		annotations.NewModel("Robots").
			Class(ann("Source", "db", "robots"), ann("HasMany", "id", "Parts", "robotId")).
			Build(),
	)
	reg := NewModelRegistry()
	core, logs := observer.New(zapcore.DebugLevel)
	w := NewWirer(reader, reg, zap.New(core))

	wired, err := w.Initialize("Robots")
	require.NoError(t, err)
	assert.True(t, wired)

	wired, err = w.Initialize("Robots")
	require.NoError(t, err)
	assert.False(t, wired)

	assert.Len(t, reg.Relations("Robots"), 1)
	source, _ := reg.Source("Robots")
	assert.Equal(t, "robots", source)
	assert.Equal(t, 1, logs.FilterMessage("registered relation").Len())

	_, err = w.Initialize("Ghost")
	assert.ErrorIs(t, err, annotations.ErrModelNotFound)
}

func TestWirer_InvalidAnnotationLeavesRegistryUntouched(t *testing.T) {
	class := annotations.NewCollection(
		ann("Source", "db", "robots"),
		ann("HasMany", "id", "Parts", "robotId"),
		ann("HasOne", "id", "Specs"),
	)

	t.Run("wire", func(t *testing.T) {
		reg := newRecorder()
		w := NewWirer(annotations.NewStaticReader(), reg, nil)

		var target *RelationArgumentError
		require.ErrorAs(t, w.Wire("Robots", class), &target)
		assert.Equal(t, "HasOne", target.Annotation)
		assert.Empty(t, reg.calls)
	})

	t.Run("initialize", func(t *testing.T) {
		reader := annotations.NewStaticReader(annotations.NewModel("Robots").Class(class.All()...).Build())
		reg := NewModelRegistry()
		w := NewWirer(reader, reg, nil)

		for i := 0; i < 2; i++ {
			wired, err := w.Initialize("Robots")
			assert.ErrorIs(t, err, metadata.ErrConfiguration)
			assert.False(t, wired)
		}

		assert.False(t, reg.IsInitialized("Robots"))
		assert.Empty(t, reg.Relations("Robots"))
		_, ok := reg.ConnectionService("Robots")
		assert.False(t, ok)
	})
}
