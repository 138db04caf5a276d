package ui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTable_Render(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, true, "COLUMN", "TYPE")
	table.AddRow("id", "integer")
	table.AddRow("robot_name")
	table.Render()

	assert.Equal(t, 2, table.Len())
	assert.Equal(t, "COLUMN      TYPE\n"+
		"──────────  ───────\n"+
		"id          integer\n"+
		"robot_name\n", buf.String())
}

func TestTable_NoHeaders(t *testing.T) {
	var buf bytes.Buffer
	NewTable(&buf, true).Render()
	assert.Empty(t, buf.String())
}

func TestKeyValue_Render(t *testing.T) {
	var buf bytes.Buffer
	kv := NewKeyValue(&buf, true)
	kv.Add("Model", "Robots")
	kv.Add("Dialect", "mysql")
	kv.Render()

	assert.Equal(t, "Model:   Robots\nDialect: mysql\n", buf.String())
}

func TestDistance(t *testing.T) {
	assert.Equal(t, 3, Distance("kitten", "sitting"))
	assert.Equal(t, 3, Distance("saturday", "sunday"))
	assert.Equal(t, 5, Distance("", "hello"))
	assert.Equal(t, 0, Distance("Robots", "Robots"))
}

func TestSuggest(t *testing.T) {
	models := []string{"Robots", "RobotsParts", "Parts", "Brands"}

	assert.Equal(t, []string{"Robots"}, Suggest("robot", models, 3))
	assert.Equal(t, []string{"Parts"}, Suggest("Prts", models, 2))
	assert.Equal(t, []string{"Brands", "Parts"}, Suggest("rands", models, 3), "closest first")
	assert.Empty(t, Suggest("Customers", models, 3))
}

func TestModelNotFound(t *testing.T) {
	msg := ModelNotFound("Robot", []string{"Robots", "Brands"}, true)
	assert.Equal(t, `model "Robot" not found (did you mean: Robots?)`, msg)

	msg = ModelNotFound("Zzz", []string{"Robots"}, true)
	assert.Equal(t, `model "Zzz" not found`, msg)
}

func TestSuccess(t *testing.T) {
	assert.Equal(t, "✓ done", Success("done", true))
}
