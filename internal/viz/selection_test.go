package viz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(f *ItemFilter, names ...string) bool {
	return f.Load(NameIdentity(names), names)
}

func TestItemFilterLoad(t *testing.T) {
	f := NewItemFilter("c", SelectionOptions{})
	require.True(t, load(f, "a", "b", "a", "c"))
	assert.Equal(t, 3, f.Total())
	assert.Equal(t, []string{"a", "b", "c"}, f.Selected())

	require.True(t, f.Toggle("b"))
	assert.False(t, load(f, "a", "b", "a", "c"))
	assert.Equal(t, []string{"a", "c"}, f.Selected())

	assert.True(t, load(f, "a", "d"))
	assert.Equal(t, []string{"a", "d"}, f.Selected())
}

func TestItemFilterSelectAllDeselectAll(t *testing.T) {
	f := NewItemFilter("c", SelectionOptions{KeepOne: true})
	load(f, "x", "y")

	f.DeselectAll()
	assert.Zero(t, f.Count())
	assert.Empty(t, f.Selected())

	f.SelectAll()
	assert.Equal(t, 2, f.Count())
	assert.Equal(t, []SelectionItem{{Name: "x", Selected: true}, {Name: "y", Selected: true}}, f.Items())
}

func TestItemFilterKeepOne(t *testing.T) {
	f := NewItemFilter("c", SelectionOptions{KeepOne: true})
	load(f, "x", "y")

	assert.True(t, f.Toggle("x"))
	assert.False(t, f.Toggle("y"))
	assert.True(t, f.Has("y"))
	assert.True(t, f.Toggle("x"))
	assert.Equal(t, 2, f.Count())

	loose := NewItemFilter("c", SelectionOptions{})
	load(loose, "x")
	assert.True(t, loose.Toggle("x"))
	assert.Zero(t, loose.Count())
}

func TestItemFilterUnknown(t *testing.T) {
	f := NewItemFilter("c", SelectionOptions{})
	load(f, "x")
	assert.False(t, f.Toggle("nope"))
	assert.False(t, f.Has("nope"))
}

func TestVisible(t *testing.T) {
	f := NewItemFilter("c", SelectionOptions{})
	load(f, "x", "y", "z")
	f.Toggle("y")

	rows := []string{"x", "y", "z", "x"}
	assert.Equal(t, []string{"x", "z", "x"}, Visible(f, rows, func(s string) string { return s }))
}

func TestItemFilterEvents(t *testing.T) {
	f := NewItemFilter("sales", SelectionOptions{})
	var got []Event
	f.Subscribe(func(e Event) { got = append(got, e) })

	load(f, "x")
	f.Toggle("x")
	require.Len(t, got, 2)
	assert.Equal(t, Event{Kind: EventDataReset, Source: "sales"}, got[0])
	assert.Equal(t, Event{Kind: EventSelectionChanged, Source: "sales", Entity: "x"}, got[1])
}

func TestItemFilterResetsOnNewDatasetWithSameNames(t *testing.T) {
	f := NewItemFilter("c", SelectionOptions{})
	names := []string{"a", "b"}
	require.True(t, f.Load(1, names))
	require.True(t, f.Toggle("b"))

	assert.False(t, f.Load(1, names))
	assert.Equal(t, []string{"a"}, f.Selected())

	assert.True(t, f.Load(2, names))
	assert.Equal(t, []string{"a", "b"}, f.Selected())
}
